package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

const CollectionName = "projects"

// =====================================================
// ENUMS
// =====================================================

type Genre string

const (
	GenreFantasy        Genre = "fantasy"
	GenreScienceFiction Genre = "science_fiction"
	GenreMystery        Genre = "mystery"
	GenreThriller       Genre = "thriller"
	GenreRomance        Genre = "romance"
	GenreHorror         Genre = "horror"
	GenreHistorical     Genre = "historical"
	GenreLiterary       Genre = "literary"
	GenreAdventure      Genre = "adventure"
	GenreDrama          Genre = "drama"
	GenreComedy         Genre = "comedy"
	GenreOther          Genre = "other"
)

var Genres = []Genre{
	GenreFantasy, GenreScienceFiction, GenreMystery, GenreThriller, GenreRomance, GenreHorror,
	GenreHistorical, GenreLiterary, GenreAdventure, GenreDrama, GenreComedy, GenreOther,
}

func (g Genre) Values() []string { return shared.EnumStrings(Genres) }
func (g Genre) Validate() error  { return shared.OneOf(g, Genres) }

type TargetAudience string

const (
	AudienceChildren   TargetAudience = "children"
	AudienceYoungAdult TargetAudience = "young_adult"
	AudienceAdult      TargetAudience = "adult"
	AudienceAllAges    TargetAudience = "all_ages"
)

var TargetAudiences = []TargetAudience{AudienceChildren, AudienceYoungAdult, AudienceAdult, AudienceAllAges}

func (a TargetAudience) Values() []string { return shared.EnumStrings(TargetAudiences) }
func (a TargetAudience) Validate() error  { return shared.OneOf(a, TargetAudiences) }

type NarrativeType string

const (
	NarrativeFirstPerson           NarrativeType = "first_person"
	NarrativeSecondPerson          NarrativeType = "second_person"
	NarrativeThirdPersonLimited    NarrativeType = "third_person_limited"
	NarrativeThirdPersonOmniscient NarrativeType = "third_person_omniscient"
)

var NarrativeTypes = []NarrativeType{
	NarrativeFirstPerson, NarrativeSecondPerson, NarrativeThirdPersonLimited, NarrativeThirdPersonOmniscient,
}

func (n NarrativeType) Values() []string { return shared.EnumStrings(NarrativeTypes) }
func (n NarrativeType) Validate() error  { return shared.OneOf(n, NarrativeTypes) }

type TargetLength string

const (
	LengthShortStory TargetLength = "short_story"
	LengthNovella    TargetLength = "novella"
	LengthNovel      TargetLength = "novel"
	LengthEpic       TargetLength = "epic"
)

var TargetLengths = []TargetLength{LengthShortStory, LengthNovella, LengthNovel, LengthEpic}

func (l TargetLength) Values() []string { return shared.EnumStrings(TargetLengths) }
func (l TargetLength) Validate() error  { return shared.OneOf(l, TargetLengths) }

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

var Statuses = []Status{StatusDraft, StatusInProgress, StatusCompleted, StatusArchived}

func (s Status) Values() []string { return shared.EnumStrings(Statuses) }
func (s Status) Validate() error  { return shared.OneOf(s, Statuses) }

type CollaboratorRole string

const (
	RoleEditor      CollaboratorRole = "editor"
	RoleViewer      CollaboratorRole = "viewer"
	RoleContributor CollaboratorRole = "contributor"

	// RoleOwner chỉ xuất hiện trong response (my_role), không lưu trong collaborators
	RoleOwner CollaboratorRole = "owner"
)

var CollaboratorRoles = []CollaboratorRole{RoleEditor, RoleViewer, RoleContributor}

func (r CollaboratorRole) Values() []string { return shared.EnumStrings(CollaboratorRoles) }
func (r CollaboratorRole) Validate() error  { return shared.OneOf(r, CollaboratorRoles) }

// =====================================================
// ENTITY
// =====================================================

type Collaborator struct {
	UserID  primitive.ObjectID `bson:"user_id"`
	Role    CollaboratorRole   `bson:"role"`
	AddedAt time.Time          `bson:"added_at"`
}

// Project là root của mọi resource khác (characters, plots, chapters, exports, ai generations)
type Project struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID        primitive.ObjectID `bson:"owner_id"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description"`
	Genre          Genre              `bson:"genre,omitempty"`
	TargetAudience TargetAudience     `bson:"target_audience,omitempty"`
	NarrativeType  NarrativeType      `bson:"narrative_type,omitempty"`
	Tone           string             `bson:"tone"`
	Style          string             `bson:"style"`
	TargetLength   TargetLength       `bson:"target_length,omitempty"`
	Status         Status             `bson:"status"`
	Collaborators  []Collaborator     `bson:"collaborators"`
	Tags           []string           `bson:"tags"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (p *Project) IsOwner(userID primitive.ObjectID) bool {
	return p.OwnerID == userID
}

// Collaborator tìm collaborator entry của user, nil nếu không có
func (p *Project) Collaborator(userID primitive.ObjectID) *Collaborator {
	for i := range p.Collaborators {
		if p.Collaborators[i].UserID == userID {
			return &p.Collaborators[i]
		}
	}
	return nil
}

// RoleOf trả về role hiệu lực của user trong project, "" nếu không có quyền
func (p *Project) RoleOf(userID primitive.ObjectID) CollaboratorRole {
	if p.IsOwner(userID) {
		return RoleOwner
	}
	if c := p.Collaborator(userID); c != nil {
		return c.Role
	}
	return ""
}

// ObjectPrefix là prefix của mọi object storage key thuộc project
func ObjectPrefix(projectID primitive.ObjectID) string {
	return "projects/" + projectID.Hex() + "/"
}
