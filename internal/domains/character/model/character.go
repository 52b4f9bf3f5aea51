package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

const CollectionName = "characters"

// =====================================================
// ENUMS
// =====================================================

type Role string

const (
	RoleProtagonist Role = "protagonist"
	RoleAntagonist  Role = "antagonist"
	RoleSupporting  Role = "supporting"
	RoleMinor       Role = "minor"
)

var Roles = []Role{RoleProtagonist, RoleAntagonist, RoleSupporting, RoleMinor}

func (r Role) Values() []string { return shared.EnumStrings(Roles) }
func (r Role) Validate() error  { return shared.OneOf(r, Roles) }

type RelationshipType string

const (
	RelFamily    RelationshipType = "family"
	RelFriend    RelationshipType = "friend"
	RelEnemy     RelationshipType = "enemy"
	RelRomantic  RelationshipType = "romantic"
	RelMentor    RelationshipType = "mentor"
	RelRival     RelationshipType = "rival"
	RelColleague RelationshipType = "colleague"
	RelOther     RelationshipType = "other"
)

var RelationshipTypes = []RelationshipType{RelFamily, RelFriend, RelEnemy, RelRomantic, RelMentor, RelRival, RelColleague, RelOther}

func (t RelationshipType) Values() []string { return shared.EnumStrings(RelationshipTypes) }
func (t RelationshipType) Validate() error  { return shared.OneOf(t, RelationshipTypes) }

type FamilyRelation string

const (
	FamilyParent      FamilyRelation = "parent"
	FamilyChild       FamilyRelation = "child"
	FamilySibling     FamilyRelation = "sibling"
	FamilySpouse      FamilyRelation = "spouse"
	FamilyCousin      FamilyRelation = "cousin"
	FamilyGrandparent FamilyRelation = "grandparent"
	FamilyGrandchild  FamilyRelation = "grandchild"
	FamilyOther       FamilyRelation = "other"
	FamilyNone        FamilyRelation = "none"
)

var FamilyRelations = []FamilyRelation{
	FamilyParent, FamilyChild, FamilySibling, FamilySpouse, FamilyCousin,
	FamilyGrandparent, FamilyGrandchild, FamilyOther, FamilyNone,
}

func (f FamilyRelation) Values() []string { return shared.EnumStrings(FamilyRelations) }
func (f FamilyRelation) Validate() error  { return shared.OneOf(f, FamilyRelations) }

type RelationshipStatus string

const (
	RelStatusActive   RelationshipStatus = "active"
	RelStatusStrained RelationshipStatus = "strained"
	RelStatusBroken   RelationshipStatus = "broken"
	RelStatusUnknown  RelationshipStatus = "unknown"
)

var RelationshipStatuses = []RelationshipStatus{RelStatusActive, RelStatusStrained, RelStatusBroken, RelStatusUnknown}

func (s RelationshipStatus) Values() []string { return shared.EnumStrings(RelationshipStatuses) }
func (s RelationshipStatus) Validate() error  { return shared.OneOf(s, RelationshipStatuses) }

// =====================================================
// ENTITY
// =====================================================

type Physical struct {
	Age                    *int   `bson:"age,omitempty" json:"age,omitempty"`
	Height                 string `bson:"height" json:"height"`
	Build                  string `bson:"build" json:"build"`
	HairColor              string `bson:"hair_color" json:"hair_color"`
	EyeColor               string `bson:"eye_color" json:"eye_color"`
	DistinguishingFeatures string `bson:"distinguishing_features" json:"distinguishing_features"`
}

type Personality struct {
	Traits     []string `bson:"traits" json:"traits"`
	Strengths  []string `bson:"strengths" json:"strengths"`
	Weaknesses []string `bson:"weaknesses" json:"weaknesses"`
	Fears      []string `bson:"fears" json:"fears"`
	Desires    []string `bson:"desires" json:"desires"`
}

// Normalize thay nil slices bằng slice rỗng
func (p *Personality) Normalize() {
	for _, list := range []*[]string{&p.Traits, &p.Strengths, &p.Weaknesses, &p.Fears, &p.Desires} {
		if *list == nil {
			*list = []string{}
		}
	}
}

type Background struct {
	Occupation string `bson:"occupation" json:"occupation"`
	Education  string `bson:"education" json:"education"`
	Hometown   string `bson:"hometown" json:"hometown"`
	Family     string `bson:"family" json:"family"`
}

// Relationship là quan hệ một chiều từ character chứa nó tới CharacterID
type Relationship struct {
	CharacterID    primitive.ObjectID `bson:"character_id"`
	Type           RelationshipType   `bson:"type"`
	FamilyRelation FamilyRelation     `bson:"family_relation"`
	Status         RelationshipStatus `bson:"status"`
	Notes          string             `bson:"notes"`
}

type Character struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	ProjectID     primitive.ObjectID   `bson:"project_id"`
	Name          string               `bson:"name"`
	Role          Role                 `bson:"role"`
	Description   string               `bson:"description"`
	Backstory     string               `bson:"backstory"`
	Physical      Physical             `bson:"physical"`
	Personality   Personality          `bson:"personality"`
	Background    Background           `bson:"background"`
	Relationships []Relationship       `bson:"relationships"`
	Possessions   []primitive.ObjectID `bson:"possessions"`
	ImageURL      string               `bson:"image_url"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (c *Character) Relationship(target primitive.ObjectID) *Relationship {
	for i := range c.Relationships {
		if c.Relationships[i].CharacterID == target {
			return &c.Relationships[i]
		}
	}
	return nil
}
