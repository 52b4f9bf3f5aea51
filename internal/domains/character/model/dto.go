package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/ids"
)

const (
	MaxNameLength  = 200
	MaxTextLength  = 10000
	MaxShortText   = 500
	MaxListItems   = 50
	MaxListItemLen = 200
	MaxAge         = 100000
)

func (p Physical) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Age, validation.Min(0), validation.Max(MaxAge)),
		validation.Field(&p.Height, validation.Length(0, MaxShortText)),
		validation.Field(&p.Build, validation.Length(0, MaxShortText)),
		validation.Field(&p.HairColor, validation.Length(0, MaxShortText)),
		validation.Field(&p.EyeColor, validation.Length(0, MaxShortText)),
		validation.Field(&p.DistinguishingFeatures, validation.Length(0, MaxShortText)),
	)
}

func (p Personality) Validate() error {
	list := shared.StringList(MaxListItems, MaxListItemLen)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Traits, validation.By(list)),
		validation.Field(&p.Strengths, validation.By(list)),
		validation.Field(&p.Weaknesses, validation.By(list)),
		validation.Field(&p.Fears, validation.By(list)),
		validation.Field(&p.Desires, validation.By(list)),
	)
}

func (b Background) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Occupation, validation.Length(0, MaxShortText)),
		validation.Field(&b.Education, validation.Length(0, MaxShortText)),
		validation.Field(&b.Hometown, validation.Length(0, MaxShortText)),
		validation.Field(&b.Family, validation.Length(0, MaxTextLength)),
	)
}

// =====================================================
// CRUD REQUESTS
// =====================================================

type CreateCharacterRequest struct {
	ProjectID   string      `json:"project_id" uri:"id"`
	Name        string      `json:"name"`
	Role        Role        `json:"role"`
	Description string      `json:"description"`
	Backstory   string      `json:"backstory"`
	Physical    Physical    `json:"physical"`
	Personality Personality `json:"personality"`
	Background  Background  `json:"background"`
	ImageURL    string      `json:"image_url"`
}

func (r *CreateCharacterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, MaxNameLength)),
		validation.Field(&r.Role),
		validation.Field(&r.Description, validation.Length(0, MaxTextLength)),
		validation.Field(&r.Backstory, validation.Length(0, MaxTextLength)),
		validation.Field(&r.Physical),
		validation.Field(&r.Personality),
		validation.Field(&r.Background),
		validation.Field(&r.ImageURL, is.URL),
	)
}

func (r *CreateCharacterRequest) ToCharacter(projectID primitive.ObjectID, now time.Time) *Character {
	role := r.Role
	if role == "" {
		role = RoleSupporting
	}
	personality := r.Personality
	personality.Normalize()

	return &Character{
		ProjectID:     projectID,
		Name:          strings.TrimSpace(r.Name),
		Role:          role,
		Description:   r.Description,
		Backstory:     r.Backstory,
		Physical:      r.Physical,
		Personality:   personality,
		Background:    r.Background,
		Relationships: []Relationship{},
		Possessions:   []primitive.ObjectID{},
		ImageURL:      r.ImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

type ListCharactersRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Role      Role   `json:"role" form:"role"`
	// Search lọc theo name, không phân biệt hoa thường
	Search string `json:"search" form:"search"`
}

func (r *ListCharactersRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Role),
		validation.Field(&r.Search, validation.Length(0, MaxNameLength)),
	)
}

type GetCharacterRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"characterId"`
}

func (r *GetCharacterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type (
	DeleteCharacterRequest   = GetCharacterRequest
	GetRelationshipsRequest = GetCharacterRequest
)

// UpdateCharacterRequest: physical/personality/background thay thế cả nhóm
type UpdateCharacterRequest struct {
	ProjectID   string       `json:"project_id" uri:"id"`
	ID          string       `json:"id" uri:"characterId"`
	Name        *string      `json:"name"`
	Role        *Role        `json:"role"`
	Description *string      `json:"description"`
	Backstory   *string      `json:"backstory"`
	Physical    *Physical    `json:"physical"`
	Personality *Personality `json:"personality"`
	Background  *Background  `json:"background"`
	ImageURL    *string      `json:"image_url"`
}

func (r *UpdateCharacterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, MaxNameLength)),
		validation.Field(&r.Role),
		validation.Field(&r.Description, validation.Length(0, MaxTextLength)),
		validation.Field(&r.Backstory, validation.Length(0, MaxTextLength)),
		validation.Field(&r.Physical),
		validation.Field(&r.Personality),
		validation.Field(&r.Background),
		validation.Field(&r.ImageURL, is.URL),
	)
}

func (r *UpdateCharacterRequest) ApplyTo(c *Character) []string {
	var changed []string
	if r.Name != nil {
		c.Name = strings.TrimSpace(*r.Name)
		changed = append(changed, "name")
	}
	if r.Role != nil {
		c.Role = *r.Role
		changed = append(changed, "role")
	}
	if r.Description != nil {
		c.Description = *r.Description
		changed = append(changed, "description")
	}
	if r.Backstory != nil {
		c.Backstory = *r.Backstory
		changed = append(changed, "backstory")
	}
	if r.Physical != nil {
		c.Physical = *r.Physical
		changed = append(changed, "physical")
	}
	if r.Personality != nil {
		c.Personality = *r.Personality
		c.Personality.Normalize()
		changed = append(changed, "personality")
	}
	if r.Background != nil {
		c.Background = *r.Background
		changed = append(changed, "background")
	}
	if r.ImageURL != nil {
		c.ImageURL = *r.ImageURL
		changed = append(changed, "image_url")
	}
	return changed
}

// =====================================================
// RELATIONSHIP REQUESTS
// =====================================================

type AddRelationshipRequest struct {
	ProjectID      string             `json:"project_id" uri:"id"`
	ID             string             `json:"id" uri:"characterId"`
	TargetID       string             `json:"target_id"`
	Type           RelationshipType   `json:"type"`
	FamilyRelation FamilyRelation     `json:"family_relation"`
	Status         RelationshipStatus `json:"status"`
	Notes          string             `json:"notes"`
}

func (r *AddRelationshipRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.TargetID, validation.Required, validation.By(ids.IsValid),
			validation.NotIn(r.ID).Error(ErrSelfRelationship.Error())),
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.FamilyRelation),
		validation.Field(&r.Status),
		validation.Field(&r.Notes, validation.Length(0, MaxTextLength)),
	)
}

func (r *AddRelationshipRequest) ToRelationship(target primitive.ObjectID) Relationship {
	rel := Relationship{
		CharacterID:    target,
		Type:           r.Type,
		FamilyRelation: r.FamilyRelation,
		Status:         r.Status,
		Notes:          r.Notes,
	}
	if rel.FamilyRelation == "" {
		rel.FamilyRelation = FamilyNone
	}
	if rel.Status == "" {
		rel.Status = RelStatusActive
	}
	return rel
}

type UpdateRelationshipRequest struct {
	ProjectID      string              `json:"project_id" uri:"id"`
	ID             string              `json:"id" uri:"characterId"`
	TargetID       string              `json:"target_id" uri:"targetId"`
	Type           *RelationshipType   `json:"type"`
	FamilyRelation *FamilyRelation     `json:"family_relation"`
	Status         *RelationshipStatus `json:"status"`
	Notes          *string             `json:"notes"`
}

func (r *UpdateRelationshipRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.TargetID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Type),
		validation.Field(&r.FamilyRelation),
		validation.Field(&r.Status),
		validation.Field(&r.Notes, validation.Length(0, MaxTextLength)),
	)
}

func (r *UpdateRelationshipRequest) ApplyTo(rel *Relationship) {
	if r.Type != nil {
		rel.Type = *r.Type
	}
	if r.FamilyRelation != nil {
		rel.FamilyRelation = *r.FamilyRelation
	}
	if r.Status != nil {
		rel.Status = *r.Status
	}
	if r.Notes != nil {
		rel.Notes = *r.Notes
	}
}

type RemoveRelationshipRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"characterId"`
	TargetID  string `json:"target_id" uri:"targetId"`
}

func (r *RemoveRelationshipRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.TargetID, validation.Required, validation.By(ids.IsValid)),
	)
}

// PossessionRequest dùng cho cả add (object_id trong body) và remove (path)
type PossessionRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"characterId"`
	ObjectID  string `json:"object_id" uri:"objectId"`
}

func (r *PossessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ObjectID, validation.Required, validation.By(ids.IsValid)),
	)
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type RelationshipResponse struct {
	CharacterID    string             `json:"character_id"`
	CharacterName  string             `json:"character_name,omitempty"`
	Type           RelationshipType   `json:"type"`
	FamilyRelation FamilyRelation     `json:"family_relation"`
	Status         RelationshipStatus `json:"status"`
	Notes          string             `json:"notes"`
}

func (r Relationship) ToResponse(name string) RelationshipResponse {
	return RelationshipResponse{
		CharacterID:    r.CharacterID.Hex(),
		CharacterName:  name,
		Type:           r.Type,
		FamilyRelation: r.FamilyRelation,
		Status:         r.Status,
		Notes:          r.Notes,
	}
}

type CharacterResponse struct {
	ID            string                 `json:"id"`
	ProjectID     string                 `json:"project_id"`
	Name          string                 `json:"name"`
	Role          Role                   `json:"role"`
	Description   string                 `json:"description"`
	Backstory     string                 `json:"backstory"`
	Physical      Physical               `json:"physical"`
	Personality   Personality            `json:"personality"`
	Background    Background             `json:"background"`
	Relationships []RelationshipResponse `json:"relationships"`
	Possessions   []string               `json:"possessions"`
	ImageURL      string                 `json:"image_url"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (c *Character) ToResponse() *CharacterResponse {
	rels := make([]RelationshipResponse, 0, len(c.Relationships))
	for _, r := range c.Relationships {
		rels = append(rels, r.ToResponse(""))
	}
	personality := c.Personality
	personality.Normalize()

	return &CharacterResponse{
		ID:            c.ID.Hex(),
		ProjectID:     c.ProjectID.Hex(),
		Name:          c.Name,
		Role:          c.Role,
		Description:   c.Description,
		Backstory:     c.Backstory,
		Physical:      c.Physical,
		Personality:   personality,
		Background:    c.Background,
		Relationships: rels,
		Possessions:   ids.Hex(c.Possessions),
		ImageURL:      c.ImageURL,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
