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
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxTextLength        = 500
	MaxTags              = 20
	MaxTagLength         = 50
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateProjectRequest struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Genre          Genre          `json:"genre"`
	TargetAudience TargetAudience `json:"target_audience"`
	NarrativeType  NarrativeType  `json:"narrative_type"`
	Tone           string         `json:"tone"`
	Style          string         `json:"style"`
	TargetLength   TargetLength   `json:"target_length"`
	Status         Status         `json:"status"`
	Tags           []string       `json:"tags"`
}

func (r *CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&r.Genre),
		validation.Field(&r.TargetAudience),
		validation.Field(&r.NarrativeType),
		validation.Field(&r.Tone, validation.Length(0, MaxTextLength)),
		validation.Field(&r.Style, validation.Length(0, MaxTextLength)),
		validation.Field(&r.TargetLength),
		validation.Field(&r.Status),
		validation.Field(&r.Tags, validation.By(validTags)),
	)
}

// SetDefaults áp default trước khi persist
func (r *CreateProjectRequest) SetDefaults() {
	r.Title = strings.TrimSpace(r.Title)
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// ToProject dựng entity mới, owner là caller
func (r *CreateProjectRequest) ToProject(ownerID primitive.ObjectID, now time.Time) *Project {
	return &Project{
		OwnerID:        ownerID,
		Title:          r.Title,
		Description:    r.Description,
		Genre:          r.Genre,
		TargetAudience: r.TargetAudience,
		NarrativeType:  r.NarrativeType,
		Tone:           r.Tone,
		Style:          r.Style,
		TargetLength:   r.TargetLength,
		Status:         r.Status,
		Collaborators:  []Collaborator{},
		Tags:           r.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func validTags(value interface{}) error {
	var tags []string
	switch v := value.(type) {
	case []string:
		tags = v
	case *[]string:
		if v == nil {
			return nil
		}
		tags = *v
	}
	return validation.Validate(tags,
		validation.Length(0, MaxTags),
		validation.Each(validation.Required, validation.Length(1, MaxTagLength)),
	)
}

// ListScope chọn project owned, shared (collaborator) hoặc cả hai
type ListScope string

const (
	ScopeAll    ListScope = "all"
	ScopeOwned  ListScope = "owned"
	ScopeShared ListScope = "shared"
)

var ListScopes = []ListScope{ScopeAll, ScopeOwned, ScopeShared}

func (s ListScope) Values() []string { return shared.EnumStrings(ListScopes) }
func (s ListScope) Validate() error  { return shared.OneOf(s, ListScopes) }

type ListMyProjectsRequest struct {
	Status Status    `json:"status" form:"status"`
	Scope  ListScope `json:"scope" form:"scope"`
	shared.Pagination
}

func (r *ListMyProjectsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status),
		validation.Field(&r.Scope),
		validation.Field(&r.Page, validation.Min(0), validation.Max(shared.MaxPage)),
		validation.Field(&r.Limit, validation.Min(0)),
	)
}

type GetProjectRequest struct {
	ID string `json:"id" uri:"id"`
}

func (r *GetProjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type DeleteProjectRequest = GetProjectRequest

// UpdateProjectRequest là patch: field nil giữ nguyên
type UpdateProjectRequest struct {
	ID             string          `json:"id" uri:"id"`
	Title          *string         `json:"title"`
	Description    *string         `json:"description"`
	Genre          *Genre          `json:"genre"`
	TargetAudience *TargetAudience `json:"target_audience"`
	NarrativeType  *NarrativeType  `json:"narrative_type"`
	Tone           *string         `json:"tone"`
	Style          *string         `json:"style"`
	TargetLength   *TargetLength   `json:"target_length"`
	Status         *Status         `json:"status"`
	Tags           *[]string       `json:"tags"`
}

func (r *UpdateProjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&r.Genre),
		validation.Field(&r.TargetAudience),
		validation.Field(&r.NarrativeType),
		validation.Field(&r.Tone, validation.Length(0, MaxTextLength)),
		validation.Field(&r.Style, validation.Length(0, MaxTextLength)),
		validation.Field(&r.TargetLength),
		validation.Field(&r.Status),
		validation.Field(&r.Tags, validation.By(validTags)),
	)
}

// ApplyTo merge patch vào p, trả về các bson field đã đổi
func (r *UpdateProjectRequest) ApplyTo(p *Project) []string {
	var changed []string
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
		changed = append(changed, "title")
	}
	if r.Description != nil {
		p.Description = *r.Description
		changed = append(changed, "description")
	}
	if r.Genre != nil {
		p.Genre = *r.Genre
		changed = append(changed, "genre")
	}
	if r.TargetAudience != nil {
		p.TargetAudience = *r.TargetAudience
		changed = append(changed, "target_audience")
	}
	if r.NarrativeType != nil {
		p.NarrativeType = *r.NarrativeType
		changed = append(changed, "narrative_type")
	}
	if r.Tone != nil {
		p.Tone = *r.Tone
		changed = append(changed, "tone")
	}
	if r.Style != nil {
		p.Style = *r.Style
		changed = append(changed, "style")
	}
	if r.TargetLength != nil {
		p.TargetLength = *r.TargetLength
		changed = append(changed, "target_length")
	}
	if r.Status != nil {
		p.Status = *r.Status
		changed = append(changed, "status")
	}
	if r.Tags != nil {
		p.Tags = append([]string{}, (*r.Tags)...)
		changed = append(changed, "tags")
	}
	return changed
}

// AddCollaboratorRequest: chỉ định user bằng user_id hoặc email
type AddCollaboratorRequest struct {
	ProjectID string           `json:"project_id" uri:"id"`
	UserID    string           `json:"user_id"`
	Email     string           `json:"email"`
	Role      CollaboratorRole `json:"role"`
}

func (r *AddCollaboratorRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.UserID,
			validation.By(ids.IsValid),
			validation.When(r.Email == "", validation.Required.Error("user_id or email is required")),
			validation.When(r.Email != "", validation.Empty.Error("provide either user_id or email")),
		),
		validation.Field(&r.Email, is.EmailFormat),
		validation.Field(&r.Role, validation.Required),
	)
}

type RemoveCollaboratorRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	UserID    string `json:"user_id" uri:"userId"`
}

func (r *RemoveCollaboratorRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.UserID, validation.Required, validation.By(ids.IsValid)),
	)
}

type UpdateCollaboratorRoleRequest struct {
	ProjectID string           `json:"project_id" uri:"id"`
	UserID    string           `json:"user_id" uri:"userId"`
	Role      CollaboratorRole `json:"role"`
}

func (r *UpdateCollaboratorRoleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.UserID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Role, validation.Required),
	)
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type CollaboratorResponse struct {
	UserID  string           `json:"user_id"`
	Role    CollaboratorRole `json:"role"`
	AddedAt time.Time        `json:"added_at"`
}

type ProjectResponse struct {
	ID             string                 `json:"id"`
	OwnerID        string                 `json:"owner_id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Genre          Genre                  `json:"genre,omitempty"`
	TargetAudience TargetAudience         `json:"target_audience,omitempty"`
	NarrativeType  NarrativeType          `json:"narrative_type,omitempty"`
	Tone           string                 `json:"tone"`
	Style          string                 `json:"style"`
	TargetLength   TargetLength           `json:"target_length,omitempty"`
	Status         Status                 `json:"status"`
	Collaborators  []CollaboratorResponse `json:"collaborators"`
	Tags           []string               `json:"tags"`
	MyRole         CollaboratorRole       `json:"my_role,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ToResponse convert entity → DTO; viewer dùng để tính my_role
func (p *Project) ToResponse(viewer primitive.ObjectID) *ProjectResponse {
	collaborators := make([]CollaboratorResponse, 0, len(p.Collaborators))
	for _, c := range p.Collaborators {
		collaborators = append(collaborators, CollaboratorResponse{UserID: c.UserID.Hex(), Role: c.Role, AddedAt: c.AddedAt})
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return &ProjectResponse{
		ID:             p.ID.Hex(),
		OwnerID:        p.OwnerID.Hex(),
		Title:          p.Title,
		Description:    p.Description,
		Genre:          p.Genre,
		TargetAudience: p.TargetAudience,
		NarrativeType:  p.NarrativeType,
		Tone:           p.Tone,
		Style:          p.Style,
		TargetLength:   p.TargetLength,
		Status:         p.Status,
		Collaborators:  collaborators,
		Tags:           tags,
		MyRole:         p.RoleOf(viewer),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ProjectList là output phân trang của project.listMine
type ProjectList struct {
	Items []*ProjectResponse `json:"items"`
	Meta  shared.PageMeta    `json:"meta"`
}

func (l *ProjectList) PageItems() any            { return l.Items }
func (l *ProjectList) PageMeta() shared.PageMeta { return l.Meta }

// DeleteProjectResponse báo số resource con đã bị xóa theo collection
type DeleteProjectResponse struct {
	Success bool             `json:"success"`
	ID      string           `json:"id"`
	Removed map[string]int64 `json:"removed"`
}
