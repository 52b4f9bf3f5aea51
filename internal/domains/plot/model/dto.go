package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/ids"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	MaxElements          = 200
	MaxRefs              = 100
)

// =====================================================
// ELEMENT INPUT
// =====================================================

// ElementInput mô tả một plot point mới; Order nil = append cuối
type ElementInput struct {
	Type         ElementType `json:"type"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Order        *int        `json:"order"`
	ChapterID    string      `json:"chapter_id"`
	CharacterIDs []string    `json:"character_ids"`
	SettingIDs   []string    `json:"setting_ids"`
	ObjectIDs    []string    `json:"object_ids"`
}

func (e ElementInput) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required),
		validation.Field(&e.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&e.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&e.Order, validation.Min(0)),
		validation.Field(&e.ChapterID, validation.By(ids.IsValid)),
		validation.Field(&e.CharacterIDs, validation.Length(0, MaxRefs), validation.By(ids.AllValid)),
		validation.Field(&e.SettingIDs, validation.Length(0, MaxRefs), validation.By(ids.AllValid)),
		validation.Field(&e.ObjectIDs, validation.Length(0, MaxRefs), validation.By(ids.AllValid)),
	)
}

// ToElement dựng element với uuid mới; order mặc định do caller truyền vào
func (e ElementInput) ToElement(defaultOrder int) (Element, error) {
	el := Element{
		ID:          uuid.NewString(),
		Type:        e.Type,
		Title:       strings.TrimSpace(e.Title),
		Description: e.Description,
		Order:       defaultOrder,
	}
	if e.Order != nil {
		el.Order = *e.Order
	}

	if e.ChapterID != "" {
		chapterID, err := ids.Parse("chapter_id", e.ChapterID)
		if err != nil {
			return Element{}, err
		}
		el.ChapterID = &chapterID
	}

	var err error
	if el.CharacterIDs, err = ids.ParseMany("character_ids", e.CharacterIDs); err != nil {
		return Element{}, err
	}
	if el.SettingIDs, err = ids.ParseMany("setting_ids", e.SettingIDs); err != nil {
		return Element{}, err
	}
	if el.ObjectIDs, err = ids.ParseMany("object_ids", e.ObjectIDs); err != nil {
		return Element{}, err
	}
	return el, nil
}

// =====================================================
// PLOT REQUESTS
// =====================================================

type CreatePlotRequest struct {
	ProjectID     string         `json:"project_id" uri:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	StructureType StructureType  `json:"structure_type"`
	Elements      []ElementInput `json:"elements"`
}

func (r *CreatePlotRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&r.StructureType),
		validation.Field(&r.Elements, validation.Length(0, MaxElements)),
	)
}

// ToPlot: structure mặc định three_act, elements không có order lấy theo vị trí
func (r *CreatePlotRequest) ToPlot(projectID primitive.ObjectID, now time.Time) (*Plot, error) {
	structure := r.StructureType
	if structure == "" {
		structure = StructureThreeAct
	}

	p := &Plot{
		ProjectID:     projectID,
		Title:         strings.TrimSpace(r.Title),
		Description:   r.Description,
		StructureType: structure,
		Elements:      make([]Element, 0, len(r.Elements)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, in := range r.Elements {
		el, err := in.ToElement(i)
		if err != nil {
			return nil, err
		}
		p.Elements = append(p.Elements, el)
	}
	p.SortElements()
	return p, nil
}

type ListPlotsRequest struct {
	ProjectID     string        `json:"project_id" uri:"id"`
	StructureType StructureType `json:"structure_type" form:"structure_type"`
}

func (r *ListPlotsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.StructureType),
	)
}

type GetPlotRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"plotId"`
}

func (r *GetPlotRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type DeletePlotRequest = GetPlotRequest

type UpdatePlotRequest struct {
	ProjectID     string         `json:"project_id" uri:"id"`
	ID            string         `json:"id" uri:"plotId"`
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	StructureType *StructureType `json:"structure_type"`
}

func (r *UpdatePlotRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&r.StructureType),
	)
}

func (r *UpdatePlotRequest) ApplyTo(p *Plot) []string {
	var changed []string
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
		changed = append(changed, "title")
	}
	if r.Description != nil {
		p.Description = *r.Description
		changed = append(changed, "description")
	}
	if r.StructureType != nil {
		p.StructureType = *r.StructureType
		changed = append(changed, "structure_type")
	}
	return changed
}

// =====================================================
// PLOT POINT REQUESTS
// =====================================================

type AddPlotPointRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"plotId"`
	ElementInput
}

func (r *AddPlotPointRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ElementInput),
	)
}

type UpdatePlotPointRequest struct {
	ProjectID    string       `json:"project_id" uri:"id"`
	ID           string       `json:"id" uri:"plotId"`
	PointID      string       `json:"point_id" uri:"pointId"`
	Type         *ElementType `json:"type"`
	Title        *string      `json:"title"`
	Description  *string      `json:"description"`
	Order        *int         `json:"order"`
	ChapterID    *string      `json:"chapter_id"`
	CharacterIDs *[]string    `json:"character_ids"`
	SettingIDs   *[]string    `json:"setting_ids"`
	ObjectIDs    *[]string    `json:"object_ids"`
}

func (r *UpdatePlotPointRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.PointID, validation.Required, is.UUID),
		validation.Field(&r.Type),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Description, validation.Length(0, MaxDescriptionLength)),
		validation.Field(&r.Order, validation.Min(0)),
		validation.Field(&r.ChapterID, validation.By(ids.IsValid)),
		validation.Field(&r.CharacterIDs, validation.By(refList)),
		validation.Field(&r.SettingIDs, validation.By(refList)),
		validation.Field(&r.ObjectIDs, validation.By(refList)),
	)
}

func refList(value interface{}) error {
	list, _ := value.(*[]string)
	if list == nil {
		return nil
	}
	return validation.Validate(*list, validation.Length(0, MaxRefs), validation.By(ids.AllValid))
}

// ApplyTo merge patch vào element; chapter_id rỗng = bỏ liên kết chapter
func (r *UpdatePlotPointRequest) ApplyTo(e *Element) error {
	if r.Type != nil {
		e.Type = *r.Type
	}
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Order != nil {
		e.Order = *r.Order
	}
	if r.ChapterID != nil {
		if *r.ChapterID == "" {
			e.ChapterID = nil
		} else {
			id, err := ids.Parse("chapter_id", *r.ChapterID)
			if err != nil {
				return err
			}
			e.ChapterID = &id
		}
	}

	for _, ref := range []struct {
		field string
		in    *[]string
		out   *[]primitive.ObjectID
	}{
		{"character_ids", r.CharacterIDs, &e.CharacterIDs},
		{"setting_ids", r.SettingIDs, &e.SettingIDs},
		{"object_ids", r.ObjectIDs, &e.ObjectIDs},
	} {
		if ref.in == nil {
			continue
		}
		parsed, err := ids.ParseMany(ref.field, *ref.in)
		if err != nil {
			return err
		}
		*ref.out = parsed
	}
	return nil
}

type DeletePlotPointRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"plotId"`
	PointID   string `json:"point_id" uri:"pointId"`
}

func (r *DeletePlotPointRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.PointID, validation.Required, is.UUID),
	)
}

type ReorderPlotPointsRequest struct {
	ProjectID string             `json:"project_id" uri:"id"`
	ID        string             `json:"id" uri:"plotId"`
	Items     []shared.OrderItem `json:"items"`
}

func (r *ReorderPlotPointsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Items, validation.Required, validation.Length(1, MaxElements), validation.By(shared.UniqueOrderIDs)),
	)
}

// Reorder áp các cặp (id, order) rồi sort; element không được nhắc giữ order cũ
func Reorder(p *Plot, items []shared.OrderItem) error {
	for _, it := range items {
		_, el := p.Element(it.ID)
		if el == nil {
			return ErrElementNotFound
		}
		el.Order = it.Order
	}
	p.SortElements()
	return nil
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type ElementResponse struct {
	ID           string      `json:"id"`
	Type         ElementType `json:"type"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Order        int         `json:"order"`
	ChapterID    string      `json:"chapter_id,omitempty"`
	CharacterIDs []string    `json:"character_ids"`
	SettingIDs   []string    `json:"setting_ids"`
	ObjectIDs    []string    `json:"object_ids"`
}

type PlotResponse struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"project_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	StructureType StructureType     `json:"structure_type"`
	Elements      []ElementResponse `json:"elements"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (p *Plot) ToResponse() *PlotResponse {
	elements := make([]ElementResponse, 0, len(p.Elements))
	for _, e := range p.Elements {
		er := ElementResponse{
			ID:           e.ID,
			Type:         e.Type,
			Title:        e.Title,
			Description:  e.Description,
			Order:        e.Order,
			CharacterIDs: ids.Hex(e.CharacterIDs),
			SettingIDs:   ids.Hex(e.SettingIDs),
			ObjectIDs:    ids.Hex(e.ObjectIDs),
		}
		if e.ChapterID != nil {
			er.ChapterID = e.ChapterID.Hex()
		}
		elements = append(elements, er)
	}

	return &PlotResponse{
		ID:            p.ID.Hex(),
		ProjectID:     p.ProjectID.Hex(),
		Title:         p.Title,
		Description:   p.Description,
		StructureType: p.StructureType,
		Elements:      elements,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
