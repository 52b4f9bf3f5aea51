package model

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/ids"
)

const (
	MaxTitleLength    = 200
	MaxSynopsisLength = 5000
	MaxContentLength  = 2_000_000
	MaxNoteLength     = 1000
	MaxRefs           = 100
	MaxReorderItems   = 1000

	DefaultEditNote = "Content updated"
)

func refs(value interface{}) error {
	return validation.Validate(value, validation.Length(0, MaxRefs), validation.By(ids.AllValid))
}

// =====================================================
// CRUD REQUESTS
// =====================================================

type CreateChapterRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Title     string `json:"title"`
	// Position nil = đặt sau chapter cuối cùng
	Position     *int     `json:"position"`
	Synopsis     string   `json:"synopsis"`
	Content      string   `json:"content"`
	Status       Status   `json:"status"`
	CharacterIDs []string `json:"character_ids"`
	SettingIDs   []string `json:"setting_ids"`
	PlotIDs      []string `json:"plot_ids"`
	ObjectIDs    []string `json:"object_ids"`
}

func (r *CreateChapterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Position, validation.Min(0)),
		validation.Field(&r.Synopsis, validation.Length(0, MaxSynopsisLength)),
		validation.Field(&r.Content, validation.Length(0, MaxContentLength)),
		validation.Field(&r.Status),
		validation.Field(&r.CharacterIDs, validation.By(refs)),
		validation.Field(&r.SettingIDs, validation.By(refs)),
		validation.Field(&r.PlotIDs, validation.By(refs)),
		validation.Field(&r.ObjectIDs, validation.By(refs)),
	)
}

func (r *CreateChapterRequest) ToChapter(projectID primitive.ObjectID, position int, now time.Time) (*Chapter, error) {
	status := r.Status
	if status == "" {
		status = StatusDraft
	}

	c := &Chapter{
		ProjectID: projectID,
		Title:     strings.TrimSpace(r.Title),
		Position:  position,
		Synopsis:  r.Synopsis,
		Status:    status,
		Edits:     []Edit{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetContent(r.Content)

	var err error
	if c.CharacterIDs, err = ids.ParseMany("character_ids", r.CharacterIDs); err != nil {
		return nil, err
	}
	if c.SettingIDs, err = ids.ParseMany("setting_ids", r.SettingIDs); err != nil {
		return nil, err
	}
	if c.PlotIDs, err = ids.ParseMany("plot_ids", r.PlotIDs); err != nil {
		return nil, err
	}
	if c.ObjectIDs, err = ids.ParseMany("object_ids", r.ObjectIDs); err != nil {
		return nil, err
	}
	return c, nil
}

type ListChaptersRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Status    Status `json:"status" form:"status"`
	// IncludeContent=false bỏ content khỏi response (list nhẹ cho sidebar)
	IncludeContent bool `json:"include_content" form:"include_content"`
}

func (r *ListChaptersRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Status),
	)
}

type GetChapterRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"chapterId"`
}

func (r *GetChapterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type DeleteChapterRequest = GetChapterRequest

type UpdateChapterRequest struct {
	ProjectID    string    `json:"project_id" uri:"id"`
	ID           string    `json:"id" uri:"chapterId"`
	Title        *string   `json:"title"`
	Position     *int      `json:"position"`
	Synopsis     *string   `json:"synopsis"`
	Content      *string   `json:"content"`
	Status       *Status   `json:"status"`
	CharacterIDs *[]string `json:"character_ids"`
	SettingIDs   *[]string `json:"setting_ids"`
	PlotIDs      *[]string `json:"plot_ids"`
	ObjectIDs    *[]string `json:"object_ids"`
	// EditNote ghi vào lịch sử khi content đổi
	EditNote string `json:"edit_note"`
}

func (r *UpdateChapterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Position, validation.Min(0)),
		validation.Field(&r.Synopsis, validation.Length(0, MaxSynopsisLength)),
		validation.Field(&r.Content, validation.Length(0, MaxContentLength)),
		validation.Field(&r.Status),
		validation.Field(&r.CharacterIDs, validation.By(refs)),
		validation.Field(&r.SettingIDs, validation.By(refs)),
		validation.Field(&r.PlotIDs, validation.By(refs)),
		validation.Field(&r.ObjectIDs, validation.By(refs)),
		validation.Field(&r.EditNote, validation.Length(0, MaxNoteLength)),
	)
}

// ApplyTo merge patch; content đổi kéo theo word_count
func (r *UpdateChapterRequest) ApplyTo(c *Chapter) ([]string, error) {
	var changed []string
	if r.Title != nil {
		c.Title = strings.TrimSpace(*r.Title)
		changed = append(changed, "title")
	}
	if r.Position != nil {
		c.Position = *r.Position
		changed = append(changed, "position")
	}
	if r.Synopsis != nil {
		c.Synopsis = *r.Synopsis
		changed = append(changed, "synopsis")
	}
	if r.Content != nil {
		c.SetContent(*r.Content)
		changed = append(changed, "content", "word_count")
	}
	if r.Status != nil {
		c.Status = *r.Status
		changed = append(changed, "status")
	}

	for _, ref := range []struct {
		field string
		in    *[]string
		out   *[]primitive.ObjectID
	}{
		{"character_ids", r.CharacterIDs, &c.CharacterIDs},
		{"setting_ids", r.SettingIDs, &c.SettingIDs},
		{"plot_ids", r.PlotIDs, &c.PlotIDs},
		{"object_ids", r.ObjectIDs, &c.ObjectIDs},
	} {
		if ref.in == nil {
			continue
		}
		parsed, err := ids.ParseMany(ref.field, *ref.in)
		if err != nil {
			return nil, err
		}
		*ref.out = parsed
		changed = append(changed, ref.field)
	}
	return changed, nil
}

// ContentChanged báo patch có chạm vào content hay không
func (r *UpdateChapterRequest) ContentChanged() bool {
	return r.Content != nil
}

func (r *UpdateChapterRequest) Note() string {
	if strings.TrimSpace(r.EditNote) == "" {
		return DefaultEditNote
	}
	return strings.TrimSpace(r.EditNote)
}

// UpdateContentRequest là đường ghi content từ editor; luôn append edit
type UpdateContentRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"chapterId"`
	Content   string `json:"content"`
	Note      string `json:"note"`
}

func (r *UpdateContentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Content, validation.Length(0, MaxContentLength)),
		validation.Field(&r.Note, validation.Length(0, MaxNoteLength)),
	)
}

func (r *UpdateContentRequest) EditNote() string {
	if strings.TrimSpace(r.Note) == "" {
		return DefaultEditNote
	}
	return strings.TrimSpace(r.Note)
}

type AddEditRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"chapterId"`
	Note      string `json:"note"`
}

func (r *AddEditRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Note, validation.Required, validation.Length(1, MaxNoteLength)),
	)
}

// =====================================================
// REORDER
// =====================================================

type ReorderChaptersRequest struct {
	ProjectID string             `json:"project_id" uri:"id"`
	Items     []shared.OrderItem `json:"items"`
}

func (r *ReorderChaptersRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Items,
			validation.Required,
			validation.Length(1, MaxReorderItems),
			validation.By(shared.UniqueOrderIDs),
			validation.By(uniquePositions),
		),
	)
}

func uniquePositions(value interface{}) error {
	items, _ := value.([]shared.OrderItem)
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.Order]; dup {
			return fmt.Errorf("duplicate position %d", it.Order)
		}
		seen[it.Order] = struct{}{}
	}
	return nil
}

// Positions áp các cặp reorder lên vị trí hiện tại và trả về map id → position
// mới cho mọi chapter; lỗi nếu id lạ hoặc hai chapter trùng position
func Positions(current []*Chapter, items []shared.OrderItem) (map[primitive.ObjectID]int, error) {
	next := make(map[primitive.ObjectID]int, len(current))
	for _, c := range current {
		next[c.ID] = c.Position
	}
	for i, it := range items {
		id, err := ids.Parse(fmt.Sprintf("items.%d.id", i), it.ID)
		if err != nil {
			return nil, err
		}
		if _, ok := next[id]; !ok {
			return nil, ErrChapterNotFound
		}
		next[id] = it.Order
	}

	taken := make(map[int]struct{}, len(next))
	for _, pos := range next {
		if _, dup := taken[pos]; dup {
			return nil, ErrPositionTaken
		}
		taken[pos] = struct{}{}
	}
	return next, nil
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type EditResponse struct {
	Timestamp time.Time `json:"timestamp"`
	EditorID  string    `json:"editor_id"`
	Note      string    `json:"note"`
}

type ChapterResponse struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	Title        string         `json:"title"`
	Position     int            `json:"position"`
	Synopsis     string         `json:"synopsis"`
	Content      *string        `json:"content,omitempty"`
	Status       Status         `json:"status"`
	WordCount    int            `json:"word_count"`
	CharacterIDs []string       `json:"character_ids"`
	SettingIDs   []string       `json:"setting_ids"`
	PlotIDs      []string       `json:"plot_ids"`
	ObjectIDs    []string       `json:"object_ids"`
	Edits        []EditResponse `json:"edits"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ToResponse: includeContent=false bỏ content (list không cần)
func (c *Chapter) ToResponse(includeContent bool) *ChapterResponse {
	edits := make([]EditResponse, 0, len(c.Edits))
	for _, e := range c.Edits {
		edits = append(edits, EditResponse{Timestamp: e.Timestamp, EditorID: e.EditorID.Hex(), Note: e.Note})
	}

	resp := &ChapterResponse{
		ID:           c.ID.Hex(),
		ProjectID:    c.ProjectID.Hex(),
		Title:        c.Title,
		Position:     c.Position,
		Synopsis:     c.Synopsis,
		Status:       c.Status,
		WordCount:    c.WordCount,
		CharacterIDs: ids.Hex(c.CharacterIDs),
		SettingIDs:   ids.Hex(c.SettingIDs),
		PlotIDs:      ids.Hex(c.PlotIDs),
		ObjectIDs:    ids.Hex(c.ObjectIDs),
		Edits:        edits,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if includeContent {
		content := c.Content
		resp.Content = &content
	}
	return resp
}
