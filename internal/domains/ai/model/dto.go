package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/ids"
)

const (
	MaxPromptLength  = 8000
	MaxContextLength = 20000
	MaxContentLength = 200000
	MaxOutputTokens  = 8192

	MinImageSide     = 256
	MaxImageSide     = 2048
	DefaultImageSide = 1024
)

// Params là sampling knobs tùy chọn; nil = default của provider
type Params struct {
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	TopP        *float64 `json:"top_p"`
}

func (p Params) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&p.MaxTokens, validation.Min(1), validation.Max(MaxOutputTokens)),
		validation.Field(&p.TopP, validation.Min(0.0), validation.Max(1.0)),
	)
}

// AsMap là bản lưu vào Generation.Parameters
func (p Params) AsMap() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Temperature != nil {
		out["temperature"] = *p.Temperature
	}
	if p.MaxTokens != nil {
		out["max_tokens"] = *p.MaxTokens
	}
	if p.TopP != nil {
		out["top_p"] = *p.TopP
	}
	return out
}

// =====================================================
// GENERATE REQUESTS
// =====================================================

type GenerateContentRequest struct {
	ProjectID string         `json:"project_id" uri:"id"`
	Prompt    string         `json:"prompt"`
	Type      GenerationType `json:"type"`
	// Context là đoạn văn trước đó để model viết tiếp
	Context  string `json:"context"`
	ParentID string `json:"parent_id"`
	Params   Params `json:"params"`
}

func (r *GenerateContentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, MaxPromptLength)),
		validation.Field(&r.Type, validation.By(func(interface{}) error {
			return shared.OneOf(r.Type, TextTypes)
		})),
		validation.Field(&r.Context, validation.Length(0, MaxContextLength)),
		validation.Field(&r.ParentID, validation.By(ids.IsValid)),
		validation.Field(&r.Params),
	)
}

func (r *GenerateContentRequest) GenerationType() GenerationType {
	if r.Type == "" {
		return TypeContent
	}
	return r.Type
}

type GenerateCharacterRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Prompt    string `json:"prompt"`
	// Role gợi ý vai trò (protagonist, antagonist...)
	Role     string `json:"role"`
	ParentID string `json:"parent_id"`
	Params   Params `json:"params"`
}

func (r *GenerateCharacterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, MaxPromptLength)),
		validation.Field(&r.Role, validation.Length(0, 100)),
		validation.Field(&r.ParentID, validation.By(ids.IsValid)),
		validation.Field(&r.Params),
	)
}

type GeneratePlotRequest struct {
	ProjectID     string `json:"project_id" uri:"id"`
	Prompt        string `json:"prompt"`
	StructureType string `json:"structure_type"`
	ParentID      string `json:"parent_id"`
	Params        Params `json:"params"`
}

func (r *GeneratePlotRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, MaxPromptLength)),
		validation.Field(&r.StructureType, validation.Length(0, 100)),
		validation.Field(&r.ParentID, validation.By(ids.IsValid)),
		validation.Field(&r.Params),
	)
}

type GenerateImageRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Prompt    string `json:"prompt"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	// CharacterID: ảnh sinh ra thành image_url của character này
	CharacterID string `json:"character_id"`
	ParentID    string `json:"parent_id"`
}

func (r *GenerateImageRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, MaxPromptLength)),
		validation.Field(&r.Width, validation.When(r.Width != 0, validation.Min(MinImageSide), validation.Max(MaxImageSide))),
		validation.Field(&r.Height, validation.When(r.Height != 0, validation.Min(MinImageSide), validation.Max(MaxImageSide))),
		validation.Field(&r.CharacterID, validation.By(ids.IsValid)),
		validation.Field(&r.ParentID, validation.By(ids.IsValid)),
	)
}

// Size trả về kích thước đã áp default
func (r *GenerateImageRequest) Size() (int, int) {
	w, h := r.Width, r.Height
	if w == 0 {
		w = DefaultImageSide
	}
	if h == 0 {
		h = DefaultImageSide
	}
	return w, h
}

// =====================================================
// RECORD REQUESTS
// =====================================================

// SaveGenerationRequest lưu nội dung client đã chỉnh sửa thành generation mới
type SaveGenerationRequest struct {
	ProjectID  string                 `json:"project_id" uri:"id"`
	Type       GenerationType         `json:"type"`
	Prompt     string                 `json:"prompt"`
	Content    string                 `json:"content"`
	Parameters map[string]interface{} `json:"parameters"`
	ParentID   string                 `json:"parent_id"`
}

func (r *SaveGenerationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, MaxPromptLength)),
		validation.Field(&r.Content, validation.Required, validation.Length(1, MaxContentLength)),
		validation.Field(&r.ParentID, validation.By(ids.IsValid)),
	)
}

type ToggleSavedRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"generationId"`
	// Saved nil = đảo trạng thái hiện tại
	Saved *bool `json:"saved"`
}

func (r *ToggleSavedRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type ListGenerationsRequest struct {
	ProjectID string         `json:"project_id" uri:"id"`
	Type      GenerationType `json:"type" form:"type"`
	Saved     *bool          `json:"saved" form:"saved"`
	shared.Pagination
}

func (r *ListGenerationsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Type),
		validation.Field(&r.Page, validation.Min(0), validation.Max(shared.MaxPage)),
		validation.Field(&r.Limit, validation.Min(0)),
	)
}

type GetGenerationRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"generationId"`
}

func (r *GetGenerationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type DeleteGenerationRequest = GetGenerationRequest

// =====================================================
// RESPONSE DTOs
// =====================================================

type UsageResponse struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	EstimatedCostUSD string `json:"estimated_cost_usd"`
	LatencyMs        int64  `json:"latency_ms"`
}

type GenerationResponse struct {
	ID           string                 `json:"id"`
	ProjectID    string                 `json:"project_id"`
	UserID       string                 `json:"user_id"`
	Type         GenerationType         `json:"type"`
	Prompt       string                 `json:"prompt"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	Content      string                 `json:"content"`
	Structured   map[string]interface{} `json:"structured,omitempty"`
	ImageURL     string                 `json:"image_url,omitempty"`
	ThumbnailURL string                 `json:"thumbnail_url,omitempty"`
	Usage        *UsageResponse         `json:"usage,omitempty"`
	Saved        bool                   `json:"saved"`
	ParentID     string                 `json:"parent_id,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func (g *Generation) ToResponse() *GenerationResponse {
	resp := &GenerationResponse{
		ID:           g.ID.Hex(),
		ProjectID:    g.ProjectID.Hex(),
		UserID:       g.UserID.Hex(),
		Type:         g.Type,
		Prompt:       g.Prompt,
		Parameters:   g.Parameters,
		Content:      g.Content,
		Structured:   g.Structured,
		ImageURL:     g.ImageURL,
		ThumbnailURL: g.ThumbnailURL,
		Saved:        g.Saved,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.Usage != nil {
		u := UsageResponse(*g.Usage)
		resp.Usage = &u
	}
	if g.ParentID != nil {
		resp.ParentID = g.ParentID.Hex()
	}
	return resp
}

type GenerationList struct {
	Items []*GenerationResponse `json:"items"`
	Meta  shared.PageMeta       `json:"meta"`
}

func (l *GenerationList) PageItems() any            { return l.Items }
func (l *GenerationList) PageMeta() shared.PageMeta { return l.Meta }
