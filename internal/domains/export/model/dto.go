package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/ids"
)

const (
	MaxChapters         = 1000
	MaxFontFamilyLength = 100
)

// =====================================================
// REQUESTS
// =====================================================

// ConfigInput: field nil dùng default (title page + toc bật, a4, Georgia 12)
type ConfigInput struct {
	ChapterIDs             []string  `json:"chapter_ids"`
	IncludeTitlePage       *bool     `json:"include_title_page"`
	IncludeTableOfContents *bool     `json:"include_table_of_contents"`
	IncludeCharacterList   *bool     `json:"include_character_list"`
	PageSize               *PageSize `json:"page_size"`
	FontFamily             *string   `json:"font_family"`
	FontSize               *int      `json:"font_size"`
}

func (c ConfigInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ChapterIDs, validation.Length(0, MaxChapters), validation.By(ids.AllValid)),
		validation.Field(&c.PageSize),
		validation.Field(&c.FontFamily, validation.NilOrNotEmpty, validation.Length(1, MaxFontFamilyLength)),
		validation.Field(&c.FontSize, validation.Min(MinFontSize), validation.Max(MaxFontSize)),
	)
}

// ToConfig áp default; chapter ids được service resolve riêng
func (c ConfigInput) ToConfig() Config {
	cfg := Config{
		ChapterIDs:             []primitive.ObjectID{},
		IncludeTitlePage:       true,
		IncludeTableOfContents: true,
		IncludeCharacterList:   false,
		PageSize:               PageA4,
		FontFamily:             DefaultFontFamily,
		FontSize:               DefaultFontSize,
	}
	if c.IncludeTitlePage != nil {
		cfg.IncludeTitlePage = *c.IncludeTitlePage
	}
	if c.IncludeTableOfContents != nil {
		cfg.IncludeTableOfContents = *c.IncludeTableOfContents
	}
	if c.IncludeCharacterList != nil {
		cfg.IncludeCharacterList = *c.IncludeCharacterList
	}
	if c.PageSize != nil {
		cfg.PageSize = *c.PageSize
	}
	if c.FontFamily != nil {
		cfg.FontFamily = strings.TrimSpace(*c.FontFamily)
	}
	if c.FontSize != nil {
		cfg.FontSize = *c.FontSize
	}
	return cfg
}

type CreateExportRequest struct {
	ProjectID string      `json:"project_id" uri:"id"`
	Format    Format      `json:"format"`
	Config    ConfigInput `json:"config"`
}

func (r *CreateExportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Format, validation.Required),
		validation.Field(&r.Config),
	)
}

type ListExportsRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Status    Status `json:"status" form:"status"`
	shared.Pagination
}

func (r *ListExportsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.Status),
		validation.Field(&r.Page, validation.Min(0), validation.Max(shared.MaxPage)),
		validation.Field(&r.Limit, validation.Min(0)),
	)
}

type GetExportRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"exportId"`
}

func (r *GetExportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID, validation.Required, validation.By(ids.IsValid)),
		validation.Field(&r.ID, validation.Required, validation.By(ids.IsValid)),
	)
}

type (
	DownloadExportRequest = GetExportRequest
	DeleteExportRequest   = GetExportRequest
)

// =====================================================
// RESPONSE DTOs
// =====================================================

type ConfigResponse struct {
	ChapterIDs             []string `json:"chapter_ids"`
	IncludeTitlePage       bool     `json:"include_title_page"`
	IncludeTableOfContents bool     `json:"include_table_of_contents"`
	IncludeCharacterList   bool     `json:"include_character_list"`
	PageSize               PageSize `json:"page_size"`
	FontFamily             string   `json:"font_family"`
	FontSize               int      `json:"font_size"`
}

type JobResponse struct {
	TaskID     string     `json:"task_id,omitempty"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt *time.Time `json:"enqueued_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

type ExportResponse struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	RequestedBy   string         `json:"requested_by"`
	Format        Format         `json:"format"`
	Config        ConfigResponse `json:"config"`
	Status        Status         `json:"status"`
	FileName      string         `json:"file_name"`
	FileURL       string         `json:"file_url,omitempty"`
	FileSize      int64          `json:"file_size"`
	DownloadCount int            `json:"download_count"`
	Job           JobResponse    `json:"job"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (e *Export) ToResponse() *ExportResponse {
	return &ExportResponse{
		ID:          e.ID.Hex(),
		ProjectID:   e.ProjectID.Hex(),
		RequestedBy: e.RequestedBy.Hex(),
		Format:      e.Format,
		Config: ConfigResponse{
			ChapterIDs:             ids.Hex(e.Config.ChapterIDs),
			IncludeTitlePage:       e.Config.IncludeTitlePage,
			IncludeTableOfContents: e.Config.IncludeTableOfContents,
			IncludeCharacterList:   e.Config.IncludeCharacterList,
			PageSize:               e.Config.PageSize,
			FontFamily:             e.Config.FontFamily,
			FontSize:               e.Config.FontSize,
		},
		Status:        e.Status,
		FileName:      e.FileName(),
		FileURL:       e.FileURL,
		FileSize:      e.FileSize,
		DownloadCount: e.DownloadCount,
		Job: JobResponse{
			TaskID:     e.Job.TaskID,
			Attempts:   e.Job.Attempts,
			EnqueuedAt: e.Job.EnqueuedAt,
			StartedAt:  e.Job.StartedAt,
			FinishedAt: e.Job.FinishedAt,
			LastError:  e.Job.LastError,
		},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

type ExportList struct {
	Items []*ExportResponse `json:"items"`
	Meta  shared.PageMeta   `json:"meta"`
}

func (l *ExportList) PageItems() any            { return l.Items }
func (l *ExportList) PageMeta() shared.PageMeta { return l.Meta }

// DownloadResponse trả presigned URL thay vì stream file qua API
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileName  string    `json:"file_name"`
	Format    Format    `json:"format"`
	FileSize  int64     `json:"file_size"`
}
