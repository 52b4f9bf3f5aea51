package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/utils"
)

const CollectionName = "exports"

// =====================================================
// ENUMS
// =====================================================

type Format string

const (
	FormatPDF      Format = "pdf"
	FormatEPUB     Format = "epub"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var Formats = []Format{FormatPDF, FormatEPUB, FormatDOCX, FormatMarkdown, FormatHTML}

func (f Format) Values() []string { return shared.EnumStrings(Formats) }
func (f Format) Validate() error  { return shared.OneOf(f, Formats) }

func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatEPUB:
		return "application/epub+zip"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

type PageSize string

const (
	PageA4     PageSize = "a4"
	PageA5     PageSize = "a5"
	PageLetter PageSize = "letter"
	Page6x9    PageSize = "6x9"
)

var PageSizes = []PageSize{PageA4, PageA5, PageLetter, Page6x9}

func (p PageSize) Values() []string { return shared.EnumStrings(PageSizes) }
func (p PageSize) Validate() error  { return shared.OneOf(p, PageSizes) }

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

func (s Status) Values() []string { return shared.EnumStrings(Statuses) }
func (s Status) Validate() error  { return shared.OneOf(s, Statuses) }

// Terminal: completed/failed không chuyển trạng thái nữa
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// =====================================================
// ENTITY
// =====================================================

const (
	DefaultFontFamily = "Georgia"
	DefaultFontSize   = 12
	MinFontSize       = 8
	MaxFontSize       = 24
)

type Config struct {
	ChapterIDs             []primitive.ObjectID `bson:"chapter_ids"`
	IncludeTitlePage       bool                 `bson:"include_title_page"`
	IncludeTableOfContents bool                 `bson:"include_table_of_contents"`
	IncludeCharacterList   bool                 `bson:"include_character_list"`
	PageSize               PageSize             `bson:"page_size"`
	FontFamily             string               `bson:"font_family"`
	FontSize               int                  `bson:"font_size"`
}

// Job là bản ghi background job gắn trên export
type Job struct {
	TaskID     string     `bson:"task_id,omitempty"`
	Attempts   int        `bson:"attempts"`
	EnqueuedAt *time.Time `bson:"enqueued_at,omitempty"`
	StartedAt  *time.Time `bson:"started_at,omitempty"`
	FinishedAt *time.Time `bson:"finished_at,omitempty"`
	LastError  string     `bson:"last_error,omitempty"`
}

type Export struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID   primitive.ObjectID `bson:"project_id"`
	RequestedBy primitive.ObjectID `bson:"requested_by"`
	// Title là title của project lúc tạo export, dùng đặt tên file
	Title         string    `bson:"title"`
	Format        Format    `bson:"format"`
	Config        Config    `bson:"config"`
	Status        Status    `bson:"status"`
	FileURL       string    `bson:"file_url,omitempty"`
	FileKey       string    `bson:"file_key,omitempty"`
	FileSize      int64     `bson:"file_size"`
	DownloadCount int       `bson:"download_count"`
	Job           Job       `bson:"job"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// FileName là tên file người dùng nhận khi download
func (e *Export) FileName() string {
	return Slug(e.Title) + "." + e.Format.Extension()
}

// ObjectKey là key của file trong object storage
func (e *Export) ObjectKey() string {
	return fmt.Sprintf("%sexports/%s/%s", projectModel.ObjectPrefix(e.ProjectID), e.ID.Hex(), e.FileName())
}

// Slug chuyển title thành tên file an toàn, bỏ dấu tiếng Việt
func Slug(title string) string {
	if s := utils.GenerateSlug(title); s != "" {
		return s
	}
	return "export"
}
