package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConfigDefaults(t *testing.T) {
	cfg := ConfigInput{}.ToConfig()
	assert.True(t, cfg.IncludeTitlePage)
	assert.True(t, cfg.IncludeTableOfContents)
	assert.False(t, cfg.IncludeCharacterList)
	assert.Equal(t, PageA4, cfg.PageSize)
	assert.Equal(t, "Georgia", cfg.FontFamily)
	assert.Equal(t, 12, cfg.FontSize)

	off := false
	size := Page6x9
	cfg = ConfigInput{IncludeTitlePage: &off, PageSize: &size}.ToConfig()
	assert.False(t, cfg.IncludeTitlePage)
	assert.Equal(t, Page6x9, cfg.PageSize)
}

func TestCreateExportValidation(t *testing.T) {
	pid := primitive.NewObjectID().Hex()
	assert.Error(t, (&CreateExportRequest{ProjectID: pid}).Validate())
	assert.Error(t, (&CreateExportRequest{ProjectID: pid, Format: "rtf"}).Validate())

	tooBig := 25
	assert.Error(t, (&CreateExportRequest{ProjectID: pid, Format: FormatPDF, Config: ConfigInput{FontSize: &tooBig}}).Validate())

	ok := 8
	assert.NoError(t, (&CreateExportRequest{ProjectID: pid, Format: FormatEPUB, Config: ConfigInput{FontSize: &ok}}).Validate())
}

func TestFileNaming(t *testing.T) {
	assert.Equal(t, "the-long-night", Slug("  The Long Night!! "))
	assert.Equal(t, "chapter-1-2", Slug("Chapter 1/2"))
	assert.Equal(t, "export", Slug("???"))
	assert.Equal(t, "dem-dai", Slug("Đêm Dài"))

	e := &Export{ID: primitive.NewObjectID(), ProjectID: primitive.NewObjectID(), Title: "My Book", Format: FormatMarkdown}
	assert.Equal(t, "my-book.md", e.FileName())
	assert.Equal(t, "projects/"+e.ProjectID.Hex()+"/exports/"+e.ID.Hex()+"/my-book.md", e.ObjectKey())
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}
