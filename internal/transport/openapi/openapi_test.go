package openapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/transport/procedure"
)

type mood string

func (mood) Values() []string { return []string{"calm", "tense"} }

type getNoteRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	ID        string `json:"id" uri:"noteId"`
}

type listNotesRequest struct {
	ProjectID string `json:"project_id" uri:"id"`
	Mood      mood   `json:"mood" form:"mood"`
	shared.Pagination
}

type createNoteRequest struct {
	ProjectID string   `json:"project_id" uri:"id"`
	Text      string   `json:"text"`
	Mood      mood     `json:"mood"`
	Tags      []string `json:"tags"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Mood      mood      `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
}

type noteList struct {
	Items []*noteResponse
	Meta  shared.PageMeta
}

func (l *noteList) PageItems() any            { return l.Items }
func (l *noteList) PageMeta() shared.PageMeta { return l.Meta }

type notes struct{}

func (notes) Procedures() []*procedure.Procedure {
	return []*procedure.Procedure{
		procedure.NewQuery("note.getById", func(context.Context, shared.Caller, *getNoteRequest) (*noteResponse, error) {
			return nil, nil
		}).REST(http.MethodGet, "/projects/:id/notes/:noteId").Describe("Get one note"),
		procedure.NewQuery("note.list", func(context.Context, shared.Caller, *listNotesRequest) (*noteList, error) {
			return nil, nil
		}).REST(http.MethodGet, "/projects/:id/notes"),
		procedure.NewMutation("note.create", func(context.Context, shared.Caller, *createNoteRequest) (*noteResponse, error) {
			return nil, nil
		}).REST(http.MethodPost, "/projects/:id/notes"),
		procedure.NewQuery("note.ping", func(context.Context, shared.Caller, *shared.Empty) (*shared.Ack, error) {
			return nil, nil
		}).AllowAnonymous(),
	}
}

func build(t *testing.T) *Document {
	t.Helper()
	reg, err := procedure.NewRegistry(notes{})
	require.NoError(t, err)
	return Build(reg, Info{Title: "StoryForge", Version: "test"})
}

func TestBuildProjectsRESTPaths(t *testing.T) {
	doc := build(t)

	item, ok := doc.Paths["/api/v1/projects/{id}/notes/{noteId}"]
	require.True(t, ok)
	op := item["get"]
	require.NotNil(t, op)
	assert.Equal(t, "note.getById", op.OperationID)
	assert.Equal(t, []string{"note"}, op.Tags)
	assert.Equal(t, "Get one note", op.Summary)
	require.Len(t, op.Parameters, 2)
	for _, p := range op.Parameters {
		assert.Equal(t, "path", p.In)
		assert.True(t, p.Required)
	}
	assert.Nil(t, op.RequestBody)

	create := doc.Paths["/api/v1/projects/{id}/notes"]["post"]
	require.NotNil(t, create)
	assert.Contains(t, create.Responses, "201")
	require.NotNil(t, create.RequestBody)
	body := create.RequestBody.Content["application/json"].Schema
	assert.Contains(t, body.Properties, "text")
	assert.NotContains(t, body.Properties, "project_id")
	assert.Equal(t, []string{"calm", "tense"}, body.Properties["mood"].Enum)
	assert.Equal(t, "array", body.Properties["tags"].Type)
}

func TestBuildListQueryParamsAndMeta(t *testing.T) {
	doc := build(t)

	op := doc.Paths["/api/v1/projects/{id}/notes"]["get"]
	require.NotNil(t, op)

	query := map[string]bool{}
	for _, p := range op.Parameters {
		if p.In == "query" {
			query[p.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"mood": true, "page": true, "limit": true}, query)

	env := op.Responses["200"].Content["application/json"].Schema
	assert.Contains(t, env.Properties, "meta")
	assert.Equal(t, "array", env.Properties["data"].Type)
}

func TestBuildRPCOnlyAndPublic(t *testing.T) {
	doc := build(t)

	op := doc.Paths["/rpc/note.ping"]["post"]
	require.NotNil(t, op)
	require.NotNil(t, op.Security)
	assert.Empty(t, op.Security)

	assert.Nil(t, doc.Paths["/api/v1/projects/{id}/notes"]["post"].Security)
	assert.Contains(t, doc.Components.Schemas, "ErrorResponse")
	assert.Contains(t, doc.Components.SecuritySchemes, "bearerAuth")
}

func TestMountServesDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Mount(r, build(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, DocumentPath, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "3.0.3", got["openapi"])
	assert.Contains(t, got["paths"], "/rpc/note.ping")
}
