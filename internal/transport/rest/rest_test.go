package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chapterModel "storyforge-backend/internal/domains/chapter/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/testutil/apptest"
)

func TestStoryLifecycleOverREST(t *testing.T) {
	app := apptest.New(t)
	token := app.Register(t, "writer@example.com", "writer")

	// 1. project
	w := app.Do(t, http.MethodPost, "/api/v1/projects", token, map[string]any{
		"title": "The Long Night",
		"genre": "fantasy",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project projectModel.ProjectResponse
	env := apptest.Decode(t, w, &project)
	assert.True(t, env.Success)
	assert.Equal(t, "The Long Night", project.Title)

	base := "/api/v1/projects/" + project.ID + "/chapters"

	// 2. chapter ở vị trí 0
	w = app.Do(t, http.MethodPost, base, token, map[string]any{
		"title":    "Opening",
		"position": 0,
		"content":  "Hello world",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var chapter chapterModel.ChapterResponse
	apptest.Decode(t, w, &chapter)
	assert.Equal(t, 0, chapter.Position)
	assert.Equal(t, 2, chapter.WordCount)
	assert.Equal(t, project.ID, chapter.ProjectID)
	editsBefore := len(chapter.Edits)

	// 3. content update ghi thêm một edit
	w = app.Do(t, http.MethodPut, base+"/"+chapter.ID+"/content", token, map[string]any{
		"content": "Hello brave world",
		"note":    "expand greeting",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	apptest.Decode(t, w, &chapter)
	assert.Equal(t, 3, chapter.WordCount)
	require.Len(t, chapter.Edits, editsBefore+1)
	assert.Equal(t, "expand greeting", chapter.Edits[len(chapter.Edits)-1].Note)

	// 4. list có meta phân trang
	w = app.Do(t, http.MethodGet, "/api/v1/projects?page=1&limit=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var projects []projectModel.ProjectResponse
	env = apptest.Decode(t, w, &projects)
	require.Len(t, projects, 1)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)

	// 5. xóa project kéo theo chapter
	w = app.Do(t, http.MethodDelete, "/api/v1/projects/"+project.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.Do(t, http.MethodGet, "/api/v1/projects/"+project.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env = apptest.Decode(t, w, nil)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w = app.Do(t, http.MethodGet, base+"/"+chapter.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRESTRequiresAuthentication(t *testing.T) {
	app := apptest.New(t)

	w := app.Do(t, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := apptest.Decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestRESTHidesOtherUsersProjects(t *testing.T) {
	app := apptest.New(t)
	owner := app.Register(t, "owner@example.com", "owner")
	stranger := app.Register(t, "stranger@example.com", "stranger")

	w := app.Do(t, http.MethodPost, "/api/v1/projects", owner, map[string]any{"title": "Private"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project projectModel.ProjectResponse
	apptest.Decode(t, w, &project)

	w = app.Do(t, http.MethodGet, "/api/v1/projects/"+project.ID, stranger, nil)
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, w.Code)
}

func TestRESTValidationAndMalformedInput(t *testing.T) {
	app := apptest.New(t)
	token := app.Register(t, "v@example.com", "validator")

	w := app.Do(t, http.MethodPost, "/api/v1/projects", token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := apptest.Decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w = app.Do(t, http.MethodGet, "/api/v1/projects/not-an-id", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.Do(t, http.MethodGet, "/api/v1/projects?page=4611686018427387904&limit=100", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env = apptest.Decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestRESTPathIDWinsOverBody(t *testing.T) {
	app := apptest.New(t)
	token := app.Register(t, "p@example.com", "pathwins")

	w := app.Do(t, http.MethodPost, "/api/v1/projects", token, map[string]any{"title": "Mine"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var project projectModel.ProjectResponse
	apptest.Decode(t, w, &project)

	w = app.Do(t, http.MethodPost, "/api/v1/projects/"+project.ID+"/chapters", token, map[string]any{
		"project_id": "000000000000000000000000",
		"title":      "One",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var chapter chapterModel.ChapterResponse
	apptest.Decode(t, w, &chapter)
	assert.Equal(t, project.ID, chapter.ProjectID)
}
