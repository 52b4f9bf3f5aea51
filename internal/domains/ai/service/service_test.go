package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/ai/model"
	charModel "storyforge-backend/internal/domains/character/model"
	projectModel "storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/infrastructure/ai"
	"storyforge-backend/internal/infrastructure/storage"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/testutil"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) GenerateText(ctx context.Context, req ai.TextRequest) (*ai.TextResult, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*ai.TextResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.ImageResult, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*ai.ImageResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type fakeLimiter struct {
	deny bool
	keys []string
}

func (l *fakeLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return !l.deny
}

type fixture struct {
	svc        Service
	repo       *testutil.GenerationRepo
	characters *testutil.CharacterRepo
	objects    *testutil.ObjectStore
	provider   *mockProvider
	limiter    *fakeLimiter
	project    *projectModel.Project
	owner      shared.Caller
	viewer     shared.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	projects := testutil.NewProjectRepo()
	owner, viewer := primitive.NewObjectID(), primitive.NewObjectID()
	p := projects.Seed(owner, projectModel.Collaborator{UserID: viewer, Role: projectModel.RoleViewer})

	f := &fixture{
		repo:       testutil.NewGenerationRepo(),
		characters: testutil.NewCharacterRepo(),
		objects:    testutil.NewObjectStore(),
		provider:   &mockProvider{},
		limiter:    &fakeLimiter{},
		project:    p,
		owner:      shared.Caller{UserID: owner.Hex()},
		viewer:     shared.Caller{UserID: viewer.Hex()},
	}
	f.svc = NewService(f.repo, access.NewChecker(projects), f.provider, f.limiter,
		storage.NewImageProcessor(), f.objects, f.characters)
	return f
}

func textResult(content string) *ai.TextResult {
	return &ai.TextResult{
		Content: content,
		Usage: ai.Usage{
			Provider:         "mock",
			Model:            "m-1",
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
			EstimatedCostUSD: decimal.RequireFromString("0.0015"),
			Latency:          120 * time.Millisecond,
		},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerateContentStoresGeneration(t *testing.T) {
	f := newFixture(t)
	temp := 0.7
	f.provider.On("GenerateText", mock.Anything, mock.MatchedBy(func(req ai.TextRequest) bool {
		return !req.JSON &&
			req.Prompt == "Previous passage:\nIt was dark.\n\nTask:\nContinue" &&
			req.Params.Temperature != nil && *req.Params.Temperature == temp
	})).Return(textResult("The storm broke."), nil).Once()

	out, err := f.svc.GenerateContent(context.Background(), f.owner, &model.GenerateContentRequest{
		ProjectID: f.project.ID.Hex(),
		Prompt:    "Continue",
		Context:   "It was dark.",
		Params:    model.Params{Temperature: &temp},
	})
	require.NoError(t, err)
	f.provider.AssertExpectations(t)

	assert.Equal(t, model.TypeContent, out.Type)
	assert.Equal(t, "The storm broke.", out.Content)
	assert.Equal(t, "Continue", out.Prompt)
	assert.Equal(t, f.owner.UserID, out.UserID)
	assert.Equal(t, 0.7, out.Parameters["temperature"])
	require.NotNil(t, out.Usage)
	assert.Equal(t, 15, out.Usage.TotalTokens)
	assert.Equal(t, "0.001500", out.Usage.EstimatedCostUSD)
	assert.Equal(t, int64(120), out.Usage.LatencyMs)
	assert.False(t, out.Saved)
	assert.Equal(t, []string{f.owner.UserID}, f.limiter.keys)

	stored, err := f.svc.GetByID(context.Background(), f.viewer, &model.GetGenerationRequest{
		ProjectID: f.project.ID.Hex(), ID: out.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "The storm broke.", stored.Content)
}

func TestGenerateProviderFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GenerateText", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 503")).Once()

	_, err := f.svc.GenerateContent(context.Background(), f.owner, &model.GenerateContentRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "x",
	})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInternal, appErr.Kind)
	assert.ErrorContains(t, errors.Unwrap(appErr), "upstream 503")
	assert.Zero(t, f.repo.Len())
}

func TestGenerateRequiresWriteAndQuota(t *testing.T) {
	f := newFixture(t)
	req := &model.GenerateContentRequest{ProjectID: f.project.ID.Hex(), Prompt: "x"}

	_, err := f.svc.GenerateContent(context.Background(), f.viewer, req)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.GenerateContent(context.Background(), shared.Anonymous, req)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	f.limiter.deny = true
	_, err = f.svc.GenerateContent(context.Background(), f.owner, req)
	assert.True(t, apperror.IsKind(err, apperror.KindTooManyRequests))

	f.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestGenerateContentValidation(t *testing.T) {
	f := newFixture(t)
	tooHot := 3.0
	cases := map[string]*model.GenerateContentRequest{
		"missing prompt": {ProjectID: f.project.ID.Hex()},
		"image type":     {ProjectID: f.project.ID.Hex(), Prompt: "x", Type: model.TypeImage},
		"temperature":    {ProjectID: f.project.ID.Hex(), Prompt: "x", Params: model.Params{Temperature: &tooHot}},
		"bad parent id":  {ProjectID: f.project.ID.Hex(), Prompt: "x", ParentID: "nope"},
		"bad project id": {ProjectID: "nope", Prompt: "x"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.GenerateContent(context.Background(), f.owner, req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation), "got %v", err)
		})
	}
}

func TestGenerateCharacterParsesFencedJSON(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GenerateText", mock.Anything, mock.MatchedBy(func(req ai.TextRequest) bool {
		return req.JSON
	})).Return(textResult("```json\n{\"name\": \"Mira\", \"role\": \"protagonist\"}\n```"), nil).Once()

	out, err := f.svc.GenerateCharacter(context.Background(), f.owner, &model.GenerateCharacterRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "A lighthouse keeper", Role: "protagonist",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypeCharacter, out.Type)
	assert.Equal(t, "Mira", out.Structured["name"])
}

func TestGeneratePlotKeepsRawContentWhenNotJSON(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GenerateText", mock.Anything, mock.Anything).Return(textResult("Act one: ..."), nil).Once()

	out, err := f.svc.GeneratePlot(context.Background(), f.owner, &model.GeneratePlotRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "heist",
	})
	require.NoError(t, err)
	assert.Equal(t, "Act one: ...", out.Content)
	assert.Nil(t, out.Structured)
}

func TestGenerationChainRequiresParentInProject(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GenerateText", mock.Anything, mock.Anything).Return(textResult("ok"), nil)

	first, err := f.svc.GenerateContent(context.Background(), f.owner, &model.GenerateContentRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "draft",
	})
	require.NoError(t, err)

	second, err := f.svc.GenerateContent(context.Background(), f.owner, &model.GenerateContentRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "revise", ParentID: first.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ParentID)

	_, err = f.svc.GenerateContent(context.Background(), f.owner, &model.GenerateContentRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "revise", ParentID: primitive.NewObjectID().Hex(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGenerateImageUploadsVariantsAndAttachesCharacter(t *testing.T) {
	f := newFixture(t)
	c := &charModel.Character{ProjectID: f.project.ID, Name: "Mira"}
	require.NoError(t, f.characters.Create(context.Background(), c))

	f.provider.On("GenerateImage", mock.Anything, mock.MatchedBy(func(req ai.ImageRequest) bool {
		return req.Width == 512 && req.Height == 1024
	})).Return(&ai.ImageResult{Data: pngBytes(t, 64, 128), MIMEType: "image/png", Usage: ai.Usage{Provider: "mock"}}, nil).Once()

	out, err := f.svc.GenerateImage(context.Background(), f.owner, &model.GenerateImageRequest{
		ProjectID:   f.project.ID.Hex(),
		Prompt:      "portrait",
		Width:       512,
		CharacterID: c.ID.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypeImage, out.Type)
	assert.Equal(t, c.ID.Hex(), out.Parameters["character_id"])

	prefix := projectModel.ObjectPrefix(f.project.ID) + "ai/" + out.ID + "/"
	assert.Equal(t, []string{prefix + "full.jpg", prefix + "thumbnail.jpg"}, f.objects.Keys())
	assert.Equal(t, "http://objects.test/"+prefix+"full.jpg", out.ImageURL)

	stored, err := f.characters.FindByID(context.Background(), f.project.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ImageURL, stored.ImageURL)

	// delete dọn luôn ảnh
	_, err = f.svc.Delete(context.Background(), f.owner, &model.DeleteGenerationRequest{
		ProjectID: f.project.ID.Hex(), ID: out.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, f.objects.Keys())
}

func TestGenerateImageRejectsForeignCharacterBeforeCallingProvider(t *testing.T) {
	f := newFixture(t)
	c := &charModel.Character{ProjectID: primitive.NewObjectID(), Name: "Elsewhere"}
	require.NoError(t, f.characters.Create(context.Background(), c))

	_, err := f.svc.GenerateImage(context.Background(), f.owner, &model.GenerateImageRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "portrait", CharacterID: c.ID.Hex(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	f.provider.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
}

func TestGenerateImageRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GenerateImage", mock.Anything, mock.Anything).
		Return(&ai.ImageResult{Data: []byte("not an image")}, nil).Once()

	_, err := f.svc.GenerateImage(context.Background(), f.owner, &model.GenerateImageRequest{
		ProjectID: f.project.ID.Hex(), Prompt: "x",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindInternal))
	assert.Empty(t, f.objects.Keys())
	assert.Zero(t, f.repo.Len())
}

func TestSaveToggleListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.project.ID.Hex()

	saved, err := f.svc.SaveGeneration(ctx, f.owner, &model.SaveGenerationRequest{
		ProjectID: pid, Type: model.TypeDialogue, Prompt: "banter", Content: "edited text",
		Parameters: map[string]interface{}{"source": "manual"},
	})
	require.NoError(t, err)
	assert.True(t, saved.Saved)

	_, err = f.svc.SaveGeneration(ctx, f.owner, &model.SaveGenerationRequest{
		ProjectID: pid, Type: model.TypeContent, Prompt: "p", Content: "c",
	})
	require.NoError(t, err)

	// nil saved = đảo trạng thái
	toggled, err := f.svc.ToggleSaved(ctx, f.owner, &model.ToggleSavedRequest{ProjectID: pid, ID: saved.ID})
	require.NoError(t, err)
	assert.False(t, toggled.Saved)

	yes := true
	toggled, err = f.svc.ToggleSaved(ctx, f.owner, &model.ToggleSavedRequest{ProjectID: pid, ID: saved.ID, Saved: &yes})
	require.NoError(t, err)
	assert.True(t, toggled.Saved)

	list, err := f.svc.ListByProject(ctx, f.viewer, &model.ListGenerationsRequest{ProjectID: pid})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, model.TypeContent, list.Items[0].Type, "newest first")
	assert.Equal(t, int64(2), list.Meta.Total)

	list, err = f.svc.ListByProject(ctx, f.viewer, &model.ListGenerationsRequest{ProjectID: pid, Type: model.TypeDialogue})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "edited text", list.Items[0].Content)

	_, err = f.svc.Delete(ctx, f.viewer, &model.DeleteGenerationRequest{ProjectID: pid, ID: saved.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.Delete(ctx, f.owner, &model.DeleteGenerationRequest{ProjectID: pid, ID: saved.ID})
	require.NoError(t, err)
	_, err = f.svc.GetByID(ctx, f.owner, &model.GetGenerationRequest{ProjectID: pid, ID: saved.ID})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetByIDIsScopedToProject(t *testing.T) {
	f := newFixture(t)
	g := &model.Generation{ProjectID: primitive.NewObjectID(), Type: model.TypeContent, Content: "x"}
	require.NoError(t, f.repo.Create(context.Background(), g))

	_, err := f.svc.GetByID(context.Background(), f.owner, &model.GetGenerationRequest{
		ProjectID: f.project.ID.Hex(), ID: g.ID.Hex(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1} `))
}

func TestSystemPromptSkipsEmptyDetails(t *testing.T) {
	p := &projectModel.Project{Title: "Tides", Genre: projectModel.GenreFantasy, Tone: "wistful"}
	got := systemPrompt(p, "")
	assert.Contains(t, got, "Project: Tides")
	assert.Contains(t, got, "Genre: fantasy")
	assert.Contains(t, got, "Tone: wistful")
	assert.NotContains(t, got, "Style:")
}
