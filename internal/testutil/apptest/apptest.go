// Package apptest assembles the full procedure table on in-memory
// repositories so transport tests can drive real HTTP round trips.
package apptest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/infrastructure/ai"
	"storyforge-backend/internal/infrastructure/storage"
	"storyforge-backend/internal/shared/middleware"
	"storyforge-backend/internal/shared/response"
	"storyforge-backend/internal/testutil"
	"storyforge-backend/internal/transport/procedure"
	"storyforge-backend/internal/transport/rest"
	"storyforge-backend/internal/transport/rpc"
	pkgdb "storyforge-backend/pkg/database"
	"storyforge-backend/pkg/jwt"
	"storyforge-backend/pkg/ratelimit"

	aiHandler "storyforge-backend/internal/domains/ai/handler"
	aiService "storyforge-backend/internal/domains/ai/service"
	chapterHandler "storyforge-backend/internal/domains/chapter/handler"
	chapterService "storyforge-backend/internal/domains/chapter/service"
	characterHandler "storyforge-backend/internal/domains/character/handler"
	characterService "storyforge-backend/internal/domains/character/service"
	exportHandler "storyforge-backend/internal/domains/export/handler"
	exportService "storyforge-backend/internal/domains/export/service"
	plotHandler "storyforge-backend/internal/domains/plot/handler"
	plotService "storyforge-backend/internal/domains/plot/service"
	projectHandler "storyforge-backend/internal/domains/project/handler"
	projectService "storyforge-backend/internal/domains/project/service"
	userHandler "storyforge-backend/internal/domains/user/handler"
	userRepo "storyforge-backend/internal/domains/user/repository"
	userService "storyforge-backend/internal/domains/user/service"
)

// EchoProvider trả lại prompt, đủ để test luồng ai.* mà không gọi model thật
type EchoProvider struct{}

func (EchoProvider) Name() string { return "echo" }

func (EchoProvider) GenerateText(_ context.Context, req ai.TextRequest) (*ai.TextResult, error) {
	return &ai.TextResult{
		Content: "echo: " + req.Prompt,
		Usage:   ai.Usage{Provider: "echo", Model: "echo-1", TotalTokens: 1, EstimatedCostUSD: decimal.Zero},
	}, nil
}

func (EchoProvider) GenerateImage(context.Context, ai.ImageRequest) (*ai.ImageResult, error) {
	return nil, ai.ErrNotConfigured
}

type App struct {
	Router   *gin.Engine
	Registry *procedure.Registry
	Tokens   *jwt.Manager
	Objects  *testutil.ObjectStore
	Queue    *testutil.Enqueuer

	Users    *testutil.UserRepo
	Projects *testutil.ProjectRepo
	Chapters *testutil.ChapterRepo
}

// New dựng router giống cmd/api: middleware + REST dưới /api/v1 + RPC
func New(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &App{
		Tokens:   jwt.NewManager("test-secret", 15*time.Minute, time.Hour),
		Objects:  testutil.NewObjectStore(),
		Queue:    &testutil.Enqueuer{},
		Users:    testutil.NewUserRepo(),
		Projects: testutil.NewProjectRepo(),
		Chapters: testutil.NewChapterRepo(),
	}

	mem := testutil.NewMemoryCache()
	tokens := userRepo.NewTokenStore(mem)
	tx := pkgdb.SequentialTxManager{}
	checker := access.NewChecker(app.Projects)

	characters := testutil.NewCharacterRepo()
	plots := testutil.NewPlotRepo()
	exports := testutil.NewExportRepo()
	generations := testutil.NewGenerationRepo()

	users := userService.NewService(app.Users, tokens, app.Tokens, mem, userService.Options{BcryptCost: bcrypt.MinCost})
	projects := projectService.NewService(app.Projects, checker, app.Users, tx, app.Objects,
		projectService.Child{Collection: "characters", Deleter: characters},
		projectService.Child{Collection: "plots", Deleter: plots},
		projectService.Child{Collection: "chapters", Deleter: app.Chapters},
		projectService.Child{Collection: "exports", Deleter: exports},
		projectService.Child{Collection: "ai_generations", Deleter: generations},
	)
	exportSvc := exportService.NewService(exports, checker, app.Chapters, app.Queue, app.Objects, exportService.Options{})
	aiSvc := aiService.NewService(generations, checker, EchoProvider{}, ratelimit.NewPerMinute(600, 100),
		storage.NewImageProcessor(), app.Objects, characters)

	reg, err := procedure.NewRegistry(
		userHandler.NewHandler(users),
		projectHandler.NewHandler(projects),
		characterHandler.NewHandler(characterService.NewService(characters, checker, tx)),
		plotHandler.NewHandler(plotService.NewService(plots, checker)),
		chapterHandler.NewHandler(chapterService.NewService(app.Chapters, checker, tx)),
		exportHandler.NewHandler(exportSvc),
		aiHandler.NewHandler(aiSvc),
	)
	require.NoError(t, err)
	app.Registry = reg

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.AuthMiddleware(app.Tokens, tokens))
	rest.Mount(r.Group("/api/v1"), reg, rest.Options{})
	rpc.Mount(r, reg, rpc.Options{})
	app.Router = r
	return app
}

// Do gửi JSON request; token rỗng = anonymous
func (a *App) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

// Envelope là response.Response với Data chưa decode
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *response.Error `json:"error"`
	Meta    *response.Meta  `json:"meta"`
}

func Decode(t *testing.T, w *httptest.ResponseRecorder, data any) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// Register tạo user qua REST và trả access token
func (a *App) Register(t *testing.T, email, username string) string {
	t.Helper()
	w := a.Do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
	}
	Decode(t, w, &out)
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}
