package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-backend/internal/shared"
	"storyforge-backend/pkg/jwt"
)

type revokedSet map[string]bool

func (r revokedSet) IsAccessTokenRevoked(_ context.Context, id string) (bool, error) {
	return r[id], nil
}

func newTestRouter(tokens *jwt.Manager, revoked RevocationChecker, seen *shared.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), AuthMiddleware(tokens, revoked))
	r.GET("/whoami", func(c *gin.Context) {
		*seen = GetCaller(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAuthMiddlewareResolvesCaller(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Minute, time.Hour)
	access, claims, err := tokens.GenerateAccessToken("u1", "a@b.c", "alice")
	require.NoError(t, err)

	var seen shared.Caller
	r := newTestRouter(tokens, revokedSet{}, &seen)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, claims.ID, seen.TokenID)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddlewareFallsBackToAnonymous(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Minute, time.Hour)
	access, claims, _ := tokens.GenerateAccessToken("u1", "", "")
	refresh, _, _ := tokens.GenerateRefreshToken("u1")

	cases := map[string]struct {
		header  string
		revoked revokedSet
	}{
		"missing header":   {header: ""},
		"wrong scheme":     {header: "Basic abc"},
		"garbage token":    {header: "Bearer not-a-jwt"},
		"refresh as access": {header: "Bearer " + refresh},
		"revoked token":    {header: "Bearer " + access, revoked: revokedSet{claims.ID: true}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			seen := shared.Caller{UserID: "sentinel"}
			r := newTestRouter(tokens, tc.revoked, &seen)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)

			assert.False(t, seen.IsAuthenticated())
		})
	}
}

func TestRecoveryReturnsSystemError(t *testing.T) {
	var seen shared.Caller
	r := newTestRouter(jwt.NewManager("s", time.Minute, time.Hour), nil, &seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}
