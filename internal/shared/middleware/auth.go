package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/shared"
	"storyforge-backend/pkg/jwt"
)

const CallerKey = "caller"

// RevocationChecker reports whether an access token (by jti) was revoked on logout.
type RevocationChecker interface {
	IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware resolve caller từ "Authorization: Bearer <token>".
// Token thiếu hoặc không hợp lệ → caller anonymous; services tự quyết định
// procedure nào cần đăng nhập.
func AuthMiddleware(tokens *jwt.Manager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := resolveCaller(c, tokens, revoked)

		c.Set(CallerKey, caller)
		c.Request = c.Request.WithContext(shared.WithCaller(c.Request.Context(), caller))

		c.Next()
	}
}

func resolveCaller(c *gin.Context, tokens *jwt.Manager, revoked RevocationChecker) shared.Caller {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return shared.Anonymous
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return shared.Anonymous
	}

	claims, err := tokens.ValidateAccessToken(strings.TrimSpace(parts[1]))
	if err != nil {
		log.Debug().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("Ignoring invalid bearer token")
		return shared.Anonymous
	}

	if revoked != nil {
		isRevoked, err := revoked.IsAccessTokenRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// Redis lỗi: không chặn request, chỉ log
			log.Warn().Err(err).Msg("Token revocation check failed")
		} else if isRevoked {
			return shared.Anonymous
		}
	}

	return shared.Caller{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		TokenID:  claims.ID,
	}
}

// GetCaller đọc caller do AuthMiddleware set
func GetCaller(c *gin.Context) shared.Caller {
	if v, ok := c.Get(CallerKey); ok {
		if caller, ok := v.(shared.Caller); ok {
			return caller
		}
	}
	return shared.CallerFrom(c.Request.Context())
}
