package middleware

import (
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/shared/response"
	"storyforge-backend/internal/shared/utils"
)

// AuthRateLimit giới hạn số request/IP cho các auth endpoints (login,
// register, forgot password). Counter lưu trong Redis nên áp dụng chung
// cho mọi API instance.
func AuthRateLimit(client *redis.Client, limit uint, window time.Duration) gin.HandlerFunc {
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: client,
		Rate:        window,
		Limit:       limit,
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			log.Warn().
				Str("ip", utils.ExtractClientIP(c)).
				Time("reset_time", info.ResetTime).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit exceeded")

			response.TooManyRequests(c, "Too many requests. Try again in "+time.Until(info.ResetTime).Round(time.Second).String())
			c.Abort()
		},
		KeyFunc: func(c *gin.Context) string {
			return utils.ExtractClientIP(c)
		},
	})
}
