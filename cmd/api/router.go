package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"

	"storyforge-backend/internal/shared/middleware"
	"storyforge-backend/internal/shared/response"
	"storyforge-backend/internal/transport/openapi"
	"storyforge-backend/internal/transport/rest"
	"storyforge-backend/internal/transport/rpc"
	"storyforge-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// ========================================
	// METRICS
	// ========================================
	// Label theo route template, không theo URL thật (tránh cardinality nổ vì id)
	p := ginprometheus.NewPrometheus("storyforge")
	p.ReqCntURLLabelMappingFn = func(ctx *gin.Context) string {
		if path := ctx.FullPath(); path != "" {
			return path
		}
		return "unmatched"
	}
	p.Use(router)

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.CORS.AllowedOrigins),
		middleware.AuthMiddleware(c.JWTManager, c.TokenStore),
	)

	// Throttle cho login/register/refresh/password reset (Redis sliding window)
	throttle := middleware.AuthRateLimit(c.Redis.Client, uint(c.Config.RateLimit.AuthRequests), c.Config.RateLimit.AuthWindow)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))

		// Toàn bộ domain routes sinh từ procedure registry
		rest.Mount(v1, c.Registry, rest.Options{Throttle: throttle})
	}

	// ========================================
	// RPC + DOCS
	// ========================================
	rpc.Mount(router, c.Registry, rpc.Options{Throttle: throttle})

	openapi.Mount(router, openapi.Build(c.Registry, openapi.Info{
		Title:   c.Config.App.Name,
		Version: c.Config.App.Version,
	}))

	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "route not found")
	})

	return router
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.Mongo == nil || appCtx.Mongo.Client == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Mongo.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Redis == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Redis.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		// Check object storage
		storageStatus := "ok"
		if appCtx.Storage == nil {
			storageStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Storage.HealthCheck(ctx); err != nil {
				storageStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database":    dbStatus,
			"redis":       redisStatus,
			"storage":     storageStatus,
			"ai_provider": appCtx.AIProvider.Name(),
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
