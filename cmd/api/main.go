// Command api chạy StoryForge HTTP server: REST /api/v1, RPC /rpc, OpenAPI docs.
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"storyforge-backend/pkg/logger"
)

func main() {
	// .env chỉ dùng khi chạy local; deploy đọc biến môi trường trực tiếp
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not loaded, falling back to process environment")
	}

	env := getEnv("APP_ENV", "development")
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Init(env, getEnv("LOG_LEVEL", "info"))

	log.Printf("✍️  StoryForge API (%s)", env)
	Serve()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
