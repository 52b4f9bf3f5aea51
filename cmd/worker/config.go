package main

import (
	"log"
	"os"

	"storyforge-backend/internal/config"
)

// Config holds worker-only settings; shared settings come from config.Load
type Config struct {
	RedisAddr   string
	Concurrency int
	HealthAddr  string
}

// loadConfig derives worker configuration from the application config
func loadConfig(app *config.Config) *Config {
	cfg := &Config{
		RedisAddr:   app.Redis.Host,
		Concurrency: app.Export.WorkerConcur,
		HealthAddr:  getEnv("WORKER_HEALTH_ADDR", ":9999"),
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	log.Printf("[Config] Redis: %s, Concurrency: %d, Health: %s",
		cfg.RedisAddr, cfg.Concurrency, cfg.HealthAddr)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
