package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storyforge-backend/internal/config"
)

func TestNewHTTPServerOutlivesAITimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Port = "8081"
	cfg.AI.Timeout = 90 * time.Second

	srv := newHTTPServer(cfg, nil)
	assert.Equal(t, ":8081", srv.Addr)
	assert.Greater(t, srv.WriteTimeout, cfg.AI.Timeout)
	assert.Equal(t, 90*time.Second, shutdownTimeout(cfg))

	cfg.AI.Timeout = time.Second
	assert.Equal(t, shutdownGrace, shutdownTimeout(cfg))
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("STORYFORGE_TEST_ENV", "")
	assert.Equal(t, "fallback", getEnv("STORYFORGE_TEST_ENV", "fallback"))

	t.Setenv("STORYFORGE_TEST_ENV", "set")
	assert.Equal(t, "set", getEnv("STORYFORGE_TEST_ENV", "fallback"))
}
