package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storyforge-backend/internal/config"
	"storyforge-backend/pkg/container"
)

const shutdownGrace = 10 * time.Second

// Serve dựng container, mở HTTP server và chờ SIGINT/SIGTERM để tắt.
func Serve() {
	app, err := container.NewContainer()
	if err != nil {
		log.Fatalf("❌ Container init failed: %v", err)
	}
	defer app.Cleanup()

	srv := newHTTPServer(app.Config, SetupRouter(app))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		base := "http://localhost" + srv.Addr
		log.Printf("🚀 Listening on %s", base)
		log.Printf("💚 Health:  %s/api/v1/health", base)
		log.Printf("📖 Swagger: %s/swagger/index.html", base)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ HTTP server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Signal received, draining requests...")

	// request AI đang chạy được chờ tới hết timeout của provider
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(app.Config))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Forced shutdown: %v", err)
		return
	}
	log.Println("✅ API stopped")
}

// newHTTPServer: write timeout phải dài hơn AI timeout, nếu không response
// generate sẽ bị cắt giữa chừng
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.AI.Timeout > shutdownGrace {
		return cfg.AI.Timeout
	}
	return shutdownGrace
}
