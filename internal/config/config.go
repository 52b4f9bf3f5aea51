package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App       AppConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	MinIO     MinIOConfig
	AI        AIConfig
	Export    ExportConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	SMTP      SMTPConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	// PublicBaseURL is embedded in generated links (OpenAPI servers block)
	PublicBaseURL string
}

type MongoConfig struct {
	URI      string
	Database string
	// Transactions bật multi-document transaction (cần replica set)
	Transactions   bool
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxRetries     int
	RetryDelay     time.Duration
	MaxRetryDelay  time.Duration
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
	// ResetTokenExpiry là TTL của password reset token (minutes)
	ResetTokenExpiry int
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string // minioadmin
	SecretKey string // minioadmin
	Bucket    string // storyforge
	UseSSL    bool   // false for local
	// PresignExpiry là thời hạn của download URL
	PresignExpiry time.Duration
}

// =====================================================
// AI CONFIGURATION
// =====================================================

type AIConfig struct {
	Provider string // gemini, openai
	Timeout  time.Duration

	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIImageModel string

	// Pricing per 1K tokens (USD), dùng cho cost estimation
	InputPricePer1K  string
	OutputPricePer1K string

	// Per-user limiter cho ai.* procedures
	RequestsPerMinute int
	Burst             int
}

type ExportConfig struct {
	// ProcessDelay mô phỏng thời gian render file
	ProcessDelay time.Duration
	// StaleAfter: export còn pending quá lâu sẽ được enqueue lại
	StaleAfter   time.Duration
	RequeueCron  string
	MaxRetry     int
	WorkerConcur int
	// DownloadTTL là thời hạn của presigned URL trả về khi download
	DownloadTTL time.Duration
}

type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SMTPConfig cho worker gửi password reset email (Mailpit/MailHog ở local)
type SMTPConfig struct {
	Host string
	Port string
	From string
	// Enabled=false: forgotPassword không enqueue email
	Enabled bool
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:          getEnv("APP_NAME", "StoryForge API"),
			Environment:   getEnv("APP_ENV", "development"),
			Port:          getEnv("APP_PORT", "8080"),
			Version:       getEnv("APP_VERSION", "1.0.0"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "storyforge"),
			Transactions:   getEnvBool("MONGO_TRANSACTIONS", false),
			MaxPoolSize:    uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 50)),
			MinPoolSize:    uint64(getEnvInt("MONGO_MIN_POOL_SIZE", 5)),
			MaxRetries:     getEnvInt("MONGO_MAX_RETRIES", 5),
			RetryDelay:     getEnvDuration("MONGO_RETRY_DELAY", time.Second),
			MaxRetryDelay:  getEnvDuration("MONGO_MAX_RETRY_DELAY", 15*time.Second),
			ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),  // 15 minutes
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72), // 3 days
			ResetTokenExpiry:   getEnvInt("JWT_RESET_EXPIRY", 30),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:     getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:        getEnv("MINIO_BUCKET", "storyforge"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PresignExpiry: getEnvDuration("MINIO_PRESIGN_EXPIRY", 15*time.Minute),
		},
		AI: AIConfig{
			Provider:          getEnv("AI_PROVIDER", "gemini"),
			Timeout:           getEnvDuration("AI_TIMEOUT", 60*time.Second),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "imagen-3.0-generate-002"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIImageModel:  getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			InputPricePer1K:   getEnv("AI_INPUT_PRICE_PER_1K", "0.00015"),
			OutputPricePer1K:  getEnv("AI_OUTPUT_PRICE_PER_1K", "0.0006"),
			RequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 20),
			Burst:             getEnvInt("AI_BURST", 5),
		},
		Export: ExportConfig{
			ProcessDelay: getEnvDuration("EXPORT_PROCESS_DELAY", 5*time.Second),
			StaleAfter:   getEnvDuration("EXPORT_STALE_AFTER", 10*time.Minute),
			RequeueCron:  getEnv("EXPORT_REQUEUE_CRON", "*/5 * * * *"),
			MaxRetry:     getEnvInt("EXPORT_MAX_RETRY", 3),
			WorkerConcur: getEnvInt("WORKER_CONCURRENCY", 10),
			DownloadTTL:  getEnvDuration("EXPORT_DOWNLOAD_TTL", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			AuthRequests: getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 10),
			AuthWindow:   getEnvDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		SMTP: SMTPConfig{
			Host:    getEnv("SMTP_HOST", "localhost"),
			Port:    getEnv("SMTP_PORT", "1025"),
			From:    getEnv("SMTP_FROM", "noreply@storyforge.dev"),
			Enabled: getEnvBool("SMTP_ENABLED", true),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.JWT.AccessTokenExpiry <= 0 || c.JWT.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.AI.Provider == "gemini" && c.AI.GeminiAPIKey == "" {
			fmt.Println("WARNING: GEMINI_API_KEY not set - AI generation will fail")
		}
		if c.AI.Provider == "openai" && c.AI.OpenAIAPIKey == "" {
			fmt.Println("WARNING: OPENAI_API_KEY not set - AI generation will fail")
		}
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
