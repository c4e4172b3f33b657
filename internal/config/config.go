package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds Redis settings shared by the result cache,
// the rate limiter, and the job status mirror.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ModelConfig holds inference backend settings.
// Backend selects the engine: "gemini" (remote VL model) or "tesseract"
// (local fallback, images only).
type ModelConfig struct {
	Backend   string
	Name      string
	APIKey    string
	MaxTokens int
	Prompt    string
}

// ProcessingConfig holds document preparation limits.
type ProcessingConfig struct {
	MaxImageSize  int
	MaxFileSizeMB int
}

// AuthConfig holds API key authentication settings.
// An empty Key disables authentication.
type AuthConfig struct {
	Key string
}

// RateLimitConfig holds fixed-window rate limiter settings.
type RateLimitConfig struct {
	Requests  int
	WindowSec int
}

// QueueConfig holds background worker pool settings.
type QueueConfig struct {
	Workers         int
	MaxRetries      int
	RetryBackoffSec int
}

// WebhookConfig holds completion callback settings.
type WebhookConfig struct {
	Secret      string
	TimeoutSec  int
	MaxAttempts int
}

// CacheConfig holds OCR result cache settings.
type CacheConfig struct {
	Enabled bool
	TTLSec  int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Redis      RedisConfig
	Model      ModelConfig
	Processing ProcessingConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Queue      QueueConfig
	Webhook    WebhookConfig
	Cache      CacheConfig
}

// DefaultPrompt is the instruction sent to the VL model alongside each page.
// The model is asked to annotate non-text content with markers the output
// parser understands: HTML tables, LaTeX equations, <img>, <watermark>,
// <page_number>, and ☐/☑ checkboxes.
const DefaultPrompt = `Extract the text from the above document as if you were reading it naturally. Return the tables in html format. Return the equations in LaTeX representation. If there is an image in the document and image caption is not present, add a small description of the image inside the <img></img> tag; otherwise, add the image caption inside <img></img>. Watermarks should be wrapped in brackets. Ex: <watermark>OFFICIAL COPY</watermark>. Page numbers should be wrapped in brackets. Ex: <page_number>14</page_number> or <page_number>9/22</page_number>. Prefer using ☐ and ☑ for check boxes.`

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Model: ModelConfig{
			Backend:   getEnv("MODEL_BACKEND", "gemini"),
			Name:      getEnv("MODEL_NAME", "gemini-2.5-flash"),
			APIKey:    getEnv("MODEL_API_KEY", ""),
			MaxTokens: getEnvInt("MODEL_MAX_TOKENS", 2048),
			Prompt:    getEnv("MODEL_PROMPT", DefaultPrompt),
		},
		Processing: ProcessingConfig{
			MaxImageSize:  getEnvInt("MAX_IMAGE_SIZE", 1536),
			MaxFileSizeMB: getEnvInt("MAX_FILE_SIZE_MB", 50),
		},
		Auth: AuthConfig{
			Key: getEnv("API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			Requests:  getEnvInt("RATE_LIMIT_REQUESTS", 100),
			WindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		},
		Queue: QueueConfig{
			Workers:         getEnvInt("QUEUE_WORKERS", 2),
			MaxRetries:      getEnvInt("QUEUE_MAX_RETRIES", 3),
			RetryBackoffSec: getEnvInt("QUEUE_RETRY_BACKOFF_SEC", 5),
		},
		Webhook: WebhookConfig{
			Secret:      getEnv("WEBHOOK_SECRET", ""),
			TimeoutSec:  getEnvInt("WEBHOOK_TIMEOUT_SEC", 10),
			MaxAttempts: getEnvInt("WEBHOOK_MAX_ATTEMPTS", 3),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("ENABLE_CACHE", true),
			TTLSec:  getEnvInt("CACHE_TTL_SEC", 3600),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
