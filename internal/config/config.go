// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the single explicit configuration value constructed once at
// startup and threaded through every service and handler. The one
// package-level mutable setting outside it is the admin JWT signing secret
// in internal/utils, which cmd/server copies from Admin.JWTSecret through
// utils.SetJWTSecret.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Storage     StorageConfig
	Ingestion   IngestionConfig
	WhatsApp    WhatsAppConfig
	Admin       AdminConfig
	LLM         LLMConfig
	Vision      VisionConfig
}

type ServerConfig struct {
	Port                 string
	Host                 string
	ReadTimeout          int
	WriteTimeout         int
	IdleTimeout          int
	ShutdownGraceSeconds int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// StorageConfig controls where uploaded artefacts are written. S3 is
// optional: when AWSAccessKeyID is empty the local-disk backend is used.
type StorageConfig struct {
	RootDir        string
	AWSRegion      string
	AWSAccessKeyID string
	AWSSecretKey   string
	S3Bucket       string
	CloudFrontURL  string
}

type IngestionConfig struct {
	DefaultCurrency                 string
	WorkerCount                     int
	QueueCapacity                   int
	EmbeddingSimilarityThreshold    float64
	EmbeddingCandidateCap           int
	DocumentMinEmbeddedTextChars    int
	StaleRunningJobThresholdMinutes int
}

type WhatsAppConfig struct {
	IngestToken            string
	HMACSecret             string
	SignatureTTLSeconds    int
	RateLimitPerMinute     float64
	RateLimitBurst         int
	ContentHashWindowHours int
	ExtractDebounceSeconds int
	MaxMessagesPerBatch    int
}

type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
}

// LLMConfig enables the LLM-assisted extraction fallback used by the
// spreadsheet and document processors when heuristic parsing fails.
type LLMConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// VisionConfig enables the vision-capable OCR fallback used by the
// document processor for image-only PDFs and raster images.
type VisionConfig struct {
	Enabled         bool
	CredentialsJSON string
	ProjectID       string
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "local"),
		Server: ServerConfig{
			Port:                 getEnv("SERVER_PORT", "8080"),
			Host:                 getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:          getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:         getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:          getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			ShutdownGraceSeconds: getEnvAsInt("SERVER_SHUTDOWN_GRACE_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "pricebot"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 20),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Storage: StorageConfig{
			RootDir:        getEnv("INGESTION_STORAGE_DIR", "./storage"),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:       getEnv("AWS_S3_BUCKET", ""),
			CloudFrontURL:  getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Ingestion: IngestionConfig{
			DefaultCurrency:                 getEnv("DEFAULT_CURRENCY", "USD"),
			WorkerCount:                     getEnvAsInt("INGESTION_WORKER_COUNT", 0),
			QueueCapacity:                   getEnvAsInt("INGESTION_QUEUE_CAPACITY", 256),
			EmbeddingSimilarityThreshold:    getEnvAsFloat("EMBEDDING_SIMILARITY_THRESHOLD", 0.86),
			EmbeddingCandidateCap:           getEnvAsInt("EMBEDDING_CANDIDATE_CAP", 50),
			DocumentMinEmbeddedTextChars:    getEnvAsInt("DOCUMENT_MIN_EMBEDDED_TEXT_CHARS", 200),
			StaleRunningJobThresholdMinutes: getEnvAsInt("STALE_RUNNING_JOB_THRESHOLD_MINUTES", 60),
		},
		WhatsApp: WhatsAppConfig{
			IngestToken:            getEnv("WHATSAPP_INGEST_TOKEN", ""),
			HMACSecret:             getEnv("WHATSAPP_INGEST_HMAC_SECRET", ""),
			SignatureTTLSeconds:    getEnvAsInt("WHATSAPP_INGEST_SIGNATURE_TTL_SECONDS", 300),
			RateLimitPerMinute:     getEnvAsFloat("WHATSAPP_INGEST_RATE_LIMIT_PER_MINUTE", 60),
			RateLimitBurst:         getEnvAsInt("WHATSAPP_INGEST_RATE_LIMIT_BURST", 10),
			ContentHashWindowHours: getEnvAsInt("WHATSAPP_CONTENT_HASH_WINDOW_HOURS", 24),
			ExtractDebounceSeconds: getEnvAsInt("WHATSAPP_EXTRACT_DEBOUNCE_SECONDS", 5),
			MaxMessagesPerBatch:    getEnvAsInt("WHATSAPP_MAX_MESSAGES_PER_BATCH", 500),
		},
		Admin: AdminConfig{
			Username:  getEnv("ADMIN_USERNAME", ""),
			Password:  getEnv("ADMIN_PASSWORD", ""),
			JWTSecret: getEnv("ADMIN_JWT_SECRET", "pricebot-dev-secret-change-in-production"),
		},
		LLM: LLMConfig{
			Enabled: getEnvAsBool("ENABLE_LLM_EXTRACTION", false),
			APIKey:  getEnv("LLM_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", "gemini-1.5-flash"),
		},
		Vision: VisionConfig{
			Enabled:         getEnvAsBool("ENABLE_VISION_EXTRACTION", false),
			CredentialsJSON: getEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
		},
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Admin.JWTSecret == "pricebot-dev-secret-change-in-production" && c.isProduction() {
		return fmt.Errorf("admin JWT secret must be changed in production")
	}
	if c.isProduction() && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production")
	}
	return nil
}

func (c *Config) isProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "prod" || env == "production"
}

// AdminAuthEnabled reports whether the admin session JWT (issued by POST
// /admin/login) is required on the document-management and WhatsApp
// chat-management routes. It is off in the local environment and whenever
// the admin username or password is unset. HTTP basic credentials are not
// accepted on those routes.
func (c *Config) AdminAuthEnabled() bool {
	if strings.ToLower(c.Environment) == "local" {
		return false
	}
	return c.Admin.Username != "" && c.Admin.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
