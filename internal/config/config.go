// Package config handles application configuration via environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port  int  `envconfig:"PORT" default:"8080"`
	Debug bool `envconfig:"DEBUG" default:"false"`

	// Database
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Cohere (embeddings and rerank)
	CohereAPIKey        string `envconfig:"COHERE_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"embed-english-v3.0"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1024"`
	RerankModel         string `envconfig:"RERANK_MODEL" default:"rerank-english-v3.0"`

	// Groq (answer synthesis)
	GroqAPIKey string `envconfig:"GROQ_API_KEY"`
	LLMModel   string `envconfig:"LLM_MODEL" default:"openai/gpt-oss-20b"`

	// Retrieval tuning
	ChunkTargetTokens  int `envconfig:"CHUNK_TARGET_TOKENS" default:"500"`
	ChunkOverlapTokens int `envconfig:"CHUNK_OVERLAP_TOKENS" default:"50"`
	OversampleK        int `envconfig:"OVERSAMPLE_K" default:"200"`
	FinalK             int `envconfig:"FINAL_K" default:"12"`

	// Upstream timeouts
	EmbedTimeout  time.Duration `envconfig:"EMBED_TIMEOUT" default:"15s"`
	RerankTimeout time.Duration `envconfig:"RERANK_TIMEOUT" default:"15s"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	// Audit
	AuditQueueSize int `envconfig:"AUDIT_QUEUE_SIZE" default:"256"`

	// Sentry
	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`

	// S3 (document source storage)
	S3Bucket          string `envconfig:"S3_BUCKET" default:"loom-documents"`
	S3Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first (ignored if not present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LOOM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.ChunkOverlapTokens >= cfg.ChunkTargetTokens {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk target (%d)", cfg.ChunkOverlapTokens, cfg.ChunkTargetTokens)
	}
	if cfg.FinalK > cfg.OversampleK {
		return nil, fmt.Errorf("final k (%d) cannot exceed oversample k (%d)", cfg.FinalK, cfg.OversampleK)
	}

	return &cfg, nil
}

// HasCohere reports whether embedding and rerank calls are configured.
func (c *Config) HasCohere() bool {
	return c.CohereAPIKey != ""
}

// HasGroq reports whether answer synthesis is configured.
func (c *Config) HasGroq() bool {
	return c.GroqAPIKey != ""
}

// HasS3 reports whether S3 source storage is configured.
func (c *Config) HasS3() bool {
	return c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}
