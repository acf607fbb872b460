package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Index backends selectable via KIOSK_INDEX_BACKEND.
const (
	IndexBackendFile     = "file"
	IndexBackendPostgres = "postgres"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	// AdminToken, when set, protects the rebuild endpoint.
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	// Corpus and index locations on the kiosk's local disk.
	CorpusDir string `envconfig:"CORPUS_DIR" default:"data/corpus"`
	IndexDir  string `envconfig:"INDEX_DIR" default:"data/vectorstore"`

	// IndexBackend selects where passage vectors live: "file" keeps the
	// original on-disk flat index, "postgres" uses pgvector.
	IndexBackend string `envconfig:"INDEX_BACKEND" default:"file"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"250"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"25"`

	// Embedding calls during a rebuild are batched and rate limited to
	// stay inside the OpenAI tier limits.
	EmbedBatchSize        int     `envconfig:"EMBED_BATCH_SIZE" default:"64"`
	EmbedBatchesPerSecond float64 `envconfig:"EMBED_BATCHES_PER_SECOND" default:"2"`

	RetrievalTopK  int     `envconfig:"RETRIEVAL_TOP_K" default:"4"`
	ScoreThreshold float64 `envconfig:"SCORE_THRESHOLD" default:"0"`
	HistoryWindow  int     `envconfig:"HISTORY_WINDOW" default:"6"`

	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"en"`

	// RebuildInterval > 0 starts the background corpus rebuild worker.
	// The kiosk's event listings are refreshed weekly upstream.
	RebuildInterval time.Duration `envconfig:"REBUILD_INTERVAL" default:"0"`

	// SessionIdleTTL controls eviction of abandoned kiosk sessions.
	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	// Optional S3-compatible bucket the scraper publishes corpus
	// snapshots to.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"kiosk-corpus"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("KIOSK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.IndexBackend == IndexBackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("KIOSK_DATABASE_URL is required with the postgres index backend")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) UsesPostgresIndex() bool {
	return c.IndexBackend == IndexBackendPostgres
}
