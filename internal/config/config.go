package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	ServerPort int    `envconfig:"SERVER_PORT" default:"8080"`
	PDFPath    string `envconfig:"PDF_PATH" default:"data/diabetes.pdf"`
	IndexPath  string `envconfig:"INDEX_PATH" default:"data/index/diabetes.idx"`

	EmbedModel      string `envconfig:"EMBED_MODEL" default:"text-embedding-004"`
	GenerationModel string `envconfig:"GENERATION_MODEL" default:"gemini-2.5-flash"`

	ChunkSize            int `envconfig:"CHUNK_SIZE" default:"1000"`
	RetrievalTopK        int `envconfig:"RETRIEVAL_TOP_K" default:"4"`
	IngestionConcurrency int `envconfig:"INGESTION_CONCURRENCY" default:"4"`

	EmbedTimeoutSeconds    int `envconfig:"EMBED_TIMEOUT_SECONDS" default:"60"`
	GenerateTimeoutSeconds int `envconfig:"GENERATE_TIMEOUT_SECONDS" default:"120"`

	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"10"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
}

func Load() (*Config, error) {
	// Env vars may also come from the shell, so a missing .env is fine
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
	}
	if c.PDFPath == "" {
		return fmt.Errorf("%w: PDF_PATH", ErrMissingRequired)
	}
	if c.IndexPath == "" {
		return fmt.Errorf("%w: INDEX_PATH", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrMissingRequired)
	}
	return nil
}
