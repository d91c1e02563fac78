package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Vector index backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Embedder and LLM provider selections.
const (
	ProviderAuto       = "auto"
	ProviderOpenAI     = "openai"
	ProviderLocal      = "local"
	ProviderHashing    = "hashing"
	ProviderBedrock    = "bedrock"
	ProviderExtractive = "extractive"
)

// Config is read from DOCSMITH_-prefixed environment variables. envconfig
// falls back to the unprefixed name, so a plain CONFLUENCE_URL or
// OPENAI_API_KEY in .env also works.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	APIToken string `envconfig:"API_TOKEN"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`

	VectorBackend string `envconfig:"VECTOR_BACKEND" default:"memory"`
	IndexDir      string `envconfig:"INDEX_DIR" default:"./vector_store"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`

	ChunkSize            int `envconfig:"CHUNK_SIZE" default:"500"`
	ChunkOverlap         int `envconfig:"CHUNK_OVERLAP" default:"100"`
	MaxChunksPerDocument int `envconfig:"MAX_CHUNKS_PER_DOCUMENT" default:"200"`

	// ReconcileInterval schedules background reconcile passes while serving; 0 disables them.
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"10m"`

	Embedder            string `envconfig:"EMBEDDER" default:"auto"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS"`
	LocalModel          string `envconfig:"LOCAL_MODEL" default:"sentence-transformers/all-MiniLM-L6-v2"`
	ModelsDir           string `envconfig:"MODELS_DIR" default:"./models"`
	HashingDimensions   int    `envconfig:"HASHING_DIMENSIONS" default:"384"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`

	LLMProvider    string  `envconfig:"LLM_PROVIDER" default:"auto"`
	LLMModel       string  `envconfig:"LLM_MODEL"`
	LLMMaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"800"`
	LLMTemperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	BedrockModelID string  `envconfig:"BEDROCK_MODEL_ID"`
	AWSRegion      string  `envconfig:"AWS_REGION" default:"us-east-1"`

	ConfluenceURL      string  `envconfig:"CONFLUENCE_URL"`
	ConfluenceUsername string  `envconfig:"CONFLUENCE_USERNAME"`
	ConfluenceAPIToken string  `envconfig:"CONFLUENCE_API_TOKEN"`
	ConfluenceRPS      float64 `envconfig:"CONFLUENCE_RPS" default:"5"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docsmith"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	TemplatePath string `envconfig:"TEMPLATE_PATH"`
	SectionTopK  int    `envconfig:"SECTION_TOP_K" default:"4"`
	ExportDir    string `envconfig:"EXPORT_DIR" default:"./exports"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCSMITH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	c.VectorBackend = strings.ToLower(c.VectorBackend)
	c.Embedder = strings.ToLower(c.Embedder)
	c.LLMProvider = strings.ToLower(c.LLMProvider)

	switch c.VectorBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres vector backend")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend)
	}

	switch c.Embedder {
	case ProviderAuto, ProviderLocal, ProviderHashing:
	case ProviderOpenAI:
		if !c.HasOpenAI() {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedder")
		}
	default:
		return fmt.Errorf("unknown EMBEDDER %q", c.Embedder)
	}

	switch c.LLMProvider {
	case ProviderAuto, ProviderExtractive, ProviderBedrock:
	case ProviderOpenAI:
		if !c.HasOpenAI() {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai LLM provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("RECONCILE_INTERVAL cannot be negative")
	}
	if c.SectionTopK <= 0 {
		return fmt.Errorf("SECTION_TOP_K must be positive")
	}

	return nil
}

// EmbedderKind resolves "auto" to a concrete embedder: OpenAI when a key is
// set, otherwise the local sentence model.
func (c *Config) EmbedderKind() string {
	if c.Embedder == ProviderAuto || c.Embedder == "" {
		if c.HasOpenAI() {
			return ProviderOpenAI
		}
		return ProviderLocal
	}
	return c.Embedder
}

// LLMKind resolves "auto" to a concrete LLM provider.
func (c *Config) LLMKind() string {
	if c.LLMProvider == ProviderAuto || c.LLMProvider == "" {
		switch {
		case c.HasOpenAI():
			return ProviderOpenAI
		case c.BedrockModelID != "":
			return ProviderBedrock
		default:
			return ProviderExtractive
		}
	}
	return c.LLMProvider
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasConfluence() bool {
	return c.ConfluenceURL != "" && c.ConfluenceUsername != "" && c.ConfluenceAPIToken != ""
}
