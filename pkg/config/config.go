package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
)

// Supported LLM providers and database drivers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for sqlbuddy-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables and
// are never written back to disk.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// LLM endpoint configuration (generation + embedding capabilities)
	LLM LLMConfig `yaml:"llm"`

	// Target relational database to introspect and query
	Database DatabaseConfig `yaml:"database"`

	// Persisted vector index configuration
	Index IndexConfig `yaml:"index"`

	// Pipeline tunables
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LLMConfig holds settings for the text-generation and embedding capabilities.
type LLMConfig struct {
	// Provider selects the chat-completion backend: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic". Embeddings always go
	// through the OpenAI-compatible endpoint since Anthropic has no
	// embeddings API.
	Provider string `yaml:"provider" env:"SQLBUDDY_LLM_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL, e.g. "https://api.openai.com/v1".
	Endpoint string `yaml:"endpoint" env:"SQLBUDDY_LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`

	Model          string `yaml:"model" env:"SQLBUDDY_LLM_MODEL" env-default:"gpt-4-turbo-preview"`
	EmbeddingModel string `yaml:"embedding_model" env:"SQLBUDDY_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`

	// APIKey is secret - env only, never in YAML.
	APIKey string `yaml:"-" env:"SQLBUDDY_LLM_API_KEY"`

	// SQLTemperature is low by default to favor consistent SQL synthesis.
	SQLTemperature float64 `yaml:"sql_temperature" env:"SQLBUDDY_SQL_TEMPERATURE" env-default:"0.1"`

	// InsightTemperature is higher to favor variety in explanations and insights.
	InsightTemperature float64 `yaml:"insight_temperature" env:"SQLBUDDY_INSIGHT_TEMPERATURE" env-default:"0.3"`
}

// DatabaseConfig holds the target database connection settings.
type DatabaseConfig struct {
	// Driver selects the datasource adapter: "postgres" or "sqlite".
	Driver string `yaml:"driver" env:"SQLBUDDY_DB_DRIVER" env-default:"sqlite"`

	// PostgreSQL settings
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"sqlbuddy"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"sqlbuddy"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`

	// SQLite settings
	Path string `yaml:"path" env:"SQLBUDDY_DB_PATH" env-default:"sample_database.db"`
}

// IndexConfig holds vector index build and persistence settings.
type IndexConfig struct {
	// Path is the directory holding the persisted index. If it exists and is
	// non-empty, the index is loaded instead of rebuilt (embedding calls are
	// billed). Staleness after schema changes is a documented limitation;
	// use ForceRebuild to re-embed.
	Path string `yaml:"path" env:"SQLBUDDY_INDEX_PATH" env-default:"./vector_store"`

	TopK         int  `yaml:"top_k" env:"SQLBUDDY_INDEX_TOP_K" env-default:"5"`
	ChunkSize    int  `yaml:"chunk_size" env:"SQLBUDDY_CHUNK_SIZE" env-default:"1000"`
	ChunkOverlap int  `yaml:"chunk_overlap" env:"SQLBUDDY_CHUNK_OVERLAP" env-default:"200"`
	ForceRebuild bool `yaml:"force_rebuild" env:"SQLBUDDY_INDEX_FORCE_REBUILD" env-default:"false"`

	// IncludeSamples adds a sample-data document per table to the index.
	IncludeSamples bool `yaml:"include_samples" env:"SQLBUDDY_INDEX_INCLUDE_SAMPLES" env-default:"true"`
}

// PipelineConfig holds pipeline tunables.
type PipelineConfig struct {
	// MaxHistory caps the conversation history at this many turns (FIFO).
	MaxHistory int `yaml:"max_history" env:"SQLBUDDY_MAX_HISTORY" env-default:"20"`

	// RowLimit is the ceiling appended to SELECT statements without a LIMIT.
	RowLimit int `yaml:"row_limit" env:"SQLBUDDY_ROW_LIMIT" env-default:"1000"`

	// SampleRowLimit is how many rows per table go into sample-data documents.
	SampleRowLimit int `yaml:"sample_row_limit" env:"SQLBUDDY_SAMPLE_ROW_LIMIT" env-default:"3"`
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides. A local .env file is loaded into the environment first,
// best-effort. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	// Best-effort: missing .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate fails fast on missing credentials or malformed settings so
// misconfiguration surfaces at startup, not mid-pipeline.
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("SQLBUDDY_LLM_API_KEY: %w", apperrors.ErrMissingAPIKey)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("llm provider %q: %w", c.LLM.Provider, apperrors.ErrUnknownProvider)
	}

	switch c.Database.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite driver requires a database path")
		}
	default:
		return fmt.Errorf("database driver %q: %w", c.Database.Driver, apperrors.ErrUnknownDriver)
	}

	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)",
			c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	if c.Pipeline.MaxHistory <= 0 {
		return fmt.Errorf("max_history must be positive, got %d", c.Pipeline.MaxHistory)
	}
	if c.Pipeline.RowLimit <= 0 {
		return fmt.Errorf("row_limit must be positive, got %d", c.Pipeline.RowLimit)
	}

	return nil
}

// ConnectionString returns the connection string for the configured driver.
func (c *DatabaseConfig) ConnectionString() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode, c.MaxConnections,
	)
}
