// Package config loads engine configuration from a YAML file with
// environment variable overrides. Secrets (API keys, encryption keys,
// passwords) come from the environment only, never from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/luminabi/lumina-engine/pkg/cache"
)

// Config holds all engine configuration.
type Config struct {
	Env string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	// LLM backend configuration.
	LLM LLMConfig `yaml:"llm"`

	// Engine metadata database (PostgreSQL) for saved queries and
	// datasource records. Optional; in-memory repositories are used
	// when no host is configured.
	Database DatabaseConfig `yaml:"database"`

	// Redis cache backend. Optional; the in-memory store is used when
	// no host is configured.
	Redis cache.RedisConfig `yaml:"redis"`

	Cache    CacheConfig    `yaml:"cache"`
	Query    QueryConfig    `yaml:"query"`
	Schema   SchemaConfig   `yaml:"schema"`
	Insights InsightsConfig `yaml:"insights"`

	// CredentialsKey encrypts datasource connection configs at rest.
	// Base64-encoded 32-byte key (openssl rand -base64 32) or a
	// passphrase. Loading fails if unset.
	CredentialsKey string `yaml:"-" env:"CREDENTIALS_KEY"`
}

// LLMConfig selects and configures the text-generation backend.
type LLMConfig struct {
	Provider  string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint  string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model     string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey    string `yaml:"-" env:"LLM_API_KEY"`
	MaxTokens int    `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"500"`
}

// DatabaseConfig holds the engine's own PostgreSQL settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:""`
	Port     int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"lumina"`
	Password string `yaml:"-" env:"PGPASSWORD"`
	Database string `yaml:"database" env:"PGDATABASE" env-default:"lumina_engine"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL renders the pgx connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// CacheConfig holds the read-through cache TTLs.
type CacheConfig struct {
	SchemaTTL      time.Duration `yaml:"schema_ttl" env:"CACHE_SCHEMA_TTL" env-default:"1h"`
	TranslationTTL time.Duration `yaml:"translation_ttl" env:"CACHE_TRANSLATION_TTL" env-default:"300s"`
	InsightsTTL    time.Duration `yaml:"insights_ttl" env:"CACHE_INSIGHTS_TTL" env-default:"1800s"`
}

// QueryConfig bounds query execution.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"QUERY_DEFAULT_LIMIT" env-default:"1000"`
	MaxLimit     int `yaml:"max_limit" env:"QUERY_MAX_LIMIT" env-default:"10000"`
}

// SchemaConfig bounds schema analysis.
type SchemaConfig struct {
	MaxTables int `yaml:"max_tables" env:"SCHEMA_MAX_TABLES" env-default:"50"`
}

// InsightsConfig tunes insight generation.
type InsightsConfig struct {
	AnomalyZScore float64 `yaml:"anomaly_zscore" env:"INSIGHTS_ANOMALY_ZSCORE" env-default:"2.0"`
}

// Load reads config.yaml (when present) with environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.CredentialsKey == "" {
		return nil, fmt.Errorf("CREDENTIALS_KEY must be set")
	}
	return cfg, nil
}
