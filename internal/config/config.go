package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"metricsindexer/apps/indexer/internal/usecase"
)

var ErrMissingRequired = errors.New("missing required configuration")

// LimiterOptions is a JSON object read from the environment and handed to the
// writes limiter without interpretation.
type LimiterOptions map[string]any

// Decode implements envconfig.Decoder.
func (o *LimiterOptions) Decode(value string) error {
	if value == "" {
		*o = LimiterOptions{}
		return nil
	}
	m := map[string]any{}
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return fmt.Errorf("decode limiter options: %w", err)
	}
	*o = m
	return nil
}

type Config struct {
	// Topics
	IngestMetricsTopic            string `envconfig:"INGEST_METRICS_TOPIC" default:"ingest-metrics"`
	SnubaMetricsTopic             string `envconfig:"SNUBA_METRICS_TOPIC" default:"snuba-metrics"`
	IngestPerformanceMetricsTopic string `envconfig:"INGEST_PERFORMANCE_METRICS_TOPIC" default:"ingest-performance-metrics"`
	SnubaGenericMetricsTopic      string `envconfig:"SNUBA_GENERIC_METRICS_TOPIC" default:"snuba-generic-metrics"`

	// Writes limiter options per use case, JSON encoded
	WritesLimiterOptions            LimiterOptions `envconfig:"INDEXER_WRITES_LIMITER_OPTIONS" default:"{}"`
	WritesLimiterOptionsPerformance LimiterOptions `envconfig:"INDEXER_WRITES_LIMITER_OPTIONS_PERFORMANCE" default:"{}"`

	// Which pipeline this process consumes
	IngestUseCase string `envconfig:"INGEST_USE_CASE" default:"release-health"`

	// Empty connects the consumer to NSQDHost directly
	NSQLookupd     string `envconfig:"NSQ_LOOKUPD"`
	NSQDHost       string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP       string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`
	NSQChannel     string `envconfig:"NSQ_CHANNEL" default:"indexer"`
	NSQMaxInFlight int    `envconfig:"NSQ_MAX_IN_FLIGHT" default:"50"`

	DBHost        string `envconfig:"DB_HOST" default:"postgres"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"indexer"`
	DBPass        string `envconfig:"DB_PASS" default:"password"`
	DBName        string `envconfig:"DB_NAME" default:"indexer"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8081"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"INGEST_METRICS_TOPIC", c.IngestMetricsTopic},
		{"SNUBA_METRICS_TOPIC", c.SnubaMetricsTopic},
		{"INGEST_PERFORMANCE_METRICS_TOPIC", c.IngestPerformanceMetricsTopic},
		{"SNUBA_GENERIC_METRICS_TOPIC", c.SnubaGenericMetricsTopic},
		{"DB_HOST", c.DBHost},
		{"DB_USER", c.DBUser},
		{"DB_NAME", c.DBName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequired, r.name)
		}
	}
	if _, err := usecase.Parse(c.IngestUseCase); err != nil {
		return fmt.Errorf("INGEST_USE_CASE: %w", err)
	}
	return nil
}

// UseCase returns the parsed INGEST_USE_CASE. Validate has already checked it.
func (c *Config) UseCase() usecase.Key {
	k, _ := usecase.Parse(c.IngestUseCase)
	return k
}
