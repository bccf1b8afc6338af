// Package config loads process configuration from the environment.
//
// Values come from real environment variables first, then from .env files
// following the dotenv convention: .env.{APP_ENV}.local, .env.local (skipped
// in test), .env.{APP_ENV}, .env. Earlier files win; missing files are skipped.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments.
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// Environments lists the accepted APP_ENV values.
var Environments = []string{Development, Production, Test}

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

// Config is the process configuration shared by the api and worker binaries.
type Config struct {
	Env  string
	Port string

	// Store selects the repository backend: memory, postgres or bolt.
	Store    string
	BoltPath string

	// SeedFile is an optional YAML catalogue loaded at startup.
	SeedFile string

	JWTSigningKey string

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	PubSubProjectID    string
	PubSubSubscription string

	LogLevel      string
	LogFormat     string // console or json
	LogFile       string // optional rotating file
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// FlagCacheTTL bounds how stale feature flags may be on a replica that
	// did not make the change.
	FlagCacheTTL time.Duration

	CheckTimeout     time.Duration
	CheckInterval    time.Duration
	CheckConcurrency int
}

// Load reads .env files from dir (if non-empty) and builds a Config from the environment.
func Load(dir string) (*Config, error) {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = Development
	}
	if !slices.Contains(Environments, env) {
		return nil, fmt.Errorf("invalid environment %q", env)
	}

	if dir != "" {
		if err := loadDotenv(dir, env); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Env:                env,
		Port:               getString("APP_PORT", "8080"),
		Store:              getString("STORE", StoreMemory),
		BoltPath:           getString("BOLT_PATH", "statusboard.db"),
		SeedFile:           os.Getenv("SEED_FILE"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		RequireTLS:         getBool("REQUIRE_TLS", false),
		OTelEnabled:        getBool("OTEL_ENABLED", false),
		OTLPEndpoint:       getString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    getFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
		LogLevel:           getString("LOG_LEVEL", "info"),
		LogFormat:          getString("LOG_FORMAT", "json"),
		LogFile:            os.Getenv("LOG_FILE"),
		LogMaxSizeMB:       getInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:      getInt("LOG_MAX_BACKUPS", 10),
		LogMaxAgeDays:      getInt("LOG_MAX_AGE_DAYS", 7),
		FlagCacheTTL:       getDuration("FLAG_CACHE_TTL", time.Minute),
		CheckTimeout:       getDuration("CHECK_TIMEOUT", 10*time.Second),
		CheckInterval:      getDuration("CHECK_INTERVAL", 5*time.Minute),
		CheckConcurrency:   getInt("CHECK_CONCURRENCY", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres, StoreBolt:
	default:
		return fmt.Errorf("invalid STORE %q: want memory, postgres or bolt", c.Store)
	}
	if c.Store == StoreBolt && c.BoltPath == "" {
		return errors.New("BOLT_PATH is required for the bolt store")
	}
	if c.Env == Production && c.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required in production")
	}
	if c.CheckTimeout <= 0 {
		return errors.New("CHECK_TIMEOUT must be positive")
	}
	return nil
}

// PubSubEnabled reports whether the worker should subscribe to Pub/Sub.
func (c *Config) PubSubEnabled() bool {
	return c.PubSubProjectID != "" && c.PubSubSubscription != ""
}

func loadDotenv(dir, env string) error {
	files := []string{".env." + env + ".local"}
	if env != Test {
		files = append(files, ".env.local")
	}
	files = append(files, ".env."+env, ".env")

	for _, name := range files {
		err := godotenv.Load(filepath.Join(dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

func getString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
