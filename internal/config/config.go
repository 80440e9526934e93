package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	AppURL   string `env:"APP_URL" env-default:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Store    Store
	Redis    Redis
	Kafka    Kafka
	Shopify  Shopify
	Workflow Workflow
}

type Store struct {
	Driver        string `env:"STORE_DRIVER" env-default:"mongo"`
	MongoURI      string `env:"MONGODB_URI" env-default:"mongodb://localhost:27017/?replicaSet=rs0"`
	MongoDatabase string `env:"MONGODB_DATABASE" env-default:"section_store"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
}

type Redis struct {
	// URL is optional; without it OAuth states and webhook deliveries are kept in process
	URL string `env:"REDIS_URL"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_TOPIC" env-default:"section-store.events"`
}

type Shopify struct {
	APIKey        string   `env:"SHOPIFY_API_KEY"`
	APISecret     string   `env:"SHOPIFY_API_SECRET"`
	APIVersion    string   `env:"SHOPIFY_API_VERSION" env-default:"2024-10"`
	Scopes        []string `env:"SHOPIFY_SCOPES" env-separator:"," env-default:"read_themes,write_themes"`
	BillingTest   bool     `env:"SHOPIFY_BILLING_TEST" env-default:"false"`
	EncryptionKey string   `env:"TOKEN_ENCRYPTION_KEY"`
}

type Workflow struct {
	PendingClaimTTL  time.Duration `env:"PENDING_CLAIM_TTL" env-default:"2m"`
	WebhookDedupeTTL time.Duration `env:"WEBHOOK_DEDUPE_TTL" env-default:"24h"`
}

// Load reads .env when present, then the process environment
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStore reads only the store settings, for tools that never talk to the platform
func LoadStore(logger zerolog.Logger) (*Store, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}
	var store Store
	if err := cleanenv.ReadEnv(&store); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &store, nil
}

// Validate reports every missing or inconsistent setting at once
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongo driver"))
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverPostgres, c.Store.Driver))
	}
	if c.Shopify.APIKey == "" {
		errs = append(errs, errors.New("SHOPIFY_API_KEY is required"))
	}
	if c.Shopify.APISecret == "" {
		errs = append(errs, errors.New("SHOPIFY_API_SECRET is required"))
	}
	if c.Shopify.EncryptionKey == "" {
		errs = append(errs, errors.New("TOKEN_ENCRYPTION_KEY is required"))
	}
	if c.Workflow.PendingClaimTTL <= 0 {
		errs = append(errs, errors.New("PENDING_CLAIM_TTL must be positive"))
	}
	if c.Workflow.WebhookDedupeTTL <= 0 {
		errs = append(errs, errors.New("WEBHOOK_DEDUPE_TTL must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Level parses LOG_LEVEL, falling back to info
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
