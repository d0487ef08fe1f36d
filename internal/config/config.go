// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/simaogato/partio-backend/internal/domain"
)

// Config holds every setting of the ledger server
type Config struct {
	// Storage selects the repository backend: postgres or memory
	Storage string `env:"STORAGE" envDefault:"postgres"`
	DB      DBConfig

	// RedisURL selects the Redis cache; empty means an in-process cache
	RedisURL string `env:"REDIS_URL"`

	GRPCAddr string `env:"GRPC_ADDR" envDefault:":8080"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8081"`
	APIToken string `env:"API_TOKEN" envDefault:"dev-token"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// OTLPEndpoint enables tracing when set
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"partio-ledger"`

	Cache CacheConfig

	// StartupDelay gives the database time to come up under docker compose
	StartupDelay time.Duration `env:"STARTUP_DELAY" envDefault:"0s"`

	// SeedDemo creates a sample group on startup when it does not exist yet
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}

// DBConfig holds the Postgres connection settings. ConnString wins when set.
type DBConfig struct {
	ConnString string `env:"DB_CONN_STR"`
	Host       string `env:"DB_HOST"     envDefault:"localhost"`
	Port       string `env:"DB_PORT"     envDefault:"5432"`
	User       string `env:"DB_USER"     envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name       string `env:"DB_NAME"     envDefault:"partio"`
}

// CacheConfig holds the expiry of each cached key family
type CacheConfig struct {
	BalancesTTL    time.Duration `env:"CACHE_TTL_BALANCES"    envDefault:"120s"`
	SettlementsTTL time.Duration `env:"CACHE_TTL_SETTLEMENTS" envDefault:"60s"`
	ExpensesTTL    time.Duration `env:"CACHE_TTL_EXPENSES"    envDefault:"120s"`
	GroupsTTL      time.Duration `env:"CACHE_TTL_GROUPS"      envDefault:"300s"`
}

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Load parses the configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return Config{}, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}

	return cfg, nil
}

// DSN returns the lib/pq connection string
func (c DBConfig) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// TTL converts the cache settings for the services
func (c CacheConfig) TTL() domain.CacheTTL {
	return domain.CacheTTL{
		Balances:    c.BalancesTTL,
		Settlements: c.SettlementsTTL,
		Expenses:    c.ExpensesTTL,
		Groups:      c.GroupsTTL,
	}
}
