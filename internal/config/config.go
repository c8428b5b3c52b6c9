package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
)

// Snapshot backends.
const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	GraphQL  GraphQLConfig
	Cache    CacheConfig
	Snapshot SnapshotConfig
	Refetch  RefetchConfig

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
}

type GraphQLConfig struct {
	Endpoint string        `env:"GRAPHQL_ENDPOINT,required"`
	Token    string        `env:"GRAPHQL_TOKEN"`
	Timeout  time.Duration `env:"GRAPHQL_TIMEOUT" envDefault:"15s"`
}

type CacheConfig struct {
	// TTL marks cached queries stale; zero keeps them fresh forever.
	TTL    time.Duration `env:"CACHE_TTL"    envDefault:"0s"`
	Policy string        `env:"CACHE_POLICY" envDefault:"cache-first"`
	// RefreshSchedule is a cron spec for background revalidation; empty disables it.
	RefreshSchedule string `env:"REFRESH_SCHEDULE"`
}

type SnapshotConfig struct {
	Backend string        `env:"SNAPSHOT_BACKEND" envDefault:"none"`
	TTL     time.Duration `env:"SNAPSHOT_TTL"     envDefault:"0s"`
}

// RefetchConfig limits forced network fetches from the HTTP and MCP surfaces.
type RefetchConfig struct {
	Rate  float64 `env:"REFETCH_RATE"  envDefault:"1"`
	Burst int     `env:"REFETCH_BURST" envDefault:"5"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseGraphQL reads only the data source settings. Non-empty overrides,
// keyed by variable name, take precedence over the process environment.
func ParseGraphQL(overrides map[string]string) (GraphQLConfig, error) {
	environ := env.ToMap(os.Environ())
	for k, v := range overrides {
		if v != "" {
			environ[k] = v
		}
	}
	var gc GraphQLConfig
	if err := env.ParseWithOptions(&gc, env.Options{Environment: environ}); err != nil {
		return GraphQLConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := gc.Validate(); err != nil {
		return GraphQLConfig{}, err
	}
	return gc, nil
}

func (g GraphQLConfig) Validate() error {
	if strings.TrimSpace(g.Endpoint) == "" {
		return fmt.Errorf("GRAPHQL_ENDPOINT is required")
	}
	if g.Timeout < 0 {
		return fmt.Errorf("GRAPHQL_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.GraphQL.Validate(); err != nil {
		return err
	}
	if _, err := fetch.ParsePolicy(c.Cache.Policy); err != nil {
		return fmt.Errorf("CACHE_POLICY: %w", err)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	switch c.Snapshot.Backend {
	case BackendNone:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres snapshot backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis snapshot backend")
		}
	default:
		return fmt.Errorf("SNAPSHOT_BACKEND %q is not one of none, postgres, redis", c.Snapshot.Backend)
	}

	if c.Refetch.Rate <= 0 || c.Refetch.Burst <= 0 {
		return fmt.Errorf("REFETCH_RATE and REFETCH_BURST must be positive")
	}
	return nil
}

// Policy returns the validated default cache policy.
func (c *Config) Policy() fetch.Policy {
	p, _ := fetch.ParsePolicy(c.Cache.Policy)
	return p
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
