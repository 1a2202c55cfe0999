package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Provider names accepted by PROVIDER.
const (
	ProviderNMEA = "nmea"
	ProviderPush = "push"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

type MongoConfig struct {
	Enabled  bool   `env:"MONGO_ENABLED, default=false"`
	URI      string `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,      default=busnap_tracking"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=false"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type TrackingConfig struct {
	Provider     string        `env:"PROVIDER,      default=push"`
	NMEADevice   string        `env:"NMEA_DEVICE,   default=/dev/ttyUSB0"`
	LeaseTTL     time.Duration `env:"LEASE_TTL,     default=30s"`
	IntentBuffer int           `env:"INTENT_BUFFER, default=64"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Tracking.Provider {
	case ProviderNMEA, ProviderPush:
	default:
		return fmt.Errorf("unknown PROVIDER %q (want %q or %q)", c.Tracking.Provider, ProviderNMEA, ProviderPush)
	}
	if c.Tracking.LeaseTTL < 3*time.Millisecond {
		return fmt.Errorf("LEASE_TTL %s is too short", c.Tracking.LeaseTTL)
	}
	if c.Tracking.IntentBuffer <= 0 {
		return fmt.Errorf("INTENT_BUFFER must be positive, got %d", c.Tracking.IntentBuffer)
	}
	return nil
}

// IsProduction reports whether ENV is "production". Production always logs
// plain JSON, whatever LOG_PRETTY says.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
