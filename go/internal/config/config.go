package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/racedash/go/internal/dbconfig"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
)

// Config is the racedash configuration. Values come from defaults, then
// the optional YAML file, then the environment.
type Config struct {
	HTTPAddr         string          `yaml:"http_addr"`
	AdminToken       string          `yaml:"admin_token"`
	StoreBackend     string          `yaml:"store_backend"`
	BoltPath         string          `yaml:"bolt_path"`
	NATSURL          string          `yaml:"nats_url"`
	NATSBucket       string          `yaml:"nats_bucket"`
	TickInterval     time.Duration   `yaml:"tick_interval"`
	FallbackInterval time.Duration   `yaml:"fallback_interval"`
	LogLevel         string          `yaml:"log_level"`
	ServerURL        string          `yaml:"server_url"`
	Database         dbconfig.Config `yaml:"database"`
}

// Default returns the configuration of a single local process.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		StoreBackend:     BackendMemory,
		BoltPath:         "racedash.db",
		NATSURL:          "nats://localhost:4222",
		NATSBucket:       "RACEDASH",
		TickInterval:     250 * time.Millisecond,
		FallbackInterval: 30 * time.Second,
		LogLevel:         "info",
		ServerURL:        "http://localhost:8080",
		Database:         dbconfig.Default(),
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.AdminToken = getEnv("ADMIN_TOKEN", c.AdminToken)
	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.BoltPath = getEnv("BOLT_PATH", c.BoltPath)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSBucket = getEnv("NATS_BUCKET", c.NATSBucket)
	c.TickInterval = getEnvAsDuration("TICK_INTERVAL", c.TickInterval)
	c.FallbackInterval = getEnvAsDuration("FALLBACK_INTERVAL", c.FallbackInterval)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ServerURL = getEnv("SERVER_URL", c.ServerURL)
	c.Database = c.Database.WithEnv()
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendMemory, BackendBolt, BackendPostgres, BackendNATS:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.StoreBackend))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}
	if c.FallbackInterval <= 0 {
		errs = append(errs, errors.New("fallback_interval must be positive"))
	}
	if c.StoreBackend == BackendBolt && c.BoltPath == "" {
		errs = append(errs, errors.New("bolt_path is required for the bolt backend"))
	}
	if c.StoreBackend == BackendNATS && c.NATSBucket == "" {
		errs = append(errs, errors.New("nats_bucket is required for the nats backend"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
