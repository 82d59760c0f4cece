// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

// Package config loads service configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Session       SessionConfig       `koanf:"session"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Addr       string `koanf:"addr"`
	Production bool   `koanf:"production"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// RateLimitConfig holds limiter store settings.
type RateLimitConfig struct {
	Capacity      int           `koanf:"capacity"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds the metrics/health listener settings.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the configuration used when neither file nor flags
// override a value.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/vetclinic?sslmode=disable",
		},
		Session: SessionConfig{
			TTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Capacity:      5000,
			SweepInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			Addr: ":9090",
		},
	}
}

// Load reads configuration in precedence order: defaults, then the YAML
// file at path (skipped if path is empty or missing), then flags.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, oops.Code("CONFIG_FILE_FAILED").
					With("path", path).
					Wrap(err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url must not be empty")
	}
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.ttl must be positive")
	}
	if c.RateLimit.Capacity <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("ratelimit.capacity must be positive")
	}
	if c.RateLimit.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("ratelimit.sweep_interval must be positive")
	}
	return nil
}
