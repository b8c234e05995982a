// Package config loads server configuration from an optional YAML file
// overridden by environment variables.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        string `yaml:"port" env:"PORT, overwrite"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL, overwrite"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL, overwrite"`
	LogPretty   bool   `yaml:"log_pretty" env:"LOG_PRETTY, overwrite"`

	// CORSOrigins is a comma-separated allow-list of browser origins.
	CORSOrigins string `yaml:"cors_origins" env:"CORS_ORIGINS, overwrite"`

	// ThrottleRPS caps verification requests per second per server.
	// 0 disables throttling, which matches the product decision of
	// unlimited password retries.
	ThrottleRPS float64 `yaml:"throttle_rps" env:"THROTTLE_RPS, overwrite"`

	// PageSize is the analytics log page size.
	PageSize int `yaml:"page_size" env:"PAGE_SIZE, overwrite"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies environment overrides via go-envconfig.
// Precedence: environment, then file, then built-in defaults.
func Load(ctx context.Context, path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Port == "" {
		cfg.Port = "5050"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	return cfg, nil
}

// Origins splits the configured CORS allow-list into individual origins.
func (c Config) Origins() []string {
	if strings.TrimSpace(c.CORSOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
