// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, Load returns an error and the
// process exits.
//
// Variables use the VACANCY_ prefix; the first underscore after the prefix
// separates the section, e.g. VACANCY_DATABASE_SSL_MODE -> database.ssl_mode.
// A .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VACANCY_"

// listKeys hold comma-separated values.
var listKeys = map[string]bool{
	"hh.employer_ids": true,
	"hh.exclude":      true,
}

// Config holds all runtime configuration for the vacancy service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	HH       HHConfig       `koanf:"hh"`
	Scrape   ScrapeConfig   `koanf:"scrape"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port string `koanf:"port" validate:"required"`
}

// DatabaseConfig is passed through to the PostgreSQL driver as-is.
type DatabaseConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"required,min=1,max=65535"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password"`
	Name     string `koanf:"name" validate:"required"`
	SSLMode  string `koanf:"ssl_mode" validate:"required"`
}

// RedisConfig is optional; an empty URL disables ingest events.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size" validate:"min=0"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// HHConfig configures the hh.ru vacancy source.
type HHConfig struct {
	BaseURL     string   `koanf:"base_url" validate:"required,url"`
	UserAgent   string   `koanf:"user_agent" validate:"required"`
	EmployerIDs []int64  `koanf:"employer_ids"`
	PerPage     int      `koanf:"per_page" validate:"min=1,max=100"`
	MaxPages    int      `koanf:"max_pages" validate:"min=1"`
	Exclude     []string `koanf:"exclude"`
}

type ScrapeConfig struct {
	IntervalHours int  `koanf:"interval_hours" validate:"min=1"`
	RunOnStart    bool `koanf:"run_on_start"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

// Default returns the configuration used for any variable left unset.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8083"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		HH: HHConfig{
			BaseURL:   "https://api.hh.ru",
			UserAgent: "jobmate-vacancy-service/1.0",
			PerPage:   100,
			MaxPages:  20,
		},
		Scrape: ScrapeConfig{IntervalHours: 6, RunOnStart: true},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads environment variables over the defaults and returns a validated
// Config.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(s, v string) (string, interface{}) {
		key := strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
		if listKeys[key] {
			return key, splitList(v)
		}
		return key, v
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
