package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"TRIVIA_PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"TRIVIA_REDIS_ADDR"`
		Password string `yaml:"password" env:"TRIVIA_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"TRIVIA_REDIS_DB"`
		TTL      string `yaml:"ttl" env:"TRIVIA_REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"TRIVIA_POSTGRES_URL"`
	} `yaml:"postgres"`
	Trivia struct {
		BankDir           string `yaml:"bank_dir" env:"TRIVIA_BANK_DIR"`
		AnswerTimeout     string `yaml:"answer_timeout" env:"TRIVIA_ANSWER_TIMEOUT"`
		SelectionAttempts int    `yaml:"selection_attempts" env:"TRIVIA_SELECTION_ATTEMPTS"`
		PoolTTL           string `yaml:"pool_ttl" env:"TRIVIA_POOL_TTL"`
		SessionTTL        string `yaml:"session_ttl" env:"TRIVIA_SESSION_TTL"`
	} `yaml:"trivia"`
}

// Load reads YAML config from path, then applies TRIVIA_* environment overrides.
// A missing file leaves the environment as the only source.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
