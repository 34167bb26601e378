// Package config reads gamesage settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"gamesage/internal/observability"
)

var ErrMissingAPIKey = errors.New("please set OPENAI_API_KEY environment variable")

type Config struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	RAWGAPIKey      string        `env:"RAWG_API_KEY"`
	RAWGBaseURL     string        `env:"RAWG_BASE_URL"`
	HLTBBaseURL     string        `env:"HLTB_BASE_URL"`
	WikiAPIURL      string        `env:"WIKI_API_URL"`
	ProviderRPS     float64       `env:"PROVIDER_RPS" envDefault:"2"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`

	Debug       bool   `env:"DEBUG"`
	DBPath      string `env:"GAMESAGE_DB" envDefault:"./gamesage.db"`
	TermsPath   string `env:"GAMESAGE_TERMS"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	HistorySize int    `env:"HISTORY_SIZE" envDefault:"6"`

	Tracing observability.Config
}

// Load parses the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HistorySize < 0 {
		return Config{}, fmt.Errorf("parse env: HISTORY_SIZE must not be negative, got %d", cfg.HistorySize)
	}
	return cfg, nil
}

// RequireLLM fails when no model credentials are configured.
func (c Config) RequireLLM() error {
	if c.OpenAIAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
