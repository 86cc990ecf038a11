// Package config loads lolcoach configuration from an optional YAML file with
// environment variable overrides. A .env file in the working directory is
// loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/pable/go-lol-coach/internal/deaths"
	"github.com/pable/go-lol-coach/internal/logging"
	"github.com/pable/go-lol-coach/internal/pipeline"
	"github.com/pable/go-lol-coach/internal/riot"
)

// Config holds all configuration. Environment variables override YAML values.
type Config struct {
	// DBPath defaults to ~/.lolcoach/coach.db.
	DBPath string `yaml:"db_path" env:"COACH_DB_PATH"`

	Riot      RiotConfig      `yaml:"riot"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Log       LogConfig       `yaml:"log"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

type RiotConfig struct {
	APIKey                string        `yaml:"api_key" env:"RIOT_API_KEY"`
	Platform              string        `yaml:"platform" env:"RIOT_PLATFORM" env-default:"na1"`
	RequestsPerSecond     int           `yaml:"requests_per_second" env:"RIOT_REQUESTS_PER_SECOND" env-default:"20"`
	RequestsPerTwoMinutes int           `yaml:"requests_per_two_minutes" env:"RIOT_REQUESTS_PER_TWO_MINUTES" env-default:"100"`
	MaxRetries            int           `yaml:"max_retries" env:"RIOT_MAX_RETRIES" env-default:"3"`
	Timeout               time.Duration `yaml:"timeout" env:"RIOT_TIMEOUT" env-default:"30s"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model     string `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-haiku-4-5-20251001"`
	MaxTokens int    `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"1500"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	JSON  bool   `yaml:"json" env:"LOG_JSON" env-default:"false"`
}

type AnalysisConfig struct {
	// Matches is the analysis window size.
	Matches int `yaml:"matches" env:"ANALYSIS_MATCHES" env-default:"20"`
	// Queue filters match ids by queue id; 420 is ranked solo, 0 is any.
	Queue          int     `yaml:"queue" env:"ANALYSIS_QUEUE" env-default:"420"`
	Workers        int     `yaml:"workers" env:"ANALYSIS_WORKERS" env-default:"4"`
	WardLookbackMs int64   `yaml:"ward_lookback_ms" env:"ANALYSIS_WARD_LOOKBACK_MS" env-default:"30000"`
	WardRadius     float64 `yaml:"ward_radius" env:"ANALYSIS_WARD_RADIUS" env-default:"1500"`
}

// DefaultDBPath returns ~/.lolcoach/coach.db, or a relative path when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".lolcoach", "coach.db")
}

// Load reads path (if non-empty) with environment overrides, or the
// environment alone.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.Matches < 1 || c.Analysis.Matches > 100 {
		return fmt.Errorf("analysis.matches must be between 1 and 100, got %d", c.Analysis.Matches)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1, got %d", c.Analysis.Workers)
	}
	if c.Analysis.WardLookbackMs < 0 || c.Analysis.WardRadius < 0 {
		return fmt.Errorf("ward search parameters must not be negative")
	}
	if _, err := riot.RegionFor(c.Riot.Platform); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// RiotOptions returns client options for the configured platform.
func (c *Config) RiotOptions() riot.Options {
	return riot.Options{
		APIKey:                c.Riot.APIKey,
		Platform:              c.Riot.Platform,
		RequestsPerSecond:     c.Riot.RequestsPerSecond,
		RequestsPerTwoMinutes: c.Riot.RequestsPerTwoMinutes,
		MaxRetries:            c.Riot.MaxRetries,
		Timeout:               c.Riot.Timeout,
	}
}

// PipelineOptions returns analyzer options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Matches: c.Analysis.Matches,
		Queue:   c.Analysis.Queue,
		Workers: c.Analysis.Workers,
		Deaths: deaths.Options{
			WardLookbackMs: c.Analysis.WardLookbackMs,
			WardRadius:     c.Analysis.WardRadius,
		},
	}
}
