package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Analysis AnalysisConfig `yaml:"analysis"`
	WhatIf   WhatIfConfig   `yaml:"whatif"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type AnalysisConfig struct {
	StabilityTrials     int     `yaml:"stability_trials"`
	StabilityNoise      float64 `yaml:"stability_noise"`
	SatisficerThreshold float64 `yaml:"satisficer_threshold"`
	Seed                int64   `yaml:"seed"`
}

type WhatIfConfig struct {
	DebounceMs     int `yaml:"debounce_ms"`
	CacheCapacity  int `yaml:"cache_capacity"`
	IdleTimeoutMs  int `yaml:"idle_timeout_ms"`
	ReapIntervalMs int `yaml:"reap_interval_ms"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.WhatIf.DebounceMs) * time.Millisecond
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.WhatIf.IdleTimeoutMs) * time.Millisecond
}

func (c *Config) ReapInterval() time.Duration {
	return time.Duration(c.WhatIf.ReapIntervalMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Analysis: AnalysisConfig{
			StabilityTrials:     500,
			StabilityNoise:      0.2,
			SatisficerThreshold: 3.0,
		},
		WhatIf: WhatIfConfig{
			DebounceMs:     150,
			CacheCapacity:  10,
			IdleTimeoutMs:  1800000,
			ReapIntervalMs: 60000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads defaults, then the YAML file at path (if any), then a .env file
// in the working directory (if any), then CHOICEASE_* environment variables.
// Variables already set in the environment win over .env entries.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CHOICEASE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CHOICEASE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("CHOICEASE_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("CHOICEASE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CHOICEASE_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("CHOICEASE_STABILITY_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.StabilityTrials = n
		}
	}
	if v := os.Getenv("CHOICEASE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Analysis.Seed = n
		}
	}
	if v := os.Getenv("CHOICEASE_SATISFICER_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.SatisficerThreshold = f
		}
	}
	if v := os.Getenv("CHOICEASE_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WhatIf.DebounceMs = n
		}
	}
	if v := os.Getenv("CHOICEASE_IDLE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WhatIf.IdleTimeoutMs = n
		}
	}
	if v := os.Getenv("CHOICEASE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHOICEASE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CHOICEASE_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}
