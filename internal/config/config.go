package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Save backends accepted in SAVE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Port        string     `env:"PORT"        envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string     `env:"LOG_LEVEL"   envDefault:"info"`
	LogLevel    slog.Level `env:"-"`

	// Content
	ContentPath string `env:"CONTENT_PATH"` // empty means the embedded manor catalog

	// Persistence
	SaveBackend string        `env:"SAVE_BACKEND" envDefault:"redis"`
	SaveKey     string        `env:"SAVE_KEY"     envDefault:"haunted-house-mvp"`
	SaveTTL     time.Duration `env:"SAVE_TTL"     envDefault:"720h"`
	RedisURL    string        `env:"REDIS_URL"    envDefault:"redis://localhost:6379/0"`
	SQLitePath  string        `env:"SQLITE_PATH"  envDefault:"manor.db"`

	// Sessions
	SessionIdle time.Duration `env:"SESSION_IDLE" envDefault:"30m"` // idle sessions are evicted from memory
	SweepEvery  time.Duration `env:"SWEEP_EVERY"  envDefault:"1m"`

	// Console
	ConsoleLog string `env:"CONSOLE_LOG" envDefault:"manor-console.log"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.SaveBackend = strings.ToLower(cfg.SaveBackend)

	switch cfg.SaveBackend {
	case BackendRedis, BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("unsupported SAVE_BACKEND %q (want redis, sqlite or memory)", cfg.SaveBackend)
	}
	if cfg.SaveKey == "" {
		return nil, fmt.Errorf("SAVE_KEY cannot be empty")
	}
	if cfg.SessionIdle <= 0 || cfg.SweepEvery <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE and SWEEP_EVERY must be positive")
	}

	return &cfg, nil
}

// IsProduction reports whether logs should be machine readable.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
