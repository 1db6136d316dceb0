// Package config defines environment-driven settings for the csvss CLI.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config holds settings parsed from environment variables. CLI flags
// overlay these per subcommand.
type Config struct {
	// NoteColumn is the CSV column holding raw note HTML.
	NoteColumn string `env:"CSVSS_NOTE_COLUMN" envDefault:"note_html"`
	// Workers bounds concurrent row sanitization; 0 means one per CPU.
	Workers int `env:"CSVSS_WORKERS" envDefault:"0"`
	// MaxNoteBytes caps a single note before sanitizing; 0 means unlimited.
	MaxNoteBytes int    `env:"CSVSS_MAX_NOTE_BYTES" envDefault:"1048576"`
	LogLevel     string `env:"CSVSS_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("config: CSVSS_WORKERS must be >= 0, got %d", cfg.Workers)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info for
// unknown values.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
