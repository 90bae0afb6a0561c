package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger from configuration. Production always
// emits JSON regardless of LOG_FORMAT; development additionally lowers the
// level to Debug. Source locations are attached outside production, where
// their cost does not matter.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: !cfg.IsProduction(),
		Level:     slog.LevelInfo,
	}
	if cfg != nil && cfg.AppEnv == "development" {
		opts.Level = slog.LevelDebug
	}
	if cfg.IsProduction() || (cfg != nil && cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
