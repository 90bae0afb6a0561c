package app_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devport-app/devport/internal/app"
)

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("development lowers the level to debug", func(t *testing.T) {
		logger := app.NewLogger(&app.Config{AppEnv: "development"})
		assert.True(t, logger.Enabled(ctx, slog.LevelDebug))
	})

	t.Run("other environments stay at info", func(t *testing.T) {
		logger := app.NewLogger(&app.Config{AppEnv: "staging"})
		assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
		assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	})

	t.Run("production emits json regardless of LOG_FORMAT", func(t *testing.T) {
		logger := app.NewLogger(&app.Config{AppEnv: "production", LogFormat: "pretty"})
		_, ok := logger.Handler().(*slog.JSONHandler)
		assert.True(t, ok)
	})

	t.Run("json format opts in outside production", func(t *testing.T) {
		logger := app.NewLogger(&app.Config{AppEnv: "development", LogFormat: "json"})
		_, ok := logger.Handler().(*slog.JSONHandler)
		assert.True(t, ok)
	})

	t.Run("default is the text handler", func(t *testing.T) {
		logger := app.NewLogger(&app.Config{AppEnv: "development"})
		_, ok := logger.Handler().(*slog.TextHandler)
		assert.True(t, ok)
	})
}
