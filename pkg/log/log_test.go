package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"INFO", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"Error", slog.LevelError, slog.LevelWarn},
		{"bogus", slog.LevelInfo, slog.LevelDebug},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			Setup("revisio-test", test.name)

			ctx := context.Background()
			assert.True(t, slog.Default().Enabled(ctx, test.enabled))
			assert.False(t, slog.Default().Enabled(ctx, test.muted))
		})
	}
}

func TestWithModule(t *testing.T) {
	Setup("revisio-test", "info")

	logger := WithModule("api")
	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
