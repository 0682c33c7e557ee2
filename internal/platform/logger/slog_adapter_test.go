package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestSlogAdapterFormats(t *testing.T) {
	ctx := context.Background()

	var jsonBuf bytes.Buffer
	logger.NewSlogAdapterWriter(&jsonBuf, "production", "info").Info(ctx, "dispatched", "key", "panel")
	assert.Contains(t, jsonBuf.String(), `"msg":"dispatched"`)
	assert.Contains(t, jsonBuf.String(), `"key":"panel"`)
	assert.Contains(t, jsonBuf.String(), `"service":"relayd"`)

	var textBuf bytes.Buffer
	logger.NewSlogAdapterWriter(&textBuf, "development", "info").Info(ctx, "dispatched", "key", "panel")
	assert.Contains(t, textBuf.String(), "msg=dispatched")
	assert.Contains(t, textBuf.String(), "key=panel")
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := logger.NewSlogAdapterWriter(&buf, "production", "warn")

	log.Debug(ctx, "hidden")
	log.Info(ctx, "hidden")
	assert.Empty(t, buf.String())

	log.Warn(ctx, "shown")
	assert.Contains(t, buf.String(), "shown")
}
