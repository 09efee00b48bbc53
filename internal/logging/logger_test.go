package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("KITDEPLOY_LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, levelFromEnv())
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("drops time and filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, slog.LevelInfo, false)

		log.Debug("hidden")
		log.Info("deployed", "contract", "Time")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.NotContains(t, out, "time=")
		assert.Contains(t, out, "msg=deployed contract=Time")
	})

	t.Run("debug forces debug level", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, slog.LevelError, true)

		log.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/deploy.go", shortPath("/home/me/src/kitdeploy/internal/usecase/deploy.go"))
	assert.Equal(t, "main.go", shortPath("/elsewhere/main.go"))
}
