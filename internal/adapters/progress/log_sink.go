package progress

import (
	"context"
	"log/slog"

	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// LogSink reports progress through the logger, for non-interactive runs
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a new log-based progress sink
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "progress")}
}

// OnProgress logs events that carry a message
func (s *LogSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Message == "" {
		return
	}
	attrs := []any{"stage", event.Stage}
	if event.Total > 0 {
		attrs = append(attrs, "current", event.Current, "total", event.Total)
	}
	s.log.InfoContext(ctx, event.Message, attrs...)
}

func (s *LogSink) Info(message string) {
	s.log.Info(message)
}

func (s *LogSink) Error(message string) {
	s.log.Error(message)
}

var _ usecase.ProgressSink = (*LogSink)(nil)
