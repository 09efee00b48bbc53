package progress

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

func TestSpinnerSink(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()
	var buf bytes.Buffer
	sink := newSpinnerSink(&buf)

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "script", Current: 2, Total: 3, Message: "Running 002_deploy_tokens", Spinner: true})
	assert.Equal(t, " [2/3] Running 002_deploy_tokens", sink.spinner.Suffix)

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "deploying", Message: "Deploying TestTokens", Spinner: true})
	assert.Equal(t, " [2/3] Deploying TestTokens", sink.spinner.Suffix)

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "deploying"})
	assert.Equal(t, " [2/3] ", sink.spinner.Suffix)

	sink.Info("deployed TestTokens")

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "completed"})
	assert.False(t, sink.spinner.Active())
	assert.Empty(t, sink.script)
	assert.Contains(t, buf.String(), "deployed TestTokens\n")
	assert.Contains(t, buf.String(), "✓ Completed in")
}

func TestSpinnerSink_NoScriptPrefix(t *testing.T) {
	ctx := context.Background()
	sink := newSpinnerSink(&bytes.Buffer{})

	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "loading", Message: "Loading", Spinner: true})
	assert.Equal(t, " Loading", sink.spinner.Suffix)
	sink.OnProgress(ctx, usecase.ProgressEvent{Stage: "complete", Message: "Loaded"})
	assert.False(t, sink.spinner.Active())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "deploying"})
	assert.Empty(t, buf.String())

	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "script", Current: 1, Total: 2, Message: "Running a"})
	assert.Contains(t, buf.String(), `msg="Running a" component=progress stage=script current=1 total=2`)

	sink.Error("boom")
	assert.Contains(t, buf.String(), "level=ERROR")
}
