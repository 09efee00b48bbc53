package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// SpinnerSink shows a spinner on stderr while scripts and deployments run
type SpinnerSink struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	out     io.Writer
	script  string // "[i/n] " prefix of the running script
	started time.Time
}

// NewSpinnerSink creates a new spinner-based progress sink
func NewSpinnerSink() *SpinnerSink {
	return newSpinnerSink(os.Stderr)
}

func newSpinnerSink(w io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.HideCursor = false
	return &SpinnerSink{spinner: s, out: w}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Stage {
	case "script":
		if event.Total > 0 {
			r.script = fmt.Sprintf("[%d/%d] ", event.Current, event.Total)
		}
		if r.started.IsZero() {
			r.started = time.Now()
		}
	case "completed":
		r.spinner.Stop()
		if !r.started.IsZero() {
			color.New(color.FgGreen).Fprintf(r.out, "✓ Completed in %s\n", time.Since(r.started).Round(time.Millisecond))
		}
		r.script = ""
		r.started = time.Time{}
		return
	}

	if !event.Spinner {
		if event.Stage != "script" && r.script != "" {
			// a deployment finished inside a running script
			r.spinner.Suffix = " " + r.script
			return
		}
		r.spinner.Stop()
		return
	}

	r.spinner.Suffix = " " + r.display(event)
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

func (r *SpinnerSink) display(event usecase.ProgressEvent) string {
	var stageColor *color.Color
	switch event.Stage {
	case "deploying":
		stageColor = color.New(color.FgYellow)
	case "waiting":
		stageColor = color.New(color.FgCyan)
	default:
		stageColor = color.New(color.FgWhite)
	}
	return r.script + stageColor.Sprint(event.Message)
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.print(color.New(color.FgRed), message)
}

// print stops the spinner around the message so lines don't interleave
func (r *SpinnerSink) print(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, message)

	if wasActive {
		r.spinner.Start()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
