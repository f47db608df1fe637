package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RunnerConfig holds configuration for a multi-step CLI operation
type RunnerConfig struct {
	Title           string    // Command title (e.g., "Turn Off")
	Command         string    // Full command (e.g., "sabiana off --all")
	Params          []Detail  // Parameters to display in header
	StepNames       []string  // One name per step
	Troubleshooting []string  // Tips shown when the operation fails
	Output          io.Writer // Output writer (default: os.Stdout)
}

// Runner orchestrates the header, progress and result output of an
// operation that runs over several devices.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	width    int

	mu sync.Mutex // serializes writes from concurrent steps
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	width := GetTerminalWidth()

	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params...).SetWidth(width),
		progress: NewProgress("", config.StepNames).SetWidth(width),
		output:   config.Output,
		width:    width,
	}
}

// Operation performs the work and reports progress through onStep. The
// returned details are shown in the success box.
type Operation func(onStep StepCallback) ([]Detail, error)

// Run prints the header, executes op and prints the final result box.
func (r *Runner) Run(op Operation) error {
	started := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(r.onStep)
	duration := time.Since(started).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if len(r.config.StepNames) > 0 {
		_, _ = fmt.Fprintln(r.output, r.progress.RenderBar())
		_, _ = fmt.Fprintln(r.output)
	}
	if err != nil {
		result := NewFailureResult(r.config.Title+" failed", err, r.config.Troubleshooting)
		_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
		return err
	}

	details = append(details, Detail{Key: "Duration", Value: duration.String()})
	result := NewSuccessResult(r.config.Title+" complete", details...)
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
	return nil
}

// Progress returns the step tracker
func (r *Runner) Progress() *Progress {
	return r.progress
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	line := r.progress.Update(stepNumber, status, message)
	if line == "" || status == StepPending || status == StepRunning {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.output, line)
}

// PrintSuccess prints a styled success result
func PrintSuccess(w io.Writer, title string, details ...Detail) {
	_, _ = fmt.Fprintln(w, NewSuccessResult(title, details...).Render())
}

// PrintFailure prints a styled failure result
func PrintFailure(w io.Writer, title string, err error, troubleshooting []string) {
	_, _ = fmt.Fprintln(w, NewFailureResult(title, err, troubleshooting).Render())
}

// PrintWarning prints a styled warning result
func PrintWarning(w io.Writer, title string, details ...Detail) {
	_, _ = fmt.Fprintln(w, NewWarningResult(title, details...).Render())
}
