package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Skipped
)

// Step is one unit of a multi-device operation, usually one device.
type Step struct {
	Number  int        // Step number (1-based)
	Name    string     // Step description (e.g., device name)
	Status  StepStatus // Current status
	Message string     // Optional status message (e.g., "mode=off")
}

// Progress tracks a bar and a step list. Steps may be updated from several
// goroutines.
type Progress struct {
	Label string // e.g., "Turning off 3 devices"
	Width int    // Terminal width

	mu    sync.Mutex
	steps []Step
	bar   progress.Model
}

// NewProgress creates a progress display with one pending step per name
func NewProgress(label string, names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name, Status: StepPending}
	}

	p := &Progress{Label: label, steps: steps}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width

	barWidth := width - 20 // Leave room for percentage and step count
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Update sets a step's status and message and returns the rendered step line
func (p *Progress) Update(stepNumber int, status StepStatus, message string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stepNumber < 1 || stepNumber > len(p.steps) {
		return ""
	}
	step := &p.steps[stepNumber-1]
	step.Status = status
	step.Message = message
	return p.renderStepLine(*step)
}

// Steps returns a snapshot of all steps
func (p *Progress) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Step(nil), p.steps...)
}

// Percent returns the fraction of finished steps (0.0 - 1.0)
func (p *Progress) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percentLocked()
}

func (p *Progress) percentLocked() float64 {
	if len(p.steps) == 0 {
		return 1
	}
	done := 0
	for _, s := range p.steps {
		if s.Status == StepComplete || s.Status == StepFailed || s.Status == StepSkipped {
			done++
		}
	}
	return float64(done) / float64(len(p.steps))
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	b.WriteString(p.renderBar())
	b.WriteString("\n\n")

	lines := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		lines = append(lines, p.renderStepLine(step))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

// RenderBar returns the progress bar line with percentage
func (p *Progress) RenderBar() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderBar()
}

func (p *Progress) renderBar() string {
	percent := p.percentLocked()
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%", p.bar.ViewAs(percent), percent*100))
}

// renderStepLine renders a single step line
func (p *Progress) renderStepLine(step Step) string {
	prefix := fmt.Sprintf("  [%d/%d]", step.Number, len(p.steps))

	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(style.Render(step.Name))

	// Align markers in one column
	padding := 45 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback is the function signature for step progress updates.
type StepCallback func(stepNumber int, status StepStatus, message string)
