package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrEmptyInput is returned when the user enters nothing at a required prompt
var ErrEmptyInput = errors.New("no input given")

// Prompter reads answers from the user. Password input is not echoed when
// In is a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewPrompter creates a prompter on stdin/stdout
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stdout}
}

func (p *Prompter) lines() *bufio.Reader {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	return p.reader
}

func (p *Prompter) terminalFd() (int, bool) {
	f, ok := p.In.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// Line prompts for a single line of text
func (p *Prompter) Line(label string) (string, error) {
	_, _ = fmt.Fprint(p.Out, PromptStyle.Render(label+": "))

	input, err := p.lines().ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}
	return input, nil
}

// Password prompts for a secret without echoing it on a terminal
func (p *Prompter) Password(label string) (string, error) {
	fd, isTerminal := p.terminalFd()
	if !isTerminal {
		return p.Line(label)
	}

	_, _ = fmt.Fprint(p.Out, PromptStyle.Render(label+": "))
	secret, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(secret) == 0 {
		return "", ErrEmptyInput
	}
	return string(secret), nil
}

// Confirm displays a warning box and asks the user to type "yes".
// Returns true if the user confirmed, false otherwise.
func (p *Prompter) Confirm(title string, warnings []string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}
	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(p.Out, WarningBoxStyle(width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(p.Out)

	answer, err := p.Line(`To proceed, type "yes" and press Enter`)
	if err == nil && strings.EqualFold(answer, "yes") {
		return true
	}

	_, _ = fmt.Fprintln(p.Out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
