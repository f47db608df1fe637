// Package ui provides terminal output components for the sabiana CLI.
//
// Components are rendered with Lipgloss and printed once; nothing here
// takes over the terminal.
//
//   - Header: command banner showing the operation and its parameters
//   - Progress: bar and step list for operations over several devices
//   - Result: success, failure and warning boxes
//   - Device listings: cards (detailed) or one line per device (compact)
//   - Prompter: line, password and confirmation prompts
//
// Multi-device commands use a Runner:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Turn Off",
//	    Command:   "sabiana off --all",
//	    StepNames: names,
//	})
//
//	err := runner.Run(func(onStep ui.StepCallback) ([]ui.Detail, error) {
//	    onStep(1, ui.StepComplete, "mode=off")
//	    return nil, nil
//	})
//
// # Logging Integration
//
// Logging is controlled by --log-level or SABIANA_LOG_LEVEL. When unset zap
// is silent, so only the curated output is shown.
package ui
