package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DeviceRow is one line of a device listing
type DeviceRow struct {
	ID       string
	Name     string
	Settings string // Last acknowledged settings ("" when unknown)
	Mode     string // HVAC mode, used for coloring
	LastSeen string
}

// RenderDeviceList renders devices as bordered cards, one per device
func RenderDeviceList(rows []DeviceRow, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if len(rows) == 0 {
		return StepPendingStyle.Render("  No devices registered to this account.")
	}

	cards := make([]string, 0, len(rows))
	for _, row := range rows {
		name := row.Name
		if name == "" {
			name = "(unnamed)"
		}

		lines := []string{
			DeviceNameStyle.Render(name) + "  " + DeviceIDStyle.Render(row.ID),
		}
		if row.Settings != "" {
			lines = append(lines, ModeStyle(row.Mode).Render(strings.ToUpper(row.Mode))+"  "+ResultValueStyle.Render(row.Settings))
		} else {
			lines = append(lines, StepNoteStyle.Render("no settings sent yet"))
		}
		if row.LastSeen != "" {
			lines = append(lines, StepPendingStyle.Render("last seen "+row.LastSeen))
		}

		cards = append(cards, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Width(width-2).
			Padding(0, 1).
			Render(strings.Join(lines, "\n")))
	}
	return strings.Join(cards, "\n")
}

// RenderDeviceCompact renders one plain line per device
func RenderDeviceCompact(rows []DeviceRow) string {
	idWidth := 2
	for _, row := range rows {
		if len(row.ID) > idWidth {
			idWidth = len(row.ID)
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		settings := row.Settings
		if settings == "" {
			settings = "-"
		}
		lines = append(lines, fmt.Sprintf("%-*s  %-20s  %s", idWidth, row.ID, row.Name, settings))
	}
	return strings.Join(lines, "\n")
}
