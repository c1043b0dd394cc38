package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// Palette shared by the terminal renderers.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourCached  = lipgloss.Color("#06B6D4")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	viableStyle  = lipgloss.NewStyle().Bold(true).Foreground(colourSuccess)
	failingStyle = lipgloss.NewStyle().Bold(true).Foreground(colourError)
)

// statusStyle colours an outcome status.
func statusStyle(s domain.OutcomeStatus) lipgloss.Style {
	switch s {
	case domain.StatusSuccess:
		return lipgloss.NewStyle().Foreground(colourSuccess)
	case domain.StatusCached:
		return lipgloss.NewStyle().Foreground(colourCached)
	case domain.StatusTimedOut:
		return lipgloss.NewStyle().Foreground(colourWarning)
	default:
		return lipgloss.NewStyle().Foreground(colourError)
	}
}

// terminalWidth returns the stdout width, or 0 when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// truncate shortens s to at most width runes. Width 0 disables truncation.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
