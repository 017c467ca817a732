package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentPrimary   = lipgloss.Color("#50E3C2")
	accentSecondary = lipgloss.Color("#F6AE2D")
	mutedText       = lipgloss.Color("#8CA1AE")
	warningText     = lipgloss.Color("#FF6B6B")
	panelBorder     = lipgloss.Color("#2D6A80")
)

var (
	headerStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(accentPrimary)

	statusStyle = lipgloss.NewStyle().
		Foreground(accentSecondary).
		Bold(true)

	mutedStyle = lipgloss.NewStyle().
		Foreground(mutedText)

	errorStyle = lipgloss.NewStyle().
		Foreground(warningText).
		Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
		Foreground(accentPrimary).
		Bold(true)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(panelBorder).
		Padding(0, 1)

	narrativeStyle  = lipgloss.NewStyle()
	toolStyle       = lipgloss.NewStyle().Foreground(accentSecondary)
	systemLineStyle = lipgloss.NewStyle().Foreground(mutedText)
	errorLineStyle  = lipgloss.NewStyle().Foreground(warningText)

	helpStyle = lipgloss.NewStyle().
		Foreground(mutedText)
)
