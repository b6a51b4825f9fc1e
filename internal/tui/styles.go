package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor = "#C2410C"
	goodColor    = "#10B981"
	okColor      = "#F59E0B"
	badColor     = "#EF4444"
	dimColor     = "#6B7280"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	scriptStyle = lipgloss.NewStyle().
			Italic(true).
			PaddingLeft(2)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(goodColor))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(okColor))

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(badColor))

	celebrateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(goodColor)).
			Bold(true)
)
