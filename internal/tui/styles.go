package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#7C3AED")
	muted   = lipgloss.Color("#6B7280")
	warning = lipgloss.Color("#F59E0B")
	bgHigh  = lipgloss.Color("#1F2937")
	text    = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Background(bgHigh).Foreground(text)
	dimStyle      = lipgloss.NewStyle().Foreground(muted)
	draftStyle    = lipgloss.NewStyle().Foreground(warning)
	helpKeyStyle  = lipgloss.NewStyle().Foreground(accent)
)
