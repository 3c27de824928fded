package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#2563EB")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#B91C1C")
	colorWarn    = lipgloss.Color("#B45309")

	brandStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	actionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorPrimary).Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().Foreground(colorWarn).Border(lipgloss.NormalBorder()).BorderForeground(colorWarn).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)

	itemStyle       = lipgloss.NewStyle().PaddingLeft(2)
	activeItemStyle = lipgloss.NewStyle().PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(colorPrimary).Bold(true)
	cursorItemStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(colorPrimary)

	paneStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(colorPrimary)
	headingStyle     = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	confirmStyle     = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(colorError).Padding(0, 2)
)
