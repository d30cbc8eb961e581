package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	builtStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	footerStyle = lipgloss.NewStyle().MarginTop(1)
)

func statusStyle(status string) lipgloss.Style {
	switch Status(status) {
	case StatusBuilt:
		return builtStyle
	case StatusRunning:
		return runningStyle
	case StatusFailed:
		return failedStyle
	case StatusSkipped:
		return skippedStyle
	default:
		return pendingStyle
	}
}

func statusGlyph(status string) string {
	switch Status(status) {
	case StatusBuilt:
		return "✓"
	case StatusRunning:
		return "⏳"
	case StatusFailed:
		return "✗"
	case StatusSkipped:
		return "⊘"
	default:
		return "…"
	}
}
