package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"forge/internal/tui/components"
)

// View renders the model's current build progress.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("forge build • %s", m.title())))

	bar := components.NewProgress(m.total).View(m.completed, m.FailedTargets())
	sections = append(sections, bar)

	es := entries(m.order, m.targets)
	if len(es) > 0 {
		sections = append(sections, renderTargets(es))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.total,
		Completed: m.completed,
		Finished:  m.finished,
		Cancelled: m.cancelled,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, footerStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderTargets(es []components.TargetEntry) string {
	var lines []string
	for _, e := range es {
		style := statusStyle(e.Status)
		glyph := statusGlyph(e.Status)
		line := fmt.Sprintf(" %s %s", style.Render(glyph), e.Path)
		if e.Err != nil {
			line = fmt.Sprintf("%s — %s", line, e.Err)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	if strings.TrimSpace(m.goal) != "" {
		return m.goal
	}
	return "/"
}
