package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var failedLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

// Progress renders a build's overall target completion: how many of the
// targets reachable from the goal have reached a terminal status (built,
// failed, or skipped), and how many of those failed outright.
type Progress struct {
	bar   progress.Model
	total int
}

// NewProgress creates a progress component tracking total targets.
func NewProgress(total int) Progress {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	return Progress{bar: bar, total: total}
}

// View renders the bar for the given count of completed targets, appending a
// failed-count callout when failed > 0 so a build with errors is visible
// without scanning the full target list.
func (p Progress) View(completed, failed int) string {
	ratio := 0.0
	if p.total > 0 {
		ratio = math.Min(1.0, float64(completed)/float64(p.total))
	}
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d targets", completed, p.total))
	if failed > 0 {
		label = fmt.Sprintf("%s %s", label, failedLabelStyle.Render(fmt.Sprintf("(%d failed)", failed)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(ratio))
}
