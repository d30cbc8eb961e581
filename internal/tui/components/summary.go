package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering a build's closing summary.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool
}

// Summary renders a textual build summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("targets: %d/%d complete", s.data.Completed, s.data.Total))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "build cancelled")
	case s.data.Finished && s.data.Total > 0:
		if s.data.Completed == s.data.Total {
			lines = append(lines, "build finished")
		} else {
			lines = append(lines, "build finished with pending targets")
		}
	}

	return strings.Join(lines, "\n")
}
