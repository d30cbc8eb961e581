package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViewRendersBasicLayout(t *testing.T) {
	m := NewModel("/app", []string{"/app/bin", "/app/lib.o"})
	updated, _ := m.Update(TargetStartedMsg{Path: "/app/bin", Time: time.Now()})
	m = updated.(Model)

	view := m.View()
	require.Contains(t, view, "/app")
	require.Contains(t, view, "/app/bin")
	require.Contains(t, view, "/app/lib.o")
}

func TestViewShowsSummaryWhenFinished(t *testing.T) {
	m := NewModel("/app", []string{"/app/bin"})
	updated, _ := m.Update(TargetDoneMsg{Path: "/app/bin", Status: StatusBuilt, Time: time.Now()})
	m = updated.(Model)

	view := m.View()
	require.Contains(t, view, "1/1")
	require.Contains(t, view, "build finished")
}

func TestStatusGlyph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"built shows checkmark", string(StatusBuilt), "✓"},
		{"running shows hourglass", string(StatusRunning), "⏳"},
		{"failed shows cross", string(StatusFailed), "✗"},
		{"skipped shows circle-slash", string(StatusSkipped), "⊘"},
		{"pending shows ellipsis", string(StatusPending), "…"},
		{"unknown shows ellipsis", "unknown", "…"},
		{"empty shows ellipsis", "", "…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			glyph := statusGlyph(tt.status)
			require.Contains(t, glyph, tt.expected)
		})
	}
}
