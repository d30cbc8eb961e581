package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestUpdateHandlesTargetStart(t *testing.T) {
	m := NewModel("/app", []string{"/app/bin"})
	updated, _ := m.Update(TargetStartedMsg{Path: "/app/bin", Time: time.Now()})
	m = updated.(Model)
	require.Equal(t, StatusRunning, m.targets["/app/bin"].Status)
}

func TestUpdateHandlesTargetCompletion(t *testing.T) {
	m := NewModel("/app", []string{"/app/bin"})
	updated, _ := m.Update(TargetDoneMsg{Path: "/app/bin", Status: StatusBuilt, Time: time.Now()})
	m = updated.(Model)
	require.Equal(t, StatusBuilt, m.targets["/app/bin"].Status)
	require.Equal(t, 1, m.completed)
}

func TestUpdateHandlesFailedTarget(t *testing.T) {
	m := NewModel("/app", []string{"/app/bin"})
	updated, _ := m.Update(TargetDoneMsg{Path: "/app/bin", Status: StatusFailed, Err: require.AnError, Time: time.Now()})
	m = updated.(Model)
	require.Equal(t, StatusFailed, m.targets["/app/bin"].Status)
	require.ErrorIs(t, m.targets["/app/bin"].Err, require.AnError)
}

func TestUpdateHandlesTeaMessages(t *testing.T) {
	m := NewModel("/app", nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	m = updated.(Model)
	require.True(t, m.cancelled)
}

func TestUpdateHandlesBuildFinished(t *testing.T) {
	m := NewModel("/app", nil)
	updated, _ := m.Update(BuildFinishedMsg{})
	m = updated.(Model)
	require.True(t, m.finished)
}
