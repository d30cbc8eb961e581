package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"forge/internal/tui/components"
)

// Status is a target's progress state as reported by the scheduler.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "started"
	StatusBuilt   Status = "built"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// TargetResult is one target's latest known status.
type TargetResult struct {
	Path     string
	Status   Status
	Err      error
	Started  time.Time
	Duration time.Duration
}

// TargetStartedMsg reports that a target's build function began running.
type TargetStartedMsg struct {
	Path string
	Time time.Time
}

// TargetDoneMsg reports that a target finished (built, failed, or skipped).
type TargetDoneMsg struct {
	Path   string
	Status Status
	Err    error
	Time   time.Time
}

// BuildFinishedMsg is sent once the whole scheduler pass has returned.
type BuildFinishedMsg struct {
	Err error
}

type tickMsg struct{}

// Model is the Bubbletea state for forge's build progress display.
type Model struct {
	goal      string
	targets   map[string]TargetResult
	order     []string
	total     int
	completed int
	finished  bool
	cancelled bool
	buildErr  error
}

// NewModel constructs a Model tracking the named outdated targets under goal.
func NewModel(goal string, outdated []string) Model {
	m := Model{
		goal:    goal,
		targets: make(map[string]TargetResult, len(outdated)),
		order:   make([]string, 0, len(outdated)),
	}
	for _, path := range outdated {
		m.ensure(path)
	}
	return m
}

// Init starts the periodic tick used to keep the spinner-free view live.
func (m Model) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) ensure(path string) {
	if path == "" {
		return
	}
	if _, ok := m.targets[path]; !ok {
		m.targets[path] = TargetResult{Path: path, Status: StatusPending}
		m.order = append(m.order, path)
		m.total++
	}
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}

// TotalTargets returns how many targets this build is tracking.
func (m Model) TotalTargets() int { return m.total }

// CompletedTargets returns how many have reached a terminal status.
func (m Model) CompletedTargets() int { return m.completed }

// Finished reports whether every tracked target has reached a terminal status
// or the build itself has returned.
func (m Model) Finished() bool { return m.finished }

// FailedTargets returns how many tracked targets reached StatusFailed.
func (m Model) FailedTargets() int {
	var n int
	for _, r := range m.targets {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}

func entries(order []string, targets map[string]TargetResult) []components.TargetEntry {
	out := make([]components.TargetEntry, 0, len(order))
	for _, path := range order {
		out = append(out, components.TargetEntry{Path: path, Status: string(targets[path].Status), Err: targets[path].Err})
	}
	return out
}
