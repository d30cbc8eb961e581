package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, m.Init()

	case TargetStartedMsg:
		m.ensure(msg.Path)
		r := m.targets[msg.Path]
		r.Status = StatusRunning
		r.Started = msg.Time
		m.targets[msg.Path] = r
		return m, nil

	case TargetDoneMsg:
		m.ensure(msg.Path)
		existing := m.targets[msg.Path]
		wasTerminal := existing.Status == StatusBuilt || existing.Status == StatusFailed || existing.Status == StatusSkipped
		existing.Status = msg.Status
		existing.Err = msg.Err
		if !existing.Started.IsZero() {
			existing.Duration = msg.Time.Sub(existing.Started)
		}
		m.targets[msg.Path] = existing
		if !wasTerminal {
			m.completed++
			m.markFinishedIfComplete()
		}
		return m, nil

	case BuildFinishedMsg:
		m.finished = true
		m.buildErr = msg.Err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
		if m.finished && (msg.Type == tea.KeyEnter || msg.String() == "q") {
			return m, tea.Quit
		}

	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
