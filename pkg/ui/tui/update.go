package tui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// BatchMsg is sent when the pipeline fetched a batch
type BatchMsg struct {
	Batch int
	Size  int
}

// ActionMsg is sent when one delete or unlike returned
type ActionMsg struct {
	ID  string
	Err error
}

// RunDoneMsg is sent when the pipeline returned
type RunDoneMsg struct {
	Err error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tea.Batch(
			tickCmd(),
			m.spinner.Tick,
		)

	case BatchMsg:
		m.StartBatch(msg.Batch, msg.Size)
		m.AddLogMessage("INFO", "Fetched batch of "+strconv.Itoa(msg.Size))
		return m, nil

	case ActionMsg:
		m.RecordAction(msg.ID, msg.Err)
		if msg.Err != nil {
			m.AddLogMessage("ERROR", msg.ID+": "+msg.Err.Error())
		}
		return m, nil

	case RunDoneMsg:
		m.Finish(msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Paused by user")
		} else {
			m.AddLogMessage("INFO", "Resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// Commands

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
