package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"xpurge/pkg/pipeline"
)

// ActionState is the outcome of one delete or unlike
type ActionState int

const (
	ActionDone ActionState = iota
	ActionFailed
	ActionSkipped
)

// ActionItem is one finished action
type ActionItem struct {
	ID    string
	State ActionState
	Err   error
	At    time.Time
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	progress progress.Model

	// Run identity
	kind     pipeline.Kind
	username string

	// Current batch
	batch     int
	batchSize int
	batchDone int

	// Totals
	acted            int
	failed           int
	skipped          int
	recent           []ActionItem
	maxRecent        int
	sessionStartTime time.Time

	// Set once the pipeline returns
	finished  bool
	finishErr error

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	// onQuit cancels the run when the operator quits
	onQuit func()

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a model for a run of kind on behalf of username
func NewModel(kind pipeline.Kind, username string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return &Model{
		spinner:          s,
		progress:         p,
		kind:             kind,
		username:         username,
		maxRecent:        8,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// StartBatch resets the per-batch counters
func (m *Model) StartBatch(batch, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batch = batch
	m.batchSize = size
	m.batchDone = 0
}

// RecordAction counts one finished action
func (m *Model) RecordAction(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := ActionItem{ID: id, At: time.Now(), Err: err}
	switch {
	case err == nil:
		item.State = ActionDone
		m.acted++
	case m.kind == pipeline.KindUnlike:
		item.State = ActionSkipped
		m.skipped++
	default:
		item.State = ActionFailed
		m.failed++
	}
	m.batchDone++

	m.recent = append(m.recent, item)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// Finish marks the run as over
func (m *Model) Finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.finished = true
	m.finishErr = err
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = alertRed
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// RecentActions returns a copy of the latest actions, oldest first
func (m *Model) RecentActions() []ActionItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ActionItem(nil), m.recent...)
}

// Paused reports whether the operator paused the run
func (m *Model) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// BatchProgress returns the fraction of the current batch already handled
func (m *Model) BatchProgress() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batchProgress()
}

func (m *Model) batchProgress() float64 {
	if m.batchSize == 0 {
		return 0
	}
	p := float64(m.batchDone) / float64(m.batchSize)
	if p > 1 {
		p = 1
	}
	return p
}

// Stats returns the action rate per minute and the estimated time left in the batch
func (m *Model) Stats() (perMinute float64, batchETA time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats()
}

func (m *Model) stats() (perMinute float64, batchETA time.Duration) {
	handled := m.acted + m.failed + m.skipped
	elapsed := time.Since(m.sessionStartTime)
	if handled == 0 || elapsed <= 0 {
		return 0, 0
	}

	perMinute = float64(handled) / elapsed.Minutes()
	remaining := m.batchSize - m.batchDone
	if remaining > 0 {
		batchETA = elapsed / time.Duration(handled) * time.Duration(remaining)
	}
	return perMinute, batchETA
}

// FormatRate formats an action rate
func FormatRate(perMinute float64) string {
	return fmt.Sprintf("%.1f/min", perMinute)
}
