package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"xpurge/pkg/pipeline"
	"xpurge/pkg/ratelimit"
)

// TUI shows a live dashboard of one pipeline run. It implements pipeline.Observer.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard for a run of kind. cancel is called when the operator quits.
func NewTUI(kind pipeline.Kind, username string, cancel context.CancelFunc, opts ...tea.ProgramOption) *TUI {
	model := NewModel(kind, username)
	model.onQuit = cancel

	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Start runs the UI until the run finishes or the operator quits
func (t *TUI) Start() error {
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

func (t *TUI) send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// BatchFetched reports a new batch
func (t *TUI) BatchFetched(_ pipeline.Kind, batch, size int) {
	t.send(BatchMsg{Batch: batch, Size: size})
}

// ActionDone reports one delete or unlike
func (t *TUI) ActionDone(_ pipeline.Kind, id string, err error) {
	t.send(ActionMsg{ID: id, Err: err})
}

// Done ends the UI with the run's outcome
func (t *TUI) Done(err error) {
	t.send(RunDoneMsg{Err: err})
}

// IsPaused returns whether the operator paused the run
func (t *TUI) IsPaused() bool {
	return t.model.Paused()
}

// Pacer wraps inner so that the run also holds while the operator has it paused
func (t *TUI) Pacer(inner ratelimit.Pacer) ratelimit.Pacer {
	return &pausablePacer{inner: inner, paused: t.IsPaused, poll: 100 * time.Millisecond}
}

type pausablePacer struct {
	inner  ratelimit.Pacer
	paused func() bool
	poll   time.Duration
}

func (p *pausablePacer) Pause(ctx context.Context) error {
	if err := p.inner.Pause(ctx); err != nil {
		return err
	}

	for p.paused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.poll):
		}
	}
	return nil
}
