package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/studyr/internal/pomodoro"
)

// timerModel adapts the session engine to Bubble Tea. Engine calls happen
// only inside Update, so the engine is only ever touched by the program loop.
type timerModel struct {
	ctx    context.Context
	engine *pomodoro.Engine
}

func newTimerModel(ctx context.Context, e *pomodoro.Engine) timerModel {
	return timerModel{ctx: ctx, engine: e}
}

// listen waits for the engine's next scheduler signal. Exactly one listen
// command is outstanding at any time.
func (t timerModel) listen() tea.Cmd {
	ch := t.engine.Signals()
	return func() tea.Msg {
		return engineSignalMsg(<-ch)
	}
}

// handle applies a scheduler signal and re-arms the listener.
func (t timerModel) handle(msg engineSignalMsg) tea.Cmd {
	before := t.engine.Snapshot()
	err := t.engine.Handle(t.ctx, pomodoro.Signal(msg))
	return tea.Batch(t.listen(), t.afterTransition(before, err))
}

func (t timerModel) start() tea.Cmd {
	if t.state().Kind != pomodoro.Idle {
		return nil
	}
	t.engine.Start(t.ctx)
	return func() tea.Msg { return statusMsg{text: "Focus started"} }
}

func (t timerModel) toggle() {
	st := t.state()
	switch {
	case st.Running:
		t.engine.Pause()
	case st.Paused:
		t.engine.Resume()
	}
}

func (t timerModel) skip() tea.Cmd {
	before := t.engine.Snapshot()
	err := t.engine.Skip(t.ctx)
	return t.afterTransition(before, err)
}

func (t timerModel) reset(folder string) {
	t.engine.ResetTo(t.ctx, folder)
}

func (t timerModel) selectFolder(name string) error {
	return t.engine.SelectFolder(name)
}

func (t timerModel) folderDeleted(name string) {
	t.engine.FolderDeleted(t.ctx, name)
}

func (t timerModel) state() pomodoro.State {
	return t.engine.Snapshot()
}

// afterTransition reports journal failures and announces a finished
// session so data views can reload.
func (t timerModel) afterTransition(before pomodoro.State, err error) tea.Cmd {
	var cmds []tea.Cmd
	if err != nil {
		cmds = append(cmds, func() tea.Msg { return errStatus("Session not saved", err) })
	}
	if before.JustFinished && !t.engine.Snapshot().JustFinished {
		kind := before.Kind
		cmds = append(cmds, func() tea.Msg { return sessionDoneMsg{} })
		if err == nil {
			text := "Focus complete, time to rest \a"
			if kind == pomodoro.Rest {
				text = "Rest over, back to focus \a"
			}
			cmds = append(cmds, func() tea.Msg { return statusMsg{text: text} })
		}
	}
	return tea.Batch(cmds...)
}
