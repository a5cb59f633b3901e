// Package pomodoro implements the focus/rest countdown engine.
package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/store"
)

var ErrSessionActive = errors.New("pomodoro: a session is in progress")

type Kind string

const (
	Idle  Kind = "idle"
	Focus Kind = "focus"
	Rest  Kind = "rest"
)

func (k Kind) opposite() Kind {
	if k == Focus {
		return Rest
	}
	return Focus
}

// State is a copy of the engine's observable session state.
type State struct {
	Kind         Kind
	Remaining    int // seconds, may briefly be negative
	Running      bool
	Paused       bool
	JustFinished bool
	Folder       string // folder bound to the current session
	Selected     string // folder the next session will bind
}

// Display returns the remaining time clamped at zero.
func (s State) Display() time.Duration {
	return time.Duration(max(0, s.Remaining)) * time.Second
}

// Active reports whether a session is running or paused.
func (s State) Active() bool {
	return s.Running || s.Paused
}

// Engine is the timer state machine. It owns a scheduler that emits
// signals on Signals(); the caller feeds them back through Handle from the
// same goroutine that calls every other method. Engine is not safe for
// concurrent use.
type Engine struct {
	journal *Journal
	marker  store.KV
	clock   Clock
	logger  *slog.Logger

	sched *scheduler
	tick  time.Duration
	grace time.Duration
	gen   uint64

	focus int // configured seconds
	rest  int

	kind         Kind
	length       int // seconds the current session was started with
	remaining    int
	running      bool
	paused       bool
	justFinished bool
	completing   bool
	bound        string
	selected     string
}

type Option func(*Engine)

func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tick = d }
}

func WithGrace(d time.Duration) Option {
	return func(e *Engine) { e.grace = d }
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithDurations(focus, rest time.Duration) Option {
	return func(e *Engine) { e.SetDurations(focus, rest) }
}

// New returns an idle engine. marker receives the store.KeyActiveFolder
// scratch value while a bound session is in progress.
func New(journal *Journal, marker store.KV, opts ...Option) *Engine {
	e := &Engine{
		journal: journal,
		marker:  marker,
		clock:   SystemClock{},
		sched:   newScheduler(),
		tick:    time.Second,
		grace:   800 * time.Millisecond,
		kind:    Idle,
	}
	e.SetDurations(DefaultFocus, DefaultRest)
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Signals delivers scheduler output. Pass each value to Handle.
func (e *Engine) Signals() <-chan Signal {
	return e.sched.out
}

// SetDurations changes the configured lengths. They apply the next time a
// session starts or is skipped into. Lengths are truncated to whole
// seconds with a minimum of one.
func (e *Engine) SetDurations(focus, rest time.Duration) {
	e.focus = max(1, int(focus/time.Second))
	e.rest = max(1, int(rest/time.Second))
}

func (e *Engine) Durations() (focus, rest time.Duration) {
	return time.Duration(e.focus) * time.Second, time.Duration(e.rest) * time.Second
}

func (e *Engine) Snapshot() State {
	return State{
		Kind:         e.kind,
		Remaining:    e.remaining,
		Running:      e.running,
		Paused:       e.paused,
		JustFinished: e.justFinished,
		Folder:       e.bound,
		Selected:     e.selected,
	}
}

// SelectFolder chooses the folder the next session binds. Switching away
// from the bound folder of a running or paused session fails with
// ErrSessionActive; use ResetTo instead.
func (e *Engine) SelectFolder(name string) error {
	if (e.running || e.paused) && name != e.bound {
		return fmt.Errorf("%w: bound to %q", ErrSessionActive, e.bound)
	}
	e.selected = name
	return nil
}

// ResetTo abandons the current session without logging it and selects name.
func (e *Engine) ResetTo(ctx context.Context, name string) {
	e.stopSchedule()
	e.kind = Idle
	e.length, e.remaining = 0, 0
	e.running, e.paused = false, false
	e.justFinished, e.completing = false, false
	e.bound = ""
	e.selected = name
	e.clearMarker(ctx)
	e.logger.Info("timer reset", slog.String("folder", name))
}

// FolderDeleted drops any reference to a deleted folder. A session bound
// to it is abandoned.
func (e *Engine) FolderDeleted(ctx context.Context, name string) {
	if e.kind != Idle && e.bound == name {
		sel := e.selected
		if sel == name {
			sel = ""
		}
		e.ResetTo(ctx, sel)
		return
	}
	if e.selected == name {
		e.selected = ""
	}
	if e.bound == name {
		e.bound = ""
	}
}

// Start begins a focus session bound to the selected folder. It only acts
// from Idle.
func (e *Engine) Start(ctx context.Context) {
	if e.kind != Idle {
		return
	}
	e.bound = e.selected
	e.enter(ctx, Focus)
}

// Pause freezes the countdown. Pausing while a completion is pending has
// no effect.
func (e *Engine) Pause() {
	if !e.running || e.completing {
		return
	}
	e.stopSchedule()
	e.running, e.paused = false, true
}

func (e *Engine) Resume() {
	if !e.paused {
		return
	}
	e.running, e.paused = true, false
	if e.remaining <= 0 {
		e.beginCompletion()
		return
	}
	e.startTicking()
}

// Skip moves to the opposite kind without logging. From Idle it goes to
// Rest and binds the selected folder. A completion in its grace window is
// finished immediately instead.
func (e *Engine) Skip(ctx context.Context) error {
	switch {
	case e.completing:
		return e.complete(ctx)
	case e.kind == Idle:
		e.bound = e.selected
		e.enter(ctx, Rest)
	default:
		e.enter(ctx, e.kind.opposite())
	}
	return nil
}

// Tick advances a running countdown by one second.
func (e *Engine) Tick() {
	if !e.running || e.completing {
		return
	}
	e.remaining--
	if e.remaining <= 0 {
		e.beginCompletion()
	}
}

// Handle applies a scheduler signal. Signals from a superseded schedule
// are dropped. The returned error reports a persistence failure; the
// countdown has moved on regardless.
func (e *Engine) Handle(ctx context.Context, sig Signal) error {
	if sig.Gen != e.gen {
		return nil
	}
	switch sig.Kind {
	case SignalTick:
		e.Tick()
	case SignalGrace:
		if e.completing {
			return e.complete(ctx)
		}
	}
	return nil
}

// Close stops the scheduler.
func (e *Engine) Close() {
	e.stopSchedule()
}

func (e *Engine) beginCompletion() {
	e.completing = true
	e.justFinished = true
	e.gen++
	e.sched.after(e.grace, e.gen)
}

func (e *Engine) complete(ctx context.Context) error {
	finished := e.kind
	entry := history.NewEntry(e.clock.Now(), history.SessionType(finished), e.bound, float64(e.length)/60)

	e.completing = false
	e.justFinished = false
	err := e.journal.Record(ctx, entry)
	e.clearMarker(ctx)
	e.enter(ctx, finished.opposite())
	return err
}

// enter begins a running session of kind k with its configured length.
func (e *Engine) enter(ctx context.Context, k Kind) {
	e.completing, e.justFinished = false, false
	e.kind = k
	e.length = e.focus
	if k == Rest {
		e.length = e.rest
	}
	e.remaining = e.length
	e.running, e.paused = true, false
	e.setMarker(ctx)
	e.logger.Info("session started",
		slog.String("kind", string(k)),
		slog.String("folder", e.bound),
		slog.Int("seconds", e.remaining),
	)
	e.startTicking()
}

func (e *Engine) startTicking() {
	e.gen++
	e.sched.every(e.tick, e.gen)
}

func (e *Engine) stopSchedule() {
	e.gen++
	e.sched.stop()
}

func (e *Engine) setMarker(ctx context.Context) {
	if e.marker == nil || e.bound == "" {
		return
	}
	if err := e.marker.Set(ctx, store.KeyActiveFolder, e.bound); err != nil {
		e.logger.Warn("active folder not saved", slog.String("error", err.Error()))
	}
}

func (e *Engine) clearMarker(ctx context.Context) {
	if e.marker == nil {
		return
	}
	if err := e.marker.Remove(ctx, store.KeyActiveFolder); err != nil {
		e.logger.Warn("active folder not cleared", slog.String("error", err.Error()))
	}
}
