package pomodoro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/studyr/internal/goals"
	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/store"
)

var testNow = time.Date(2026, 3, 4, 10, 30, 0, 0, time.Local)

type harness struct {
	engine  *Engine
	store   *store.Store
	history *history.Log
	goals   *goals.Aggregator
}

// newHarness builds an engine whose scheduler never fires on its own, so
// tests drive it through Tick and fireGrace.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	h := history.NewLog(s, nil)
	g := goals.NewAggregator(s, nil)
	base := []Option{
		WithTickInterval(time.Hour),
		WithGrace(time.Hour),
		WithClock(FixedClock(testNow)),
	}
	e := New(NewJournal(h, g, nil), s, append(base, opts...)...)
	t.Cleanup(e.Close)
	return &harness{engine: e, store: s, history: h, goals: g}
}

func fireGrace(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Handle(context.Background(), Signal{Kind: SignalGrace, Gen: e.gen}))
}

func (h *harness) entries(t *testing.T) []history.Entry {
	t.Helper()
	entries, err := h.history.LoadAll(context.Background())
	require.NoError(t, err)
	return entries
}

func (h *harness) activeFolder(t *testing.T) (string, bool) {
	t.Helper()
	var name string
	ok, err := h.store.Get(context.Background(), store.KeyActiveFolder, &name)
	require.NoError(t, err)
	return name, ok
}

// ============================================================
// Transitions
// ============================================================

func TestNewEngineIsIdle(t *testing.T) {
	h := newHarness(t)
	st := h.engine.Snapshot()
	require.Equal(t, Idle, st.Kind)
	require.False(t, st.Running)
	require.False(t, st.Paused)
	require.Zero(t, st.Remaining)

	focus, rest := h.engine.Durations()
	require.Equal(t, DefaultFocus, focus)
	require.Equal(t, DefaultRest, rest)
}

func TestStartFromIdle(t *testing.T) {
	h := newHarness(t, WithDurations(10*time.Second, 5*time.Second))
	ctx := context.Background()

	require.NoError(t, h.engine.SelectFolder("CMPT403"))
	h.engine.Start(ctx)

	st := h.engine.Snapshot()
	require.Equal(t, Focus, st.Kind)
	require.Equal(t, 10, st.Remaining)
	require.True(t, st.Running)
	require.Equal(t, "CMPT403", st.Folder)

	name, ok := h.activeFolder(t)
	require.True(t, ok)
	require.Equal(t, "CMPT403", name)

	// Start is ignored outside Idle.
	h.engine.Tick()
	h.engine.Start(ctx)
	require.Equal(t, 9, h.engine.Snapshot().Remaining)
}

func TestSkipFromIdleGoesToRest(t *testing.T) {
	h := newHarness(t, WithDurations(10*time.Second, 5*time.Second))
	require.NoError(t, h.engine.SelectFolder("A"))
	require.NoError(t, h.engine.Skip(context.Background()))

	st := h.engine.Snapshot()
	require.Equal(t, Rest, st.Kind)
	require.Equal(t, 5, st.Remaining)
	require.True(t, st.Running)
	require.Equal(t, "A", st.Folder)
}

func TestSkipAlternates(t *testing.T) {
	h := newHarness(t, WithDurations(10*time.Second, 5*time.Second))
	ctx := context.Background()

	h.engine.Start(ctx)
	require.NoError(t, h.engine.Skip(ctx))
	require.Equal(t, Rest, h.engine.Snapshot().Kind)

	h.engine.Pause()
	require.NoError(t, h.engine.Skip(ctx))
	st := h.engine.Snapshot()
	require.Equal(t, Focus, st.Kind)
	require.True(t, st.Running)
	require.False(t, st.Paused)
	require.Equal(t, 10, st.Remaining)

	require.Empty(t, h.entries(t), "skip must not log history")
}

func TestTickPauseResume(t *testing.T) {
	h := newHarness(t, WithDurations(10*time.Second, 5*time.Second))
	e := h.engine
	e.Start(context.Background())

	for want := 9; want >= 7; want-- {
		e.Tick()
		require.Equal(t, want, e.Snapshot().Remaining)
	}

	e.Pause()
	st := e.Snapshot()
	require.False(t, st.Running)
	require.True(t, st.Paused)
	require.False(t, e.sched.active())

	e.Tick()
	e.Tick()
	require.Equal(t, 7, e.Snapshot().Remaining, "paused countdown must not move")

	e.Resume()
	require.True(t, e.Snapshot().Running)
	require.True(t, e.sched.active())
	e.Tick()
	require.Equal(t, 6, e.Snapshot().Remaining)
}

func TestRunningAndPausedNeverBoth(t *testing.T) {
	h := newHarness(t, WithDurations(2*time.Second, 2*time.Second))
	e := h.engine
	ctx := context.Background()

	check := func() {
		st := e.Snapshot()
		require.False(t, st.Running && st.Paused)
		if st.Kind == Idle {
			require.False(t, st.Running)
		}
	}
	check()
	e.Start(ctx)
	check()
	e.Pause()
	check()
	e.Resume()
	check()
	e.Tick()
	e.Tick()
	check()
	fireGrace(t, e)
	check()
	e.ResetTo(ctx, "")
	check()
}

func TestStaleSignalsAreIgnored(t *testing.T) {
	h := newHarness(t, WithDurations(10*time.Second, 5*time.Second))
	e := h.engine
	ctx := context.Background()

	e.Start(ctx)
	stale := Signal{Kind: SignalTick, Gen: e.gen}
	e.Pause()
	e.Resume()

	require.NoError(t, e.Handle(ctx, stale))
	require.Equal(t, 10, e.Snapshot().Remaining)

	require.NoError(t, e.Handle(ctx, Signal{Kind: SignalTick, Gen: e.gen}))
	require.Equal(t, 9, e.Snapshot().Remaining)
}

// ============================================================
// Completion
// ============================================================

func TestCompletionIsLatched(t *testing.T) {
	h := newHarness(t, WithDurations(2*time.Second, 5*time.Second))
	e := h.engine
	ctx := context.Background()

	require.NoError(t, e.SelectFolder("A"))
	e.Start(ctx)
	e.Tick()
	e.Tick()

	st := e.Snapshot()
	require.True(t, st.JustFinished)
	require.Equal(t, Focus, st.Kind)
	require.Zero(t, st.Remaining)

	// Ticks during the grace window change nothing.
	for range 5 {
		e.Tick()
		require.NoError(t, e.Handle(ctx, Signal{Kind: SignalTick, Gen: e.gen}))
	}
	require.Zero(t, e.Snapshot().Remaining)
	require.Empty(t, h.entries(t))

	graceGen := e.gen
	fireGrace(t, e)
	require.NoError(t, e.Handle(ctx, Signal{Kind: SignalGrace, Gen: graceGen}))

	entries := h.entries(t)
	require.Len(t, entries, 1)
	require.Equal(t, history.Focus, entries[0].SessionType)

	st = e.Snapshot()
	require.Equal(t, Rest, st.Kind)
	require.Equal(t, 5, st.Remaining)
	require.True(t, st.Running)
	require.False(t, st.JustFinished)
}

func TestPauseDuringGraceIsIgnored(t *testing.T) {
	h := newHarness(t, WithDurations(time.Second, time.Second))
	e := h.engine
	e.Start(context.Background())
	e.Tick()
	e.Pause()
	require.True(t, e.Snapshot().Running)
	fireGrace(t, e)
	require.Len(t, h.entries(t), 1)
}

func TestSkipDuringGraceCompletesOnce(t *testing.T) {
	h := newHarness(t, WithDurations(time.Second, 3*time.Second))
	e := h.engine
	ctx := context.Background()

	e.Start(ctx)
	graceGen := e.gen + 1
	e.Tick()
	require.Equal(t, graceGen, e.gen)

	require.NoError(t, e.Skip(ctx))
	require.NoError(t, e.Handle(ctx, Signal{Kind: SignalGrace, Gen: graceGen}))

	require.Len(t, h.entries(t), 1)
	st := e.Snapshot()
	require.Equal(t, Rest, st.Kind)
	require.Equal(t, 3, st.Remaining)
}

func TestRestCompletionDoesNotCountTowardGoal(t *testing.T) {
	h := newHarness(t, WithDurations(time.Minute, time.Second))
	e := h.engine
	ctx := context.Background()

	require.NoError(t, e.Skip(ctx))
	e.Tick()
	fireGrace(t, e)

	entries := h.entries(t)
	require.Len(t, entries, 1)
	require.Equal(t, history.Rest, entries[0].SessionType)
	require.Equal(t, history.NoFolder, entries[0].Folder)
	require.InDelta(t, 1.0/60, entries[0].Minutes, 1e-9)

	total, err := h.goals.Total(ctx, testNow.Format(goals.DateLayout))
	require.NoError(t, err)
	require.Zero(t, total)
	require.Equal(t, Focus, e.Snapshot().Kind)
}

func TestMinutesUseConfiguredLength(t *testing.T) {
	h := newHarness(t, WithDurations(2*time.Second, time.Second))
	e := h.engine
	ctx := context.Background()

	e.Start(ctx)
	// A change mid-session applies to the next one.
	e.SetDurations(time.Hour, time.Second)
	e.Tick()
	e.Pause()
	e.Resume()
	e.Tick()
	fireGrace(t, e)

	entries := h.entries(t)
	require.Len(t, entries, 1)
	require.InDelta(t, 2.0/60, entries[0].Minutes, 1e-9)
}

func TestCompletionClearsMarker(t *testing.T) {
	h := newHarness(t, WithDurations(time.Second, time.Second))
	e := h.engine
	ctx := context.Background()

	e.Start(ctx)
	_, ok := h.activeFolder(t)
	require.False(t, ok, "no marker for an unbound session")

	e.ResetTo(ctx, "A")
	e.Start(ctx)
	e.Tick()
	require.NoError(t, h.store.Remove(ctx, store.KeyActiveFolder))
	fireGrace(t, e)

	// The follow-up session is bound to the same folder and marks it again.
	name, ok := h.activeFolder(t)
	require.True(t, ok)
	require.Equal(t, "A", name)
	require.Equal(t, "A", e.Snapshot().Folder)
}

// ============================================================
// Folder binding
// ============================================================

func TestFolderSwitchRequiresReset(t *testing.T) {
	h := newHarness(t)
	e := h.engine
	ctx := context.Background()

	require.NoError(t, e.SelectFolder("A"))
	e.Start(ctx)

	err := e.SelectFolder("B")
	require.ErrorIs(t, err, ErrSessionActive)
	require.Equal(t, "A", e.Snapshot().Folder)

	e.Pause()
	require.ErrorIs(t, e.SelectFolder("B"), ErrSessionActive)
	require.NoError(t, e.SelectFolder("A"))

	e.ResetTo(ctx, "B")
	st := e.Snapshot()
	require.Equal(t, Idle, st.Kind)
	require.Zero(t, st.Remaining)
	require.False(t, st.Running)
	require.False(t, st.Paused)
	require.Equal(t, "B", st.Selected)
	require.False(t, e.sched.active())

	_, ok := h.activeFolder(t)
	require.False(t, ok)

	e.Start(ctx)
	require.Equal(t, "B", e.Snapshot().Folder)
}

func TestFolderDeleted(t *testing.T) {
	h := newHarness(t)
	e := h.engine
	ctx := context.Background()

	require.NoError(t, e.SelectFolder("A"))
	e.FolderDeleted(ctx, "B")
	require.Equal(t, "A", e.Snapshot().Selected)

	e.Start(ctx)
	e.FolderDeleted(ctx, "A")
	st := e.Snapshot()
	require.Equal(t, Idle, st.Kind)
	require.Empty(t, st.Selected)
	require.Empty(t, st.Folder)
}

// ============================================================
// Persistence failures
// ============================================================

type failingAppender struct {
	fail  bool
	calls int
	got   []history.Entry
}

func (f *failingAppender) Append(_ context.Context, e history.Entry) error {
	f.calls++
	if f.fail {
		return store.ErrWrite
	}
	f.got = append(f.got, e)
	return nil
}

func TestAppendFailureKeepsCounting(t *testing.T) {
	s, err := store.NewMemory()
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	app := &failingAppender{fail: true}
	g := goals.NewAggregator(s, nil)
	e := New(NewJournal(app, g, nil), s,
		WithTickInterval(time.Hour), WithGrace(time.Hour),
		WithClock(FixedClock(testNow)), WithDurations(time.Second, 2*time.Second))
	defer e.Close()

	e.Start(ctx)
	e.Tick()
	err = e.Handle(ctx, Signal{Kind: SignalGrace, Gen: e.gen})
	require.True(t, errors.Is(err, store.ErrWrite))

	st := e.Snapshot()
	require.Equal(t, Rest, st.Kind)
	require.True(t, st.Running)
	require.Equal(t, 1, e.journal.Pending())

	total, _ := g.Total(ctx, testNow.Format(goals.DateLayout))
	require.Zero(t, total, "daily total must wait for the history append")
}

// ============================================================
// End to end with the real scheduler
// ============================================================

func TestEndToEndFocusSession(t *testing.T) {
	s, err := store.NewMemory()
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	h := history.NewLog(s, nil)
	g := goals.NewAggregator(s, nil)
	e := New(NewJournal(h, g, nil), s,
		WithTickInterval(10*time.Millisecond),
		WithGrace(30*time.Millisecond),
		WithClock(FixedClock(testNow)),
		WithDurations(time.Second, time.Second),
	)
	defer e.Close()

	require.NoError(t, e.SelectFolder("CMPT403"))
	e.Start(ctx)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case sig := <-e.Signals():
			require.NoError(t, e.Handle(ctx, sig))
		case <-deadline:
			t.Fatal("session did not complete")
		}
		st := e.Snapshot()
		if st.Kind == Rest {
			require.True(t, st.Running)
			require.False(t, st.JustFinished)
			break
		}
	}

	entries, err := h.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, history.Focus, entries[0].SessionType)
	require.Equal(t, "CMPT403", entries[0].Folder)
	require.InDelta(t, 1.0/60, entries[0].Minutes, 1e-9)
	require.Equal(t, "2026-03-04", entries[0].Date)

	total, err := g.Total(ctx, "2026-03-04")
	require.NoError(t, err)
	require.InDelta(t, 1.0/60, total, 1e-9)
}
