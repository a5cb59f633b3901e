package pomodoro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, s *scheduler) Signal {
	t.Helper()
	select {
	case sig := <-s.out:
		return sig
	case <-time.After(2 * time.Second):
		t.Fatal("no signal")
		return Signal{}
	}
}

func TestSchedulerEvery(t *testing.T) {
	s := newScheduler()
	defer s.stop()

	s.every(5*time.Millisecond, 7)
	for range 3 {
		sig := receive(t, s)
		require.Equal(t, SignalTick, sig.Kind)
		require.Equal(t, uint64(7), sig.Gen)
	}
	require.True(t, s.active())
}

func TestSchedulerAfterFiresOnce(t *testing.T) {
	s := newScheduler()
	defer s.stop()

	s.after(5*time.Millisecond, 3)
	sig := receive(t, s)
	require.Equal(t, SignalGrace, sig.Kind)
	require.Equal(t, uint64(3), sig.Gen)

	select {
	case sig := <-s.out:
		t.Fatalf("unexpected second signal %+v", sig)
	case <-time.After(30 * time.Millisecond):
	}
	require.False(t, s.active())
}

func TestSchedulerRestartReplacesSource(t *testing.T) {
	s := newScheduler()
	s.every(time.Millisecond, 1)
	s.every(time.Millisecond, 2)
	defer s.stop()

	// At most one stale value can be buffered from the first source.
	for range 3 {
		if sig := receive(t, s); sig.Gen == 2 {
			return
		}
	}
	t.Fatal("new source never delivered")
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := newScheduler()
	s.stop()
	s.every(time.Hour, 1)
	s.stop()
	s.stop()
	require.False(t, s.active())
}
