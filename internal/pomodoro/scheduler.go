package pomodoro

import "time"

type SignalKind int

const (
	SignalTick SignalKind = iota
	SignalGrace
)

// Signal is emitted by the engine's scheduler. Gen identifies the schedule
// that produced it; signals from a superseded schedule are ignored.
type Signal struct {
	Kind SignalKind
	Gen  uint64
}

// scheduler runs at most one timer goroutine at a time. It only emits
// signals; all state changes happen on the goroutine that calls Handle.
type scheduler struct {
	out    chan Signal
	stopCh chan struct{}
	doneCh chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{out: make(chan Signal, 1)}
}

// every emits a tick signal each interval until stopped.
func (s *scheduler) every(interval time.Duration, gen uint64) {
	s.start(interval, Signal{Kind: SignalTick, Gen: gen}, true)
}

// after emits a single grace signal once d has elapsed.
func (s *scheduler) after(d time.Duration, gen uint64) {
	s.start(d, Signal{Kind: SignalGrace, Gen: gen}, false)
}

func (s *scheduler) start(d time.Duration, sig Signal, repeat bool) {
	s.stop()
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	s.stopCh, s.doneCh = stopCh, doneCh
	go s.loop(d, sig, repeat, stopCh, doneCh)
}

func (s *scheduler) loop(d time.Duration, sig Signal, repeat bool, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(d)
	defer stopTimer(timer)
	for {
		select {
		case <-timer.C:
			select {
			case s.out <- sig:
			case <-stopCh:
				return
			}
			if !repeat {
				return
			}
			timer = resetTimer(timer, d)
		case <-stopCh:
			return
		}
	}
}

// stop cancels the running timer goroutine, if any, and waits for it to exit.
func (s *scheduler) stop() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.stopCh, s.doneCh = nil, nil
}

// active reports whether a timer goroutine is still running.
func (s *scheduler) active() bool {
	if s.doneCh == nil {
		return false
	}
	select {
	case <-s.doneCh:
		return false
	default:
		return true
	}
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
