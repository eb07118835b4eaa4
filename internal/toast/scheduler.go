package toast

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable deferred callback.
type Timer interface {
	Stop() bool
}

// Scheduler defers work the way a page event loop does: timers, plus a
// hand-off to the next animation frame.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	NextFrame(f func())
}

const defaultFrameInterval = 16 * time.Millisecond

// RealScheduler runs callbacks on wall-clock timers.
type RealScheduler struct {
	FrameInterval time.Duration
}

func (r RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (r RealScheduler) NextFrame(f func()) {
	interval := r.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	time.AfterFunc(interval, f)
}

// ManualScheduler is a virtual clock for headless use. Nothing runs until
// Frame or Advance is called, and callbacks run on the caller's goroutine.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualTimer
	frames []func()
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *ManualScheduler) NextFrame(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

// Frame runs the callbacks queued for the next animation frame and returns
// how many ran. Callbacks queued meanwhile wait for the following frame.
func (s *ManualScheduler) Frame() int {
	s.mu.Lock()
	frames := s.frames
	s.frames = nil
	s.mu.Unlock()

	for _, f := range frames {
		f()
	}
	return len(frames)
}

// Advance renders the pending frame, then moves the clock forward by d,
// firing due timers in deadline order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.Frame()

	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.at
		next.fired = true
		s.mu.Unlock()

		next.fn()
	}
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compact()
	return len(s.timers)
}

// nextDue must be called with s.mu held.
func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	s.compact()
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at != s.timers[j].at {
			return s.timers[i].at < s.timers[j].at
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	if len(s.timers) == 0 || s.timers[0].at > target {
		return nil
	}
	return s.timers[0]
}

func (s *ManualScheduler) compact() {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = kept
}
