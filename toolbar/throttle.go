package toolbar

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the toolbar needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped
// by RealAfterFunc; tests inject a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc runs f on its own goroutine after d.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// throttleConfig controls the coalescing behaviour.
type throttleConfig struct {
	// Frame is the coalescing window. Default: 16ms (one frame at 60Hz).
	Frame time.Duration
	// AfterFunc schedules the flush. Default: RealAfterFunc.
	AfterFunc AfterFunc
}

func (tc *throttleConfig) defaults() {
	if tc.Frame <= 0 {
		tc.Frame = 16 * time.Millisecond
	}
	if tc.AfterFunc == nil {
		tc.AfterFunc = RealAfterFunc
	}
}

// throttle collapses bursts of triggers (scroll, resize) into at most one
// call of flushFn per frame.
type throttle struct {
	cfg     throttleConfig
	flushFn func()

	mu      sync.Mutex
	pending bool
	stopped bool
	timer   Timer
}

func newThrottle(cfg throttleConfig, flushFn func()) *throttle {
	cfg.defaults()
	return &throttle{cfg: cfg, flushFn: flushFn}
}

// trigger requests a flush. Returns false if one is already scheduled or
// the throttle was stopped.
func (t *throttle) trigger() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending || t.stopped {
		return false
	}
	t.pending = true
	t.timer = t.cfg.AfterFunc(t.cfg.Frame, t.fire)
	return true
}

func (t *throttle) fire() {
	t.mu.Lock()
	if !t.pending || t.stopped {
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.timer = nil
	t.mu.Unlock()

	t.flushFn()
}

// stop cancels any scheduled flush. Later triggers are ignored.
func (t *throttle) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
