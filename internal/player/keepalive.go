package player

import (
	"sync"
	"sync/atomic"
	"time"
)

const defaultStallAfter = 2 * time.Second

// Verify BeepKeepAlive implements KeepAlive at compile time.
var _ KeepAlive = (*BeepKeepAlive)(nil)

// BeepKeepAlive streams silence through the speaker. Each pull from the
// mixer marks the session alive; a session nobody pulls from has stalled.
type BeepKeepAlive struct {
	out        Output
	now        func() time.Time
	stallAfter time.Duration

	mu      sync.Mutex
	running bool
	beat    *heartbeat
}

// KeepAliveOption configures a BeepKeepAlive.
type KeepAliveOption func(*BeepKeepAlive)

// WithClock overrides the time source.
func WithClock(now func() time.Time) KeepAliveOption {
	return func(k *BeepKeepAlive) { k.now = now }
}

// WithStallAfter sets how long without a pull counts as stalled.
func WithStallAfter(d time.Duration) KeepAliveOption {
	return func(k *BeepKeepAlive) { k.stallAfter = d }
}

// NewBeepKeepAlive creates a keep-alive session on the given output.
func NewBeepKeepAlive(out Output, opts ...KeepAliveOption) *BeepKeepAlive {
	k := &BeepKeepAlive{
		out:        out,
		now:        time.Now,
		stallAfter: defaultStallAfter,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// heartbeat is a silent beep.Streamer recording when it was last pulled.
type heartbeat struct {
	now      func() time.Time
	lastPull atomic.Int64
	stopped  atomic.Bool
}

func (h *heartbeat) Stream(samples [][2]float64) (int, bool) {
	if h.stopped.Load() {
		return 0, false
	}
	clear(samples)
	h.lastPull.Store(h.now().UnixNano())
	return len(samples), true
}

func (h *heartbeat) Err() error { return nil }

// Start plays the silent session. Starting a running session is a no-op.
func (k *BeepKeepAlive) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return nil
	}
	if err := k.playLocked(); err != nil {
		return err
	}
	k.running = true
	return nil
}

func (k *BeepKeepAlive) playLocked() error {
	if err := k.out.Init(); err != nil {
		return err
	}
	if k.beat != nil {
		k.beat.stopped.Store(true)
	}
	k.beat = &heartbeat{now: k.now}
	k.beat.lastPull.Store(k.now().UnixNano())
	k.out.Play(k.beat)
	return nil
}

// Stop ends the session.
func (k *BeepKeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.beat != nil {
		k.beat.stopped.Store(true)
		k.beat = nil
	}
	k.running = false
}

// Resume replaces the heartbeat with a fresh one if the session should be running.
func (k *BeepKeepAlive) Resume() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return nil
	}
	return k.playLocked()
}

// Running reports whether the session is supposed to be playing.
func (k *BeepKeepAlive) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Stalled reports whether a running session has not been pulled recently.
func (k *BeepKeepAlive) Stalled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running || k.beat == nil {
		return false
	}
	last := time.Unix(0, k.beat.lastPull.Load())
	return k.now().Sub(last) > k.stallAfter
}
