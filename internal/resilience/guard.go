// Package resilience keeps playback alive across background, foreground
// and interruption transitions of the host process.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/source"
)

// DefaultWatchdogInterval is the keep-alive check period.
const DefaultWatchdogInterval = time.Second

// Player is the part of the playback service the guard drives.
type Player interface {
	IsPlaying() bool
	Pause() error
	Resume() error
}

// Embedded reports and restarts the embedded provider.
type Embedded interface {
	Active() source.Kind
	ResumeEmbedded()
}

// Guard reacts to lifecycle transitions and watches the keep-alive session.
type Guard struct {
	keep     player.KeepAlive // nil when there is no silent session
	embedded Embedded
	logger   *log.Logger
	interval time.Duration

	mu          sync.Mutex
	player      Player
	wasPlaying  bool
	resumeOnEnd bool
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithInterval sets the watchdog period.
func WithInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// New creates a guard. keep may be nil.
func New(keep player.KeepAlive, embedded Embedded, opts ...Option) *Guard {
	g := &Guard{
		keep:     keep,
		embedded: embedded,
		interval: DefaultWatchdogInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrDiscard(g.logger)
	return g
}

// Attach sets the player. The playback service is built after the guard
// because it resynchronizes through it.
func (g *Guard) Attach(p Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.player = p
}

func (g *Guard) attached() Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player
}

func (g *Guard) isPlaying() bool {
	p := g.attached()
	return p != nil && p.IsPlaying()
}

// Background remembers whether audio was playing and revives a stalled
// keep-alive session.
func (g *Guard) Background() {
	playing := g.isPlaying()
	g.mu.Lock()
	g.wasPlaying = playing
	g.mu.Unlock()

	g.logger.Debug("background", "playing", playing)
	if g.keep != nil && g.keep.Running() && g.keep.Stalled() {
		g.resumeKeepAlive("background")
	}
}

// Foreground resynchronizes the keep-alive session and restarts the
// embedded provider if playback was active before going to background.
func (g *Guard) Foreground() {
	g.mu.Lock()
	was := g.wasPlaying
	g.wasPlaying = false
	g.mu.Unlock()

	g.logger.Debug("foreground", "wasPlaying", was)
	if !was {
		return
	}
	g.Resync()
	if g.embedded != nil && g.embedded.Active() == source.KindEmbedded {
		g.embedded.ResumeEmbedded()
	}
}

// Interrupted pauses playback and remembers to resume it.
func (g *Guard) Interrupted() {
	p := g.attached()
	if p == nil {
		return
	}
	playing := p.IsPlaying()
	g.mu.Lock()
	g.resumeOnEnd = playing
	g.mu.Unlock()

	if playing {
		g.logger.Info("audio interrupted, pausing")
		if err := p.Pause(); err != nil {
			g.logger.Debug("pause on interruption", "err", err)
		}
	}
}

// InterruptionEnded resumes playback paused by Interrupted.
func (g *Guard) InterruptionEnded() {
	g.mu.Lock()
	resume := g.resumeOnEnd
	g.resumeOnEnd = false
	p := g.player
	g.mu.Unlock()

	if !resume || p == nil {
		return
	}
	g.logger.Info("interruption ended, resuming")
	if err := p.Resume(); err != nil {
		g.logger.Debug("resume after interruption", "err", err)
	}
}

// Resync restarts the keep-alive session if it should be running.
// Called from the playback loop, so it must not call back into the player.
func (g *Guard) Resync() {
	if g.keep == nil || !g.keep.Running() {
		return
	}
	g.resumeKeepAlive("resync")
}

// Check revives a stalled keep-alive session while playing.
func (g *Guard) Check() {
	if g.keep == nil || !g.keep.Running() || !g.keep.Stalled() {
		return
	}
	if !g.isPlaying() {
		return
	}
	g.logger.Warn("keep-alive stalled while playing")
	g.resumeKeepAlive("watchdog")
}

func (g *Guard) resumeKeepAlive(reason string) {
	if err := g.keep.Resume(); err != nil {
		g.logger.Warn("keep-alive resume failed", "reason", reason, "err", err)
	}
}

// Run calls Check on every watchdog tick until ctx is done.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Check()
		}
	}
}
