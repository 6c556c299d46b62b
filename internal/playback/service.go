package playback

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

var (
	// ErrClosed is returned by intents issued after Close.
	ErrClosed = errors.New("playback service closed")
	// ErrInvalidIndex is returned for queue indices out of range.
	ErrInvalidIndex = errors.New("invalid queue index")
	// ErrEmptyQueue is returned when an intent needs at least one track.
	ErrEmptyQueue = playlist.ErrEmptyQueue

	errNoContinuation = errors.New("no track to continue with")
)

// Service defines the playback service contract.
//
// All intents are applied in order on a single goroutine, so queue
// mutations never interleave with the read used to pick the next track.
type Service interface {
	// Playback control
	Play(track *Track) error // nil plays the current track; otherwise replaces the queue with track
	Pause() error
	Resume() error
	Toggle() error
	Stop() error
	Next() error
	Previous() error
	Seek(position time.Duration) error
	SetVolume(level float64) float64 // returns the clamped level

	// Queue navigation (starts playback)
	JumpTo(index int) error

	// Queue manipulation
	Enqueue(tracks ...Track) error
	RemoveFromQueue(index int) error
	MoveInQueue(from, to int) error
	ClearQueue() error
	ReplaceQueue(tracks []Track, startIndex int) error
	PlayAsShuffle(pool []Track) error

	// Mode control
	SetRepeatMode(mode RepeatMode) error
	CycleRepeatMode() RepeatMode
	ToggleShuffle() bool

	// State queries
	Snapshot() Snapshot
	IsPlaying() bool

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Continuer extends the session when the queue runs out.
type Continuer interface {
	// Continue picks a track to follow ended. ok is false when nothing
	// could be found.
	Continue(ctx context.Context, ended Track) (next Track, ok bool)
	// Observe records a transition the continuer did not choose itself.
	Observe(fromID, toID string, src source.TransitionSource)
}

// Resyncer resynchronizes background audio devices when playback resumes.
type Resyncer interface {
	Resync()
}

// RetryScope selects what the retry counter counts.
type RetryScope int

const (
	// RetryPerSession counts consecutive failures across queue slots.
	// Reaching the cap stops playback.
	RetryPerSession RetryScope = iota
	// RetryPerTrack retries the same slot up to the cap before skipping it.
	// Playback stops once every queued track has failed.
	RetryPerTrack
)

// ParseRetryScope maps a config value to a scope. Unknown values
// select RetryPerSession.
func ParseRetryScope(s string) RetryScope {
	if s == "per-track" {
		return RetryPerTrack
	}
	return RetryPerSession
}

// RetryPolicy controls recovery from load failures.
type RetryPolicy struct {
	Cap   int
	Scope RetryScope
	Delay time.Duration // wait before skipping or retrying
}

// DefaultRetryPolicy gives up after three consecutive failures.
var DefaultRetryPolicy = RetryPolicy{Cap: 3, Scope: RetryPerSession, Delay: time.Second}

const (
	defaultTickInterval   = time.Second
	telemetryTimeout      = 10 * time.Second
	continuationTimeout   = 30 * time.Second
	internalEventCapacity = 8
)

// Option configures the service.
type Option func(*serviceImpl)

// WithContinuer sets the engine that extends an exhausted queue.
func WithContinuer(c Continuer) Option {
	return func(s *serviceImpl) { s.cont = c }
}

// WithTelemetry sets the sink notified when a track starts playing.
func WithTelemetry(t source.Telemetry) Option {
	return func(s *serviceImpl) { s.telemetry = t }
}

// WithResyncer sets the device resynchronized on resume.
func WithResyncer(r Resyncer) Option {
	return func(s *serviceImpl) { s.resync = r }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *serviceImpl) { s.logger = l }
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *serviceImpl) {
		if p.Cap < 1 {
			p.Cap = 1
		}
		s.retry = p
	}
}

// WithTickInterval sets how often the position is polled while playing.
func WithTickInterval(d time.Duration) Option {
	return func(s *serviceImpl) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithVolume sets the initial volume.
func WithVolume(level float64) Option {
	return func(s *serviceImpl) { s.volume = clampVolume(level) }
}

func clampVolume(v float64) float64 {
	switch {
	case v != v, v < 0: // NaN
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
