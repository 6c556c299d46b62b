package player

import (
	"context"
	"time"

	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

// Backend is the uniform playback contract the state machine drives.
//
// Load is asynchronous: its outcome arrives on Events as EventReady or
// EventFailed carrying the same generation. A newer Load supersedes any
// load still in flight.
type Backend interface {
	Load(gen uint64, track playlist.Track)
	Play()
	Pause()
	Seek(pos time.Duration)
	SetVolume(level float64)
	Stop()
	Position() time.Duration
	Active() source.Kind
	// ResumeEmbedded restarts the embedded provider if it is the active backend.
	ResumeEmbedded()
	Events() <-chan Event
	Close() error
}

// Driver renders one kind of source descriptor.
//
// Open blocks until the source can play (or fails) and leaves it paused.
// Ended and Failed events for an opened source are sent on Events tagged
// with the generation passed to Open.
type Driver interface {
	Open(ctx context.Context, gen uint64, d source.Descriptor) (time.Duration, error)
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(level float64) error
	SetMuted(muted bool) error
	Position() time.Duration
	Stop() error
	Events() <-chan Event
	Close() error
}

// KeepAlive is a silent native audio session that keeps the process
// eligible for background audio while an embedded provider plays.
type KeepAlive interface {
	Start() error
	Stop()
	// Resume restarts the session if it is supposed to be running.
	Resume() error
	Running() bool
	Stalled() bool
}
