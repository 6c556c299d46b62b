// internal/playback/state.go
package playback

import (
	"time"

	"github.com/llehouerou/undertow/internal/playlist"
)

// Track is a queued track.
type Track = playlist.Track

// RepeatMode defines the repeat behavior.
type RepeatMode = playlist.RepeatMode

const (
	RepeatOff = playlist.RepeatOff
	RepeatAll = playlist.RepeatAll
	RepeatOne = playlist.RepeatOne
)

// Status is the state of the playback state machine.
//
//	Idle ──load──▶ Loading ──ready──▶ Playing ⇄ Paused
//	                  │                  │
//	                failed             ended ──▶ Loading (next track)
//	                  ▼
//	                Error ──retry──▶ Loading
//	                  │
//	             cap reached ──▶ Idle
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded or being loaded.
func (s Status) IsActive() bool {
	return s == StatusLoading || s == StatusPlaying || s == StatusPaused || s == StatusError
}

// Snapshot is a read-only copy of the playback state.
type Snapshot struct {
	Track       *Track // nil when the queue is empty
	Index       int    // -1 when the queue is empty
	Status      Status
	Position    time.Duration // whole seconds
	Duration    time.Duration
	Volume      float64
	RepeatMode  RepeatMode
	Shuffle     bool
	ShufflePool []Track
	Queue       []Track
	RetryCount  int
	Continuing  bool // the continuation engine is looking for a next track
}

// IsPlaying reports whether audio is playing.
func (s Snapshot) IsPlaying() bool { return s.Status == StatusPlaying }

// IsLoading reports whether a track is being loaded or looked up.
func (s Snapshot) IsLoading() bool { return s.Status == StatusLoading }
