package player

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLoadFailed wraps every failure reported for a load, whatever its cause.
	ErrLoadFailed = errors.New("load failed")
	// ErrResolution means the track source could not be determined.
	ErrResolution = errors.New("source resolution failed")
	// ErrBackendLoad means the driver rejected or could not start the source.
	ErrBackendLoad = errors.New("backend load failed")

	ErrNoDriver          = errors.New("no driver for source kind")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNotOpen           = errors.New("nothing loaded")
	ErrStreamTooLarge    = errors.New("stream exceeds size limit")
)

// EventKind identifies a backend event.
type EventKind int

const (
	EventReady EventKind = iota
	EventEnded
	EventFailed
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "Ready"
	case EventEnded:
		return "Ended"
	case EventFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Event is reported by a backend for the load tagged with Gen.
type Event struct {
	Kind     EventKind
	Gen      uint64
	Duration time.Duration // EventReady: duration reported by the driver
	Err      error         // EventFailed
}

func loadFailure(cause, err error) error {
	return fmt.Errorf("%w: %w: %w", ErrLoadFailed, cause, err)
}
