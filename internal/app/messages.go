// Package app is the terminal host driving the playback service.
package app

import (
	"time"

	"github.com/llehouerou/undertow/internal/playback"
)

// ServiceStateChangedMsg is sent when the playback status changes.
type ServiceStateChangedMsg struct {
	Previous, Current playback.Status
}

// ServiceTrackChangedMsg is sent when a different track starts loading.
type ServiceTrackChangedMsg struct {
	PreviousIndex int
	CurrentIndex  int
}

// ServiceUpdatedMsg is sent for queue, mode and position changes. The
// model rereads the snapshot.
type ServiceUpdatedMsg struct{}

// ServiceErrorMsg carries an informational playback error.
type ServiceErrorMsg struct {
	Operation string
	TrackID   string
	Err       error
	At        time.Time
}

// ServiceClosedMsg is sent when the playback service is closed.
type ServiceClosedMsg struct{}

// clearErrorMsg expires the error shown since At.
type clearErrorMsg struct {
	At time.Time
}
