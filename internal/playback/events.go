package playback

import "time"

// StateChange is emitted when the status changes.
type StateChange struct {
	Previous Status
	Current  Status
}

// TrackChange is emitted when a different track starts loading.
//
// Emitted by every load: user intents (Play, Next, Previous, JumpTo,
// ReplaceQueue, PlayAsShuffle), automatic advance on end, retry skips and
// continuation. Not emitted when the same slot is reloaded, as with
// RepeatOne or a per-track retry.
type TrackChange struct {
	Previous      *Track
	Current       *Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the queue contents or pointer change.
type QueueChange struct {
	Tracks []Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode RepeatMode
	Shuffle    bool
}

// PositionChange is emitted on seeks and on each whole-second tick while playing.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when an error occurs during playback.
// Errors are informational; recovery is handled by the service.
type ErrorEvent struct {
	Operation string // e.g., "load", "continue"
	TrackID   string
	Err       error
}
