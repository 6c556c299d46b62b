// Package keymap binds keys to player actions.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit    Action = "quit"
	ActionSuspend Action = "suspend"

	// Transport
	ActionPlayPause    Action = "play_pause"
	ActionNext         Action = "next"
	ActionPrevious     Action = "previous"
	ActionStop         Action = "stop"
	ActionSeekForward  Action = "seek_forward"
	ActionSeekBackward Action = "seek_backward"
	ActionVolumeUp     Action = "volume_up"
	ActionVolumeDown   Action = "volume_down"

	// Modes
	ActionCycleRepeat   Action = "cycle_repeat"
	ActionToggleShuffle Action = "toggle_shuffle"

	// Queue
	ActionRemoveCurrent Action = "remove_current"
	ActionClearQueue    Action = "clear_queue"
	ActionPlayTrending  Action = "play_trending"
)

// Binding ties keys to an action. Label is the short text shown in the
// help line; bindings without one are not listed there.
type Binding struct {
	Action  Action
	Keys    []string
	Label   string
	Context string // "global", "playback", "queue"
}
