// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op names an operation that can fail. The playback service reports its
// own failures with the same names.
type Op string

const (
	// Reported by the playback service
	OpLoad     Op = "load"
	OpContinue Op = "continue"

	// Transport intents
	OpToggle   Op = "toggle"
	OpNext     Op = "next"
	OpPrevious Op = "previous"
	OpStop     Op = "stop"
	OpSeek     Op = "seek"

	// Queue intents
	OpRemove  Op = "remove"
	OpClear   Op = "clear"
	OpShuffle Op = "shuffle"
)

var phrases = map[Op]string{
	OpLoad:     "load track",
	OpContinue: "continue playback",
	OpToggle:   "toggle playback",
	OpNext:     "skip to next track",
	OpPrevious: "go to previous track",
	OpStop:     "stop playback",
	OpSeek:     "seek",
	OpRemove:   "remove track from queue",
	OpClear:    "clear queue",
	OpShuffle:  "start shuffle",
}

// String returns the phrase used in messages. Unknown operations are
// used verbatim.
func (o Op) String() string {
	if p, ok := phrases[o]; ok {
		return p
	}
	return string(o)
}

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
