package keymap

import (
	"fmt"
	"slices"
	"strings"
)

// Default contains the built-in key bindings.
var Default = []Binding{
	{ActionQuit, []string{"q", "ctrl+c"}, "quit", "global"},
	{ActionSuspend, []string{"ctrl+z"}, "", "global"},

	{ActionPlayPause, []string{" "}, "play/pause", "playback"},
	{ActionNext, []string{"n"}, "next", "playback"},
	{ActionPrevious, []string{"p"}, "prev", "playback"},
	{ActionStop, []string{"s"}, "stop", "playback"},
	{ActionSeekForward, []string{"right"}, "seek", "playback"},
	{ActionSeekBackward, []string{"left"}, "", "playback"},
	{ActionVolumeUp, []string{"+", "="}, "volume", "playback"},
	{ActionVolumeDown, []string{"-"}, "", "playback"},
	{ActionCycleRepeat, []string{"r"}, "repeat", "playback"},
	{ActionToggleShuffle, []string{"z"}, "shuffle", "playback"},

	{ActionPlayTrending, []string{"t"}, "trending", "queue"},
	{ActionRemoveCurrent, []string{"x"}, "remove", "queue"},
	{ActionClearQueue, []string{"c"}, "clear", "queue"},
}

// ByContext returns key bindings filtered by context.
func ByContext(bindings []Binding, context string) []Binding {
	var result []Binding
	for _, b := range bindings {
		if b.Context == context {
			result = append(result, b)
		}
	}
	return result
}

// WithOverrides returns a copy of bindings where each action named in
// overrides is bound to the given keys instead. Unknown actions are an
// error.
func WithOverrides(bindings []Binding, overrides map[string][]string) ([]Binding, error) {
	result := slices.Clone(bindings)
	for name, keys := range overrides {
		i := slices.IndexFunc(result, func(b Binding) bool { return string(b.Action) == name })
		if i < 0 {
			return nil, fmt.Errorf("keymap: unknown action %q", name)
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("keymap: no keys for action %q", name)
		}
		result[i].Keys = slices.Clone(keys)
	}
	return result, nil
}

// HelpLine renders the labelled bindings as "key label" pairs. The seek
// and volume pairs show both directions.
func HelpLine(r *Resolver, bindings []Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Label == "" {
			continue
		}
		keys := displayKey(r.KeysFor(b.Action))
		if pair, ok := pairs[b.Action]; ok {
			keys += "/" + displayKey(r.KeysFor(pair))
		}
		parts = append(parts, keys+" "+b.Label)
	}
	return strings.Join(parts, " · ")
}

var pairs = map[Action]Action{
	ActionSeekForward: ActionSeekBackward,
	ActionVolumeUp:    ActionVolumeDown,
}

func displayKey(keys []string) string {
	if len(keys) == 0 {
		return "?"
	}
	switch keys[0] {
	case " ":
		return "space"
	case "right":
		return "→"
	case "left":
		return "←"
	}
	return keys[0]
}
