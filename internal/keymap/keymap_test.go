package keymap

import (
	"slices"
	"strings"
	"testing"
)

func TestDefault_EveryActionBound(t *testing.T) {
	actions := []Action{
		ActionQuit, ActionSuspend, ActionPlayPause, ActionNext, ActionPrevious,
		ActionStop, ActionSeekForward, ActionSeekBackward, ActionVolumeUp,
		ActionVolumeDown, ActionCycleRepeat, ActionToggleShuffle,
		ActionRemoveCurrent, ActionClearQueue, ActionPlayTrending,
	}
	r := NewResolver(Default)
	for _, a := range actions {
		if len(r.KeysFor(a)) == 0 {
			t.Errorf("action %q has no default keys", a)
		}
	}
}

func TestDefault_NoKeyConflicts(t *testing.T) {
	seen := make(map[string]Action)
	for _, b := range Default {
		for _, k := range b.Keys {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound to both %q and %q", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
}

func TestByContext(t *testing.T) {
	tests := []struct {
		context string
		minLen  int
	}{
		{"global", 2},
		{"playback", 5},
		{"queue", 3},
		{"unknown", 0},
	}
	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			got := ByContext(Default, tt.context)
			if len(got) < tt.minLen {
				t.Errorf("ByContext(%q) = %d bindings, want at least %d", tt.context, len(got), tt.minLen)
			}
			for _, b := range got {
				if b.Context != tt.context {
					t.Errorf("binding %q has context %q", b.Action, b.Context)
				}
			}
		})
	}
}

func TestWithOverrides(t *testing.T) {
	got, err := WithOverrides(Default, map[string][]string{"next": {"l", "pgdown"}})
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(got)
	if r.Resolve("l") != ActionNext || r.Resolve("pgdown") != ActionNext {
		t.Error("overridden keys should resolve to next")
	}
	if r.Resolve("n") != "" {
		t.Error("replaced key should be unbound")
	}

	// Default is untouched.
	if !slices.Equal(NewResolver(Default).KeysFor(ActionNext), []string{"n"}) {
		t.Error("WithOverrides modified the input bindings")
	}
}

func TestWithOverrides_Errors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string][]string
	}{
		{"unknown action", map[string][]string{"rewind": {"w"}}},
		{"no keys", map[string][]string{"next": {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := WithOverrides(Default, tt.overrides); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHelpLine(t *testing.T) {
	line := HelpLine(NewResolver(Default), Default)

	for _, want := range []string{"space play/pause", "→/← seek", "+/- volume", "q quit", "t trending"} {
		if !strings.Contains(line, want) {
			t.Errorf("help line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "ctrl+z") {
		t.Error("unlabelled bindings should not be listed")
	}
}
