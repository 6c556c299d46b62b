package icons

import "testing"

func TestInit(t *testing.T) {
	tests := []struct {
		name     string
		style    string
		expected Icons
	}{
		{"nerd style", "nerd", nerdIcons},
		{"unicode style", "unicode", unicodeIcons},
		{"none style", "none", noneIcons},
		{"empty string defaults to none", "", noneIcons},
		{"unknown style defaults to none", "invalid", noneIcons},
		{"case sensitive - NERD defaults to none", "NERD", noneIcons},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(tt.style)
			if Current() != tt.expected {
				t.Errorf("Init(%q) selected %+v", tt.style, Current())
			}
		})
	}

	Init("unicode")
}

func TestAccessors(t *testing.T) {
	Init("none")
	defer Init("unicode")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"playing", Playing(), ">"},
		{"paused", Paused(), "||"},
		{"loading", Loading(), "..."},
		{"stopped", Stopped(), "[]"},
		{"error", Error(), "!"},
		{"continuing", Continuing(), "~"},
		{"shuffle", Shuffle(), "[S]"},
		{"repeat all", RepeatAll(), "[R]"},
		{"repeat one", RepeatOne(), "[1]"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestIconSets_Complete(t *testing.T) {
	for name, set := range map[string]Icons{"nerd": nerdIcons, "unicode": unicodeIcons, "none": noneIcons} {
		for field, v := range map[string]string{
			"Playing": set.Playing, "Paused": set.Paused, "Loading": set.Loading,
			"Stopped": set.Stopped, "Error": set.Error, "Continuing": set.Continuing,
			"Shuffle": set.Shuffle, "RepeatAll": set.RepeatAll, "RepeatOne": set.RepeatOne,
		} {
			if v == "" {
				t.Errorf("%s.%s is empty", name, field)
			}
		}
	}
}
