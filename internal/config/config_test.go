//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/run/mpv.sock",
			expected: filepath.Join(home, "run", "mpv.sock"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/tmp/mpv.sock",
			expected: "/tmp/mpv.sock",
		},
		{
			name:     "relative path unchanged",
			input:    "logs/undertow.log",
			expected: "logs/undertow.log",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) != 2 {
		t.Fatalf("len(getConfigPaths()) = %d, want 2", len(paths))
	}
	if paths[1] != "config.toml" {
		t.Errorf("last config path = %q, want %q", paths[1], "config.toml")
	}
	if filepath.Base(filepath.Dir(paths[0])) != "undertow" {
		t.Errorf("first config path = %q, want it under an undertow directory", paths[0])
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")

	writeFile(t, base, `
[catalog]
base_url = "http://catalog.local/"
token = "secret"

[playback]
retry_cap = 5
retry_scope = "per-track"
volume = 0.0
`)
	writeFile(t, local, `
[playback]
retry_cap = 2

[continuation]
top_slice = 4
`)

	cfg, err := LoadFrom(base, local, filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Catalog.BaseURL != "http://catalog.local" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Token != "secret" {
		t.Errorf("Token = %q, want secret", cfg.Catalog.Token)
	}

	pb := cfg.GetPlaybackConfig()
	if pb.RetryCap != 2 {
		t.Errorf("RetryCap = %d, want 2 (later file wins)", pb.RetryCap)
	}
	if pb.RetryScope != RetryScopeTrack {
		t.Errorf("RetryScope = %q, want per-track", pb.RetryScope)
	}
	if pb.InitialVolume() != 0 {
		t.Errorf("InitialVolume() = %v, want explicit 0", pb.InitialVolume())
	}
	if got := cfg.GetContinuationConfig().TopSlice; got != 4 {
		t.Errorf("TopSlice = %d, want 4", got)
	}
}

func TestLoadFrom_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, "[catalog\nbase_url = ")

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on malformed toml")
	}
}

func TestHasLastfmConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   LastfmConfig
		expected bool
	}{
		{"all set", LastfmConfig{APIKey: "k", APISecret: "s", SessionKey: "sk"}, true},
		{"missing session", LastfmConfig{APIKey: "k", APISecret: "s"}, false},
		{"only key", LastfmConfig{APIKey: "k"}, false},
		{"none", LastfmConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Lastfm: tt.config}
			if result := cfg.HasLastfmConfig(); result != tt.expected {
				t.Errorf("HasLastfmConfig() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	cfg := Config{}
	pb := cfg.GetPlaybackConfig()

	if pb.RetryCap != 3 {
		t.Errorf("RetryCap = %d, want 3", pb.RetryCap)
	}
	if pb.RetryScope != RetryScopeSession {
		t.Errorf("RetryScope = %q, want per-session", pb.RetryScope)
	}
	if pb.RetryDelay() != time.Second {
		t.Errorf("RetryDelay() = %v, want 1s", pb.RetryDelay())
	}
	if pb.InitialVolume() != 1 {
		t.Errorf("InitialVolume() = %v, want 1", pb.InitialVolume())
	}
}

func TestGetPlaybackConfig_InvalidValues(t *testing.T) {
	loud := 1.5
	cfg := Config{Playback: PlaybackConfig{RetryCap: -1, RetryScope: "bogus", Volume: &loud}}

	pb := cfg.GetPlaybackConfig()

	if pb.RetryCap != 3 {
		t.Errorf("RetryCap with invalid value = %d, want 3", pb.RetryCap)
	}
	if pb.RetryScope != RetryScopeSession {
		t.Errorf("RetryScope with invalid value = %q, want per-session", pb.RetryScope)
	}
	if pb.InitialVolume() != 1 {
		t.Errorf("InitialVolume() = %v, want clamped to 1", pb.InitialVolume())
	}
	if loud != 1.5 {
		t.Error("GetPlaybackConfig must not mutate the loaded value")
	}
}

func TestGetContinuationConfig_Defaults(t *testing.T) {
	cfg := Config{}
	c := cfg.GetContinuationConfig()

	if c.HistorySize != 50 {
		t.Errorf("HistorySize = %d, want 50", c.HistorySize)
	}
	if c.HistorySlice != 20 {
		t.Errorf("HistorySlice = %d, want 20", c.HistorySlice)
	}
	if c.TrendingLimit != 50 {
		t.Errorf("TrendingLimit = %d, want 50", c.TrendingLimit)
	}
	if c.TopSlice != 10 {
		t.Errorf("TopSlice = %d, want 10", c.TopSlice)
	}
	if c.CacheTTLDays != 1 {
		t.Errorf("CacheTTLDays = %d, want 1", c.CacheTTLDays)
	}
}

func TestGetContinuationConfig_SliceBoundedByHistory(t *testing.T) {
	cfg := Config{Continuation: ContinuationConfig{HistorySize: 10, HistorySlice: 30}}

	if got := cfg.GetContinuationConfig().HistorySlice; got != 10 {
		t.Errorf("HistorySlice = %d, want 10", got)
	}
}

func TestGetCatalogConfig_Defaults(t *testing.T) {
	cfg := Config{}
	c := cfg.GetCatalogConfig()

	if c.RateLimit != 5 {
		t.Errorf("RateLimit = %v, want 5", c.RateLimit)
	}
	if c.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", c.Timeout())
	}
}

func TestGetResilienceConfig_Defaults(t *testing.T) {
	cfg := Config{}

	if got := cfg.GetResilienceConfig().WatchdogInterval(); got != time.Second {
		t.Errorf("WatchdogInterval() = %v, want 1s", got)
	}
}

func TestGetMPVConfig_Defaults(t *testing.T) {
	cfg := Config{}
	m := cfg.GetMPVConfig()

	if m.Path != "mpv" {
		t.Errorf("Path = %q, want mpv", m.Path)
	}
	if m.Socket == "" {
		t.Error("Socket should default to a runtime path")
	}
}

func TestLoadFrom_UISettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
icons = "nerd"

[keys]
next = ["l", "pgdown"]
play_pause = ["enter"]

[notify]
enabled = true
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.IconStyle() != "nerd" {
		t.Errorf("IconStyle() = %q, want nerd", cfg.IconStyle())
	}
	if got := cfg.Keys["next"]; len(got) != 2 || got[0] != "l" || got[1] != "pgdown" {
		t.Errorf("Keys[next] = %v", got)
	}
	if got := cfg.Keys["play_pause"]; len(got) != 1 || got[0] != "enter" {
		t.Errorf("Keys[play_pause] = %v", got)
	}
	if !cfg.Notify.Enabled {
		t.Error("Notify.Enabled = false, want true")
	}
}

func TestIconStyle_Default(t *testing.T) {
	if got := (&Config{}).IconStyle(); got != "unicode" {
		t.Errorf("IconStyle() = %q, want unicode", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
