package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Icons string              `koanf:"icons"` // "nerd", "unicode", or "none" (default: unicode)
	Keys  map[string][]string `koanf:"keys"`  // action name -> keys, replacing the defaults

	// Catalog service that resolves sources and serves recommendations
	Catalog CatalogConfig `koanf:"catalog"`

	// Playback engine settings
	Playback PlaybackConfig `koanf:"playback"`

	// Continuation (queue extension) settings
	Continuation ContinuationConfig `koanf:"continuation"`

	// Keep-alive watchdog settings
	Resilience ResilienceConfig `koanf:"resilience"`

	// Last.fm "now playing" (enabled when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// mpv process used for embedded-provider playback
	MPV MPVConfig `koanf:"mpv"`

	// Desktop "now playing" notifications
	Notify NotifyConfig `koanf:"notify"`

	Log LogConfig `koanf:"log"`
}

// CatalogConfig holds the catalog HTTP service configuration.
type CatalogConfig struct {
	BaseURL     string  `koanf:"base_url"`     // e.g., "http://localhost:8080"
	Token       string  `koanf:"token"`        // bearer token
	RateLimit   float64 `koanf:"rate_limit"`   // requests per second (default: 5)
	TimeoutSecs int     `koanf:"timeout_secs"` // per-request timeout (default: 10)
}

// Retry scopes.
const (
	RetryScopeSession = "per-session"
	RetryScopeTrack   = "per-track"
)

// PlaybackConfig holds state machine settings.
type PlaybackConfig struct {
	RetryCap     int      `koanf:"retry_cap"`      // consecutive failures before stopping (default: 3)
	RetryScope   string   `koanf:"retry_scope"`    // "per-session" or "per-track" (default: per-session)
	RetryDelayMs int      `koanf:"retry_delay_ms"` // delay before skipping a failed track (default: 1000)
	Volume       *float64 `koanf:"volume"`         // initial volume 0.0-1.0 (default: saved volume)
}

// ContinuationConfig holds continuation engine settings.
type ContinuationConfig struct {
	HistorySize   int `koanf:"history_size"`   // session history bound (default: 50)
	HistorySlice  int `koanf:"history_slice"`  // history sent with recommendations (default: 20)
	TrendingLimit int `koanf:"trending_limit"` // trending pool size requested (default: 50)
	TopSlice      int `koanf:"top_slice"`      // trending candidates picked from (default: 10)
	CacheTTLDays  int `koanf:"cache_ttl_days"` // trending cache TTL (default: 1)
}

// ResilienceConfig holds keep-alive watchdog settings.
type ResilienceConfig struct {
	WatchdogMs int `koanf:"watchdog_ms"` // watchdog period (default: 1000)
}

// LastfmConfig holds Last.fm configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

// MPVConfig holds the embedded player process configuration.
type MPVConfig struct {
	Path   string `koanf:"path"`   // mpv binary (default: "mpv")
	Socket string `koanf:"socket"` // IPC socket path (default: runtime dir)
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled bool `koanf:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  string `koanf:"file"`  // log file (default: state dir)
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom loads configuration from the given files, later files winning.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize catalog URL (remove trailing slash)
	cfg.Catalog.BaseURL = strings.TrimSuffix(cfg.Catalog.BaseURL, "/")

	if cfg.MPV.Socket != "" {
		cfg.MPV.Socket = expandPath(cfg.MPV.Socket)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/undertow/config.toml
		filepath.Join(xdg.ConfigHome, "undertow", "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasCatalogConfig returns true if the catalog service is configured.
func (c *Config) HasCatalogConfig() bool {
	return c.Catalog.BaseURL != ""
}

// HasLastfmConfig returns true if Last.fm is fully configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != "" && c.Lastfm.SessionKey != ""
}

// GetCatalogConfig returns the catalog configuration with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 10
	}
	return cfg
}

// Timeout returns the per-request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback
	if cfg.RetryCap <= 0 {
		cfg.RetryCap = 3
	}
	if cfg.RetryScope != RetryScopeTrack {
		cfg.RetryScope = RetryScopeSession
	}
	if cfg.RetryDelayMs <= 0 {
		cfg.RetryDelayMs = 1000
	}
	if cfg.Volume == nil {
		v := 1.0
		cfg.Volume = &v
	} else {
		v := min(max(*cfg.Volume, 0), 1)
		cfg.Volume = &v
	}
	return cfg
}

// InitialVolume returns the configured volume, 1.0 when unset.
func (c PlaybackConfig) InitialVolume() float64 {
	if c.Volume == nil {
		return 1
	}
	return *c.Volume
}

// RetryDelay returns the delay before skipping a failed track.
func (c PlaybackConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// GetContinuationConfig returns the continuation configuration with defaults applied.
func (c *Config) GetContinuationConfig() ContinuationConfig {
	cfg := c.Continuation
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	if cfg.HistorySlice <= 0 || cfg.HistorySlice > cfg.HistorySize {
		cfg.HistorySlice = min(20, cfg.HistorySize)
	}
	if cfg.TrendingLimit <= 0 {
		cfg.TrendingLimit = 50
	}
	if cfg.TopSlice <= 0 {
		cfg.TopSlice = 10
	}
	if cfg.CacheTTLDays <= 0 {
		cfg.CacheTTLDays = 1
	}
	return cfg
}

// GetResilienceConfig returns the resilience configuration with defaults applied.
func (c *Config) GetResilienceConfig() ResilienceConfig {
	cfg := c.Resilience
	if cfg.WatchdogMs <= 0 {
		cfg.WatchdogMs = 1000
	}
	return cfg
}

// WatchdogInterval returns the watchdog period.
func (c ResilienceConfig) WatchdogInterval() time.Duration {
	return time.Duration(c.WatchdogMs) * time.Millisecond
}

// GetMPVConfig returns the mpv configuration with defaults applied.
func (c *Config) GetMPVConfig() MPVConfig {
	cfg := c.MPV
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	if cfg.Socket == "" {
		cfg.Socket = filepath.Join(xdg.RuntimeDir, "undertow-mpv.sock")
	}
	return cfg
}

// IconStyle returns the icon style with the default applied.
func (c *Config) IconStyle() string {
	if c.Icons == "" {
		return "unicode"
	}
	return c.Icons
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.File == "" {
		cfg.File = filepath.Join(xdg.StateHome, "undertow", "undertow.log")
	}
	return cfg
}
