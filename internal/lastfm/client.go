// Package lastfm reports "now playing" updates to Last.fm.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

// ErrNotAuthenticated is returned when an operation requires authentication.
var ErrNotAuthenticated = errors.New("not authenticated")

// Verify Client implements source.Telemetry at compile time.
var _ source.Telemetry = (*Client)(nil)

// Client wraps the Last.fm API for now-playing updates.
type Client struct {
	api        *lastfm.Api
	sessionKey string

	// updateNowPlaying performs the track.updateNowPlaying call.
	updateNowPlaying func(lastfm.P) error
}

// New creates a new Last.fm client with the given API credentials.
func New(apiKey, apiSecret string) *Client {
	c := &Client{api: lastfm.New(apiKey, apiSecret)}
	c.updateNowPlaying = func(p lastfm.P) error {
		_, err := c.api.Track.UpdateNowPlaying(p)
		return err
	}
	return c
}

// SetSessionKey sets the authenticated session key.
func (c *Client) SetSessionKey(key string) {
	c.sessionKey = key
	c.api.SetSession(key)
}

// IsAuthenticated returns true if a session key is set.
func (c *Client) IsAuthenticated() bool {
	return c.sessionKey != ""
}

// ReportPlayStarted sends a "now playing" notification for track.
// Tracks without artist or title metadata are skipped.
func (c *Client) ReportPlayStarted(ctx context.Context, track playlist.Track, durationHint time.Duration) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	params, ok := nowPlayingParams(track, durationHint)
	if !ok {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.updateNowPlaying(params) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("update now playing: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nowPlayingParams(track playlist.Track, durationHint time.Duration) (lastfm.P, bool) {
	if track.Artist == "" || track.Title == "" {
		return nil, false
	}
	params := lastfm.P{
		"artist": track.Artist,
		"track":  track.Title,
	}
	if track.Album != "" {
		params["album"] = track.Album
	}
	duration := durationHint
	if duration <= 0 {
		duration = track.Duration
	}
	if duration > 0 {
		params["duration"] = int(duration.Seconds())
	}
	return params, true
}
