package source

import (
	"context"
	"errors"
	"time"

	"github.com/llehouerou/undertow/internal/playlist"
)

// TransitionSource labels why one track followed another.
type TransitionSource string

const (
	TransitionAuto    TransitionSource = "auto"
	TransitionManual  TransitionSource = "manual"
	TransitionShuffle TransitionSource = "shuffle"
)

// Recommendation is a suggested next track.
// SessionID may differ from the one sent when the service starts a new session.
type Recommendation struct {
	Track     playlist.Track
	SessionID string
}

// Resolver turns a track identifier into a playable descriptor.
type Resolver interface {
	Resolve(ctx context.Context, trackID string) (Descriptor, error)
}

// Recommender supplies continuation material and records transitions.
type Recommender interface {
	// Recommend returns ok=false when the service has nothing to suggest.
	Recommend(ctx context.Context, trackID, sessionID string, history []string) (Recommendation, bool, error)
	Trending(ctx context.Context, limit int) ([]playlist.Track, error)
	RecordTransition(ctx context.Context, fromID, toID, sessionID string, src TransitionSource) error
}

// Telemetry receives best-effort play notifications.
type Telemetry interface {
	ReportPlayStarted(ctx context.Context, track playlist.Track, durationHint time.Duration) error
}

// MultiTelemetry fans a notification out to several sinks.
type MultiTelemetry []Telemetry

// ReportPlayStarted notifies every sink and joins their errors.
func (m MultiTelemetry) ReportPlayStarted(ctx context.Context, track playlist.Track, durationHint time.Duration) error {
	var errs []error
	for _, t := range m {
		if t == nil {
			continue
		}
		if err := t.ReportPlayStarted(ctx, track, durationHint); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
