// Package radio implements the continuation engine that keeps a session
// going once the explicit queue runs out.
package radio

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/undertow/internal/config"
	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

// ErrRecommendationUnavailable marks a recommendation that could not be
// obtained. It only ever triggers the trending fallback.
var ErrRecommendationUnavailable = errors.New("recommendation unavailable")

const recordTimeout = 10 * time.Second

// Continuation picks the track that follows an exhausted queue: a
// recommendation first, then a random pick from the trending pool.
type Continuation struct {
	rec        source.Recommender
	cache      *Cache
	continuity *Continuity
	cfg        config.ContinuationConfig
	rng        *rand.Rand
	logger     *log.Logger

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// Option configures a Continuation.
type Option func(*Continuation)

// WithCache sets the trending pool cache used when the catalog fails.
func WithCache(c *Cache) Option {
	return func(r *Continuation) { r.cache = c }
}

// WithRand sets the random source for trending picks.
func WithRand(rng *rand.Rand) Option {
	return func(r *Continuation) { r.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Continuation) { r.logger = l }
}

// New creates a Continuation over a recommendation service. Unset limits
// in cfg take their configuration defaults.
func New(rec source.Recommender, cfg config.ContinuationConfig, opts ...Option) *Continuation {
	cfg = (&config.Config{Continuation: cfg}).GetContinuationConfig()
	r := &Continuation{
		rec:        rec,
		cfg:        cfg,
		continuity: NewContinuity(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security-sensitive
	}
	r.logger = logging.OrDiscard(r.logger)
	return r
}

// Continuity returns the session history.
func (r *Continuation) Continuity() *Continuity {
	return r.continuity
}

// Continue finds a track to follow ended. Only one call runs at a time;
// a concurrent call returns false immediately.
func (r *Continuation) Continue(ctx context.Context, ended playlist.Track) (playlist.Track, bool) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("continuation already in flight", "ended", ended.ID)
		return playlist.Track{}, false
	}
	defer r.inFlight.Store(false)

	next, err := r.recommend(ctx, ended.ID)
	if err != nil {
		r.logger.Debug("falling back to trending", "ended", ended.ID, "err", err)
		var ok bool
		next, ok = r.fromTrending(ctx, ended.ID)
		if !ok {
			r.continuity.Push(ended.ID)
			r.logger.Info("nothing to continue with", "ended", ended.ID)
			return playlist.Track{}, false
		}
	}

	r.continuity.Push(ended.ID)
	r.record(ended.ID, next.ID, source.TransitionAuto)
	r.logger.Debug("continuing", "ended", ended.ID, "next", next.ID)
	return next, true
}

// InFlight reports whether a Continue call is running.
func (r *Continuation) InFlight() bool {
	return r.inFlight.Load()
}

func (r *Continuation) recommend(ctx context.Context, endedID string) (playlist.Track, error) {
	if r.rec == nil {
		return playlist.Track{}, ErrRecommendationUnavailable
	}
	history := r.continuity.Recent(r.cfg.HistorySlice)
	rec, ok, err := r.rec.Recommend(ctx, endedID, r.continuity.SessionID(), history)
	switch {
	case err != nil:
		return playlist.Track{}, fmt.Errorf("%w: %w", ErrRecommendationUnavailable, err)
	case !ok || rec.Track.ID == "":
		return playlist.Track{}, ErrRecommendationUnavailable
	}
	r.continuity.SetSessionID(rec.SessionID)
	return rec.Track, nil
}

// fromTrending picks uniformly from the top of the trending pool, skipping
// tracks already played this session. When everything was played the whole
// pool is eligible again.
func (r *Continuation) fromTrending(ctx context.Context, endedID string) (playlist.Track, bool) {
	pool := r.trendingPool(ctx)
	if len(pool) == 0 {
		return playlist.Track{}, false
	}

	played := r.continuity.Played()
	played[endedID] = true
	fresh := make([]playlist.Track, 0, len(pool))
	for _, t := range pool {
		if t.ID != "" && !played[t.ID] {
			fresh = append(fresh, t)
		}
	}

	candidates := pool
	if len(fresh) > 0 {
		candidates = fresh[:min(len(fresh), r.cfg.TopSlice)]
	}
	return candidates[r.rng.IntN(len(candidates))], true
}

func (r *Continuation) trendingPool(ctx context.Context) []playlist.Track {
	var pool []playlist.Track
	var err error
	if r.rec != nil {
		pool, err = r.rec.Trending(ctx, r.cfg.TrendingLimit)
	}
	if err == nil && len(pool) > 0 {
		if r.cache != nil {
			if cerr := r.cache.SetTrending(pool); cerr != nil {
				r.logger.Warn("caching trending pool failed", "err", cerr)
			}
		}
		return pool
	}
	if err != nil {
		r.logger.Debug("trending unavailable", "err", err)
	}

	if r.cache == nil {
		return nil
	}
	cached, fetched, cerr := r.cache.GetTrending()
	if cerr != nil {
		r.logger.Warn("reading trending cache failed", "err", cerr)
		return nil
	}
	if len(cached) > 0 {
		r.logger.Info("using cached trending pool",
			"tracks", len(cached), "fetched", humanize.Time(fetched))
	}
	return cached
}

// Observe records a transition the engine did not choose, such as a user
// skip or a shuffle refill.
func (r *Continuation) Observe(fromID, toID string, src source.TransitionSource) {
	r.continuity.Push(fromID)
	r.record(fromID, toID, src)
}

// record reports a transition in the background. Failures are only logged.
func (r *Continuation) record(fromID, toID string, src source.TransitionSource) {
	if r.rec == nil || fromID == "" || toID == "" {
		return
	}
	sessionID := r.continuity.SessionID()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.rec.RecordTransition(ctx, fromID, toID, sessionID, src); err != nil {
			r.logger.Debug("record transition failed", "from", fromID, "to", toID, "err", err)
		}
	}()
}

// Wait blocks until background transition reports finish.
func (r *Continuation) Wait() {
	r.wg.Wait()
}
