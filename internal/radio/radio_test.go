package radio

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/undertow/internal/config"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

type transition struct {
	from, to, session string
	src               source.TransitionSource
}

type fakeRecommender struct {
	mu sync.Mutex

	rec      source.Recommendation
	recOK    bool
	recErr   error
	trending []playlist.Track
	trendErr error
	block    chan struct{}
	entered  chan struct{}

	gotHistory  []string
	gotSession  string
	transitions []transition
}

func (f *fakeRecommender) Recommend(_ context.Context, _, sessionID string, history []string) (source.Recommendation, bool, error) {
	f.mu.Lock()
	f.gotHistory = history
	f.gotSession = sessionID
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return f.rec, f.recOK, f.recErr
}

func (f *fakeRecommender) Trending(_ context.Context, limit int) ([]playlist.Track, error) {
	if f.trendErr != nil {
		return nil, f.trendErr
	}
	return f.trending[:min(limit, len(f.trending))], nil
}

func (f *fakeRecommender) RecordTransition(_ context.Context, fromID, toID, sessionID string, src source.TransitionSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, transition{fromID, toID, sessionID, src})
	return errors.New("ignored")
}

func (f *fakeRecommender) Transitions() []transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transition(nil), f.transitions...)
}

func testConfig() config.ContinuationConfig {
	return (&config.Config{}).GetContinuationConfig()
}

func seeded() Option {
	return WithRand(rand.New(rand.NewPCG(7, 11))) //nolint:gosec // test
}

func pool(n int) []playlist.Track {
	ts := make([]playlist.Track, n)
	for i := range ts {
		ts[i] = playlist.Track{ID: fmt.Sprintf("p%d", i)}
	}
	return ts
}

func TestContinue_UsesRecommendation(t *testing.T) {
	rec := &fakeRecommender{
		rec:   source.Recommendation{Track: playlist.Track{ID: "t3"}, SessionID: "srv-1"},
		recOK: true,
	}
	r := New(rec, testConfig(), seeded())
	r.Continuity().Push("t1")

	next, ok := r.Continue(context.Background(), playlist.Track{ID: "t2"})
	r.Wait()

	require.True(t, ok)
	assert.Equal(t, "t3", next.ID)
	assert.Equal(t, []string{"t1"}, rec.gotHistory)
	assert.Equal(t, "srv-1", r.Continuity().SessionID(), "server session ID should be adopted")
	assert.Equal(t, []string{"t1", "t2"}, r.Continuity().Recent(0))
	assert.Equal(t, []transition{{"t2", "t3", "srv-1", source.TransitionAuto}}, rec.Transitions())
}

func TestContinue_SendsBoundedHistory(t *testing.T) {
	rec := &fakeRecommender{rec: source.Recommendation{Track: playlist.Track{ID: "x"}}, recOK: true}
	r := New(rec, testConfig(), seeded())
	for i := range 30 {
		r.Continuity().Push(fmt.Sprintf("h%d", i))
	}

	_, ok := r.Continue(context.Background(), playlist.Track{ID: "e"})
	r.Wait()

	require.True(t, ok)
	require.Len(t, rec.gotHistory, 20)
	assert.Equal(t, "h10", rec.gotHistory[0])
	assert.Equal(t, "h29", rec.gotHistory[19])
}

func TestContinue_FallsBackToTrending(t *testing.T) {
	tests := []struct {
		name string
		rec  *fakeRecommender
	}{
		{"no recommendation", &fakeRecommender{trending: pool(5)}},
		{"recommendation error", &fakeRecommender{recErr: errors.New("503"), trending: pool(5)}},
		{"empty track", &fakeRecommender{recOK: true, trending: pool(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.rec, testConfig(), seeded())

			next, ok := r.Continue(context.Background(), playlist.Track{ID: "e"})
			r.Wait()

			require.True(t, ok)
			assert.Contains(t, tt.rec.trending, next)
		})
	}
}

func TestContinue_TrendingSkipsPlayed(t *testing.T) {
	cfg := testConfig()
	cfg.TopSlice = 2
	for seed := range uint64(20) {
		rec := &fakeRecommender{trending: pool(6)}
		r := New(rec, cfg, WithRand(rand.New(rand.NewPCG(seed, 1)))) //nolint:gosec // test
		r.Continuity().Push("p0")
		r.Continuity().Push("p2")

		next, ok := r.Continue(context.Background(), playlist.Track{ID: "p1"})
		r.Wait()

		require.True(t, ok)
		assert.Contains(t, []string{"p3", "p4"}, next.ID, "seed %d: pick must come from the top unplayed slice", seed)
	}
}

func TestContinue_AllPlayedPicksFromWholePool(t *testing.T) {
	rec := &fakeRecommender{trending: pool(3)}
	r := New(rec, testConfig(), seeded())
	r.Continuity().Push("p0")
	r.Continuity().Push("p1")

	next, ok := r.Continue(context.Background(), playlist.Track{ID: "p2"})
	r.Wait()

	require.True(t, ok)
	assert.Contains(t, rec.trending, next)
}

func TestContinue_NothingAvailable(t *testing.T) {
	rec := &fakeRecommender{trendErr: errors.New("offline")}
	r := New(rec, testConfig(), seeded())

	_, ok := r.Continue(context.Background(), playlist.Track{ID: "e"})
	r.Wait()

	assert.False(t, ok)
	assert.Empty(t, rec.Transitions())
	assert.Equal(t, []string{"e"}, r.Continuity().Recent(0), "ended track is still remembered")
}

func TestContinue_ZeroConfigUsesDefaults(t *testing.T) {
	rec := &fakeRecommender{trending: pool(5)}
	r := New(rec, config.ContinuationConfig{}, seeded())

	var next playlist.Track
	var ok bool
	require.NotPanics(t, func() {
		next, ok = r.Continue(context.Background(), playlist.Track{ID: "e"})
	})
	r.Wait()

	require.True(t, ok)
	assert.Contains(t, rec.trending, next)
	for i := range 60 {
		r.Continuity().Push(fmt.Sprintf("h%d", i))
	}
	assert.Len(t, r.Continuity().Recent(0), 50, "history bound defaults to 50")
}

func TestContinue_NoRecommender(t *testing.T) {
	r := New(nil, testConfig(), seeded())

	_, ok := r.Continue(context.Background(), playlist.Track{ID: "e"})

	assert.False(t, ok)
}

func TestContinue_UsesCacheWhenTrendingFails(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	cache := NewCache(db, 1)

	online := &fakeRecommender{trending: pool(4)}
	r := New(online, testConfig(), seeded(), WithCache(cache))
	_, ok := r.Continue(context.Background(), playlist.Track{ID: "e"})
	require.True(t, ok)

	offline := &fakeRecommender{trendErr: errors.New("offline")}
	r = New(offline, testConfig(), seeded(), WithCache(cache))
	next, ok := r.Continue(context.Background(), playlist.Track{ID: "e"})

	require.True(t, ok)
	assert.Contains(t, online.trending, next)
}

func TestContinue_GuardRejectsConcurrentCall(t *testing.T) {
	rec := &fakeRecommender{
		rec:     source.Recommendation{Track: playlist.Track{ID: "n"}},
		recOK:   true,
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	r := New(rec, testConfig(), seeded())

	done := make(chan bool)
	go func() {
		_, ok := r.Continue(context.Background(), playlist.Track{ID: "a"})
		done <- ok
	}()
	<-rec.entered

	assert.True(t, r.InFlight())
	_, ok := r.Continue(context.Background(), playlist.Track{ID: "b"})
	assert.False(t, ok, "second call must be rejected while one is in flight")

	close(rec.block)
	assert.True(t, <-done)
	assert.False(t, r.InFlight())
	r.Wait()
}

func TestObserve_RecordsTransition(t *testing.T) {
	rec := &fakeRecommender{}
	r := New(rec, testConfig(), seeded())

	r.Observe("a", "b", source.TransitionManual)
	r.Observe("b", "c", source.TransitionShuffle)
	r.Wait()

	assert.Equal(t, []string{"a", "b"}, r.Continuity().Recent(0))
	got := rec.Transitions()
	require.Len(t, got, 2)
	srcs := []source.TransitionSource{got[0].src, got[1].src}
	assert.ElementsMatch(t, []source.TransitionSource{source.TransitionManual, source.TransitionShuffle}, srcs)
}
