package playlist

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"
)

// ErrEmptyQueue is returned when an operation needs at least one track.
var ErrEmptyQueue = errors.New("queue is empty")

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Next returns the mode following m in the Off → All → One cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Direction selects which way Advance moves the pointer.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// AdvanceResult describes the outcome of Advance.
type AdvanceResult struct {
	Track     *Track // track at the resulting pointer, nil if the queue is empty
	Index     int
	Moved     bool // pointer changed
	Reload    bool // RepeatOne: same pointer, restart the track from zero
	Exhausted bool // nowhere to go; the caller may extend the queue
	Refilled  bool // a track from the shuffle pool was appended first
}

// PlayingQueue wraps a Playlist with the current pointer and play modes.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int // -1 if the queue is empty
	repeat       RepeatMode
	shuffle      bool
	pool         []Track
	visited      map[int]bool // indices already played in this shuffle pass
	rng          *rand.Rand
}

// Option configures a PlayingQueue.
type Option func(*PlayingQueue)

// WithRand sets the random source used for shuffle decisions.
func WithRand(r *rand.Rand) Option {
	return func(q *PlayingQueue) {
		q.rng = r
	}
}

// NewQueue creates a new empty playing queue.
func NewQueue(opts ...Option) *PlayingQueue {
	q := &PlayingQueue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
		visited:      make(map[int]bool),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security-sensitive
	}
	return q
}

// Current returns the track at the pointer, or nil if none.
func (q *PlayingQueue) Current() *Track {
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the pointer (-1 if the queue is empty).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// SetQueue replaces the sequence and the pointer.
// The shuffle pool is dropped. Out-of-range start indices fall back to 0.
func (q *PlayingQueue) SetQueue(tracks []Track, startIndex int) (*Track, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyQueue
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}
	q.playlist.Clear()
	q.playlist.Add(tracks...)
	q.pool = nil
	q.currentIndex = startIndex
	q.resetVisited()
	return q.Current(), nil
}

// PlaySingle replaces the queue with a single track.
func (q *PlayingQueue) PlaySingle(track Track) *Track {
	t, _ := q.SetQueue([]Track{track}, 0) //nolint:errcheck // never empty
	return t
}

// PlayAsShuffle stores pool as the continuous shuffle source and seeds the
// queue with one random track from it.
func (q *PlayingQueue) PlayAsShuffle(pool []Track) (*Track, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyQueue
	}
	seed := pool[q.rng.IntN(len(pool))]
	q.SetQueue([]Track{seed}, 0) //nolint:errcheck // never empty
	q.pool = slices.Clone(pool)
	q.shuffle = true
	return q.Current(), nil
}

// Add appends tracks. If the queue was empty the pointer moves to the first one.
func (q *PlayingQueue) Add(tracks ...Track) {
	q.playlist.Add(tracks...)
	if q.currentIndex < 0 && q.playlist.Len() > 0 {
		q.currentIndex = 0
		q.resetVisited()
	}
}

// Append adds a single track and returns its index.
func (q *PlayingQueue) Append(track Track) int {
	q.Add(track)
	return q.playlist.Len() - 1
}

// JumpTo sets the pointer. Returns the track there, or nil if invalid.
func (q *PlayingQueue) JumpTo(index int) *Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	q.visited[index] = true
	return q.Current()
}

// RemoveAt removes the track at index.
// removedCurrent reports whether the track under the pointer was removed; the
// pointer then designates the following track (clamped to the new end).
func (q *PlayingQueue) RemoveAt(index int) (removedCurrent, ok bool) {
	if !q.playlist.Remove(index) {
		return false, false
	}

	switch {
	case q.playlist.Len() == 0:
		removedCurrent = index == q.currentIndex
		q.currentIndex = -1
	case q.currentIndex > index:
		q.currentIndex--
	case q.currentIndex == index:
		removedCurrent = true
		if q.currentIndex >= q.playlist.Len() {
			q.currentIndex = q.playlist.Len() - 1
		}
	}
	q.resetVisited()
	return removedCurrent, true
}

// Move moves a track and keeps the pointer on the same track.
func (q *PlayingQueue) Move(from, to int) bool {
	if !q.playlist.Move(from, to) {
		return false
	}
	switch {
	case q.currentIndex == from:
		q.currentIndex = to
	case from < q.currentIndex && to >= q.currentIndex:
		q.currentIndex--
	case from > q.currentIndex && to <= q.currentIndex:
		q.currentIndex++
	}
	q.resetVisited()
	return true
}

// Clear removes all tracks, the pointer and the shuffle pool.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.currentIndex = -1
	q.pool = nil
	q.resetVisited()
}

// CorrectDuration updates the duration of the track at index if it still
// holds the track with the given ID.
func (q *PlayingQueue) CorrectDuration(index int, id string, d time.Duration) bool {
	t := q.playlist.Track(index)
	if t == nil || t.ID != id || d <= 0 {
		return false
	}
	t.Duration = d
	return true
}

// Advance moves the pointer according to the repeat and shuffle modes.
//
//   - RepeatOne never moves the pointer; the result asks for a reload.
//   - RepeatAll wraps around at either end.
//   - RepeatOff clamps; moving forward past the end reports Exhausted.
//
// With an active shuffle pool, a pool track is appended whenever the pointer is
// within one slot of the end, so forward moves never run dry.
func (q *PlayingQueue) Advance(dir Direction) AdvanceResult {
	if q.playlist.Len() == 0 {
		return AdvanceResult{Index: -1, Exhausted: true}
	}
	if q.currentIndex < 0 {
		q.currentIndex = 0
		return q.result(true)
	}
	if q.repeat == RepeatOne {
		r := q.result(false)
		r.Reload = true
		return r
	}
	if dir == Backward {
		return q.retreat()
	}

	refilled := q.refill()
	if q.shuffle && len(q.pool) == 0 {
		r := q.shuffleNext()
		r.Refilled = refilled
		return r
	}

	last := q.playlist.Len() - 1
	switch {
	case q.currentIndex < last:
		q.currentIndex++
	case q.repeat == RepeatAll:
		q.currentIndex = 0
	default:
		r := q.result(false)
		r.Exhausted = true
		return r
	}
	r := q.result(true)
	r.Refilled = refilled
	return r
}

func (q *PlayingQueue) retreat() AdvanceResult {
	switch {
	case q.currentIndex > 0:
		q.currentIndex--
	case q.repeat == RepeatAll && q.playlist.Len() > 1:
		q.currentIndex = q.playlist.Len() - 1
	default:
		return q.result(false)
	}
	return q.result(true)
}

// shuffleNext picks a random track not yet played in this pass.
func (q *PlayingQueue) shuffleNext() AdvanceResult {
	q.visited[q.currentIndex] = true
	candidates := make([]int, 0, q.playlist.Len())
	for i := range q.playlist.Len() {
		if !q.visited[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		if q.repeat != RepeatAll {
			r := q.result(false)
			r.Exhausted = true
			return r
		}
		q.resetVisited()
		for i := range q.playlist.Len() {
			if i != q.currentIndex || q.playlist.Len() == 1 {
				candidates = append(candidates, i)
			}
		}
	}
	q.currentIndex = candidates[q.rng.IntN(len(candidates))]
	q.visited[q.currentIndex] = true
	return q.result(true)
}

// refill appends a pool track when the pointer is near the end.
// Tracks not already queued are preferred.
func (q *PlayingQueue) refill() bool {
	if len(q.pool) == 0 || q.currentIndex < q.playlist.Len()-2 {
		return false
	}
	fresh := make([]Track, 0, len(q.pool))
	for _, t := range q.pool {
		if !q.playlist.Contains(t.ID) {
			fresh = append(fresh, t)
		}
	}
	candidates := fresh
	if len(candidates) == 0 {
		candidates = q.pool
	}
	q.playlist.Add(candidates[q.rng.IntN(len(candidates))])
	return true
}

func (q *PlayingQueue) result(moved bool) AdvanceResult {
	return AdvanceResult{
		Track: q.Current(),
		Index: q.currentIndex,
		Moved: moved,
	}
}

func (q *PlayingQueue) resetVisited() {
	clear(q.visited)
	if q.currentIndex >= 0 {
		q.visited[q.currentIndex] = true
	}
}

// RepeatMode returns the current repeat mode.
func (q *PlayingQueue) RepeatMode() RepeatMode {
	return q.repeat
}

// SetRepeatMode sets the repeat mode.
func (q *PlayingQueue) SetRepeatMode(mode RepeatMode) {
	q.repeat = mode
}

// Shuffle returns whether shuffle is enabled.
func (q *PlayingQueue) Shuffle() bool {
	return q.shuffle
}

// SetShuffle enables or disables shuffle. Disabling drops the shuffle pool.
func (q *PlayingQueue) SetShuffle(enabled bool) {
	q.shuffle = enabled
	if !enabled {
		q.pool = nil
	}
	q.resetVisited()
}

// ToggleShuffle flips shuffle and returns the new value.
func (q *PlayingQueue) ToggleShuffle() bool {
	q.SetShuffle(!q.shuffle)
	return q.shuffle
}

// Pool returns a copy of the continuous shuffle source.
func (q *PlayingQueue) Pool() []Track {
	return slices.Clone(q.pool)
}

// HasPool reports whether continuous shuffle is active.
func (q *PlayingQueue) HasPool() bool {
	return len(q.pool) > 0
}

// Tracks returns all tracks in the queue.
func (q *PlayingQueue) Tracks() []Track {
	return q.playlist.Tracks()
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}
