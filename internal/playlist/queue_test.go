// internal/playlist/queue_test.go
//
//nolint:goconst // test file with repeated string literals
package playlist

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

func seeded() Option {
	return WithRand(rand.New(rand.NewPCG(1, 2)))
}

func tracks(ids ...string) []Track {
	result := make([]Track, len(ids))
	for i, id := range ids {
		result[i] = Track{ID: id, Title: "Track " + id}
	}
	return result
}

func TestNewQueue(t *testing.T) {
	q := NewQueue()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
}

func TestQueue_Add_ToEmptyQueueSetsPointer(t *testing.T) {
	q := NewQueue()

	q.Add(tracks("a", "b")...)

	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}

	q.JumpTo(1)
	q.Add(tracks("c")...)
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1 (unchanged)", q.CurrentIndex())
	}
}

func TestQueue_SetQueue(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("old")...)

	track, err := q.SetQueue(tracks("a", "b", "c"), 2)

	if err != nil {
		t.Fatalf("SetQueue() error = %v", err)
	}
	if track == nil || track.ID != "c" {
		t.Errorf("SetQueue() track = %v, want c", track)
	}
	if q.Len() != 3 || q.CurrentIndex() != 2 {
		t.Errorf("Len() = %d, CurrentIndex() = %d, want 3, 2", q.Len(), q.CurrentIndex())
	}
}

func TestQueue_SetQueue_EmptyIsNoOp(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("a")...)

	_, err := q.SetQueue(nil, 0)

	if !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("SetQueue(nil) error = %v, want ErrEmptyQueue", err)
	}
	if q.Len() != 1 || q.Current().ID != "a" {
		t.Error("SetQueue(nil) should leave the queue untouched")
	}
}

func TestQueue_SetQueue_InvalidStartFallsBackToZero(t *testing.T) {
	q := NewQueue()

	track, _ := q.SetQueue(tracks("a", "b"), 7)

	if track.ID != "a" || q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
}

func TestQueue_PlaySingle(t *testing.T) {
	q := NewQueue()
	q.Add(tracks("a", "b")...)

	track := q.PlaySingle(Track{ID: "x"})

	if q.Len() != 1 || track.ID != "x" || q.CurrentIndex() != 0 {
		t.Errorf("PlaySingle: Len() = %d, track = %v", q.Len(), track)
	}
}

func TestQueue_Advance_RepeatAllWraps(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for start := range n {
			q := NewQueue()
			ids := make([]string, n)
			for i := range ids {
				ids[i] = string(rune('a' + i))
			}
			q.SetQueue(tracks(ids...), start)
			q.SetRepeatMode(RepeatAll)

			r := q.Advance(Forward)

			if want := (start + 1) % n; r.Index != want || q.CurrentIndex() != want {
				t.Errorf("n=%d start=%d: Index = %d, want %d", n, start, r.Index, want)
			}
			if r.Exhausted {
				t.Errorf("n=%d start=%d: Exhausted with RepeatAll", n, start)
			}
		}
	}
}

func TestQueue_Advance_RepeatOneReloads(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a", "b", "c"), 1)
	q.SetRepeatMode(RepeatOne)

	for range 3 {
		r := q.Advance(Forward)
		if !r.Reload || r.Moved {
			t.Errorf("Advance() = %+v, want Reload without move", r)
		}
		if q.CurrentIndex() != 1 {
			t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
		}
	}
}

func TestQueue_Advance_RepeatOffClampsAtEnd(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a", "b"), 0)

	r := q.Advance(Forward)
	if r.Index != 1 || !r.Moved {
		t.Fatalf("first Advance() = %+v, want index 1", r)
	}

	r = q.Advance(Forward)
	if !r.Exhausted || r.Moved || r.Index != 1 {
		t.Errorf("second Advance() = %+v, want Exhausted at 1", r)
	}
}

func TestQueue_Advance_Backward(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a", "b", "c"), 0)

	r := q.Advance(Backward)
	if r.Moved || r.Index != 0 {
		t.Errorf("Backward at start = %+v, want clamp at 0", r)
	}

	q.SetRepeatMode(RepeatAll)
	r = q.Advance(Backward)
	if r.Index != 2 {
		t.Errorf("Backward with RepeatAll = %d, want 2", r.Index)
	}
}

func TestQueue_Advance_EmptyQueue(t *testing.T) {
	q := NewQueue()

	r := q.Advance(Forward)

	if !r.Exhausted || r.Track != nil || r.Index != -1 {
		t.Errorf("Advance() on empty = %+v", r)
	}
}

func TestQueue_PlayAsShuffle_SeedsFromPool(t *testing.T) {
	pool := tracks("A", "B", "C")
	q := NewQueue(seeded())

	track, err := q.PlayAsShuffle(pool)

	if err != nil {
		t.Fatalf("PlayAsShuffle() error = %v", err)
	}
	if q.Len() != 1 || !inPool(*track, pool) {
		t.Errorf("queue = %v, want one element of the pool", q.Tracks())
	}
	if !q.Shuffle() || !q.HasPool() {
		t.Error("PlayAsShuffle should enable continuous shuffle")
	}
}

func TestQueue_PlayAsShuffle_EmptyPool(t *testing.T) {
	q := NewQueue()

	if _, err := q.PlayAsShuffle(nil); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("PlayAsShuffle(nil) error = %v, want ErrEmptyQueue", err)
	}
}

func TestQueue_ContinuousShuffle_NeverRunsDry(t *testing.T) {
	pool := tracks("A", "B", "C")
	for seed := range uint64(20) {
		q := NewQueue(WithRand(rand.New(rand.NewPCG(seed, seed+1))))
		q.PlayAsShuffle(pool)

		for n := 1; n <= 25; n++ {
			r := q.Advance(Forward)
			if r.Exhausted {
				t.Fatalf("seed %d: exhausted after %d advances", seed, n)
			}
			if q.Len() < n+1 {
				t.Fatalf("seed %d: Len() = %d after %d advances, want >= %d", seed, q.Len(), n, n+1)
			}
		}
		for _, tr := range q.Tracks() {
			if !inPool(tr, pool) {
				t.Fatalf("seed %d: track %q not drawn from pool", seed, tr.ID)
			}
		}
	}
}

func TestQueue_ContinuousShuffle_PrefersUnqueued(t *testing.T) {
	pool := tracks("A", "B", "C")
	q := NewQueue(seeded())
	q.PlayAsShuffle(pool)

	q.Advance(Forward)
	q.Advance(Forward)

	seen := map[string]bool{}
	for _, tr := range q.Tracks()[:3] {
		seen[tr.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("first three tracks = %v, want all distinct", q.Tracks())
	}
}

func TestQueue_ShuffleWithoutPool_VisitsEachOnce(t *testing.T) {
	q := NewQueue(seeded())
	q.SetQueue(tracks("a", "b", "c", "d"), 0)
	q.SetShuffle(true)

	seen := map[int]bool{0: true}
	for range 3 {
		r := q.Advance(Forward)
		if r.Exhausted {
			t.Fatal("exhausted before visiting every track")
		}
		if seen[r.Index] {
			t.Fatalf("index %d visited twice", r.Index)
		}
		seen[r.Index] = true
	}

	if r := q.Advance(Forward); !r.Exhausted {
		t.Errorf("Advance() after full pass = %+v, want Exhausted", r)
	}
}

func TestQueue_ToggleShuffle_DropsPool(t *testing.T) {
	q := NewQueue(seeded())
	q.PlayAsShuffle(tracks("A", "B"))

	if q.ToggleShuffle() {
		t.Fatal("ToggleShuffle() = true, want false")
	}
	if q.HasPool() {
		t.Error("disabling shuffle should drop the pool")
	}
}

func TestQueue_RemoveAt(t *testing.T) {
	tests := []struct {
		name        string
		current     int
		remove      int
		wantCurrent int
		wantRemoved bool
	}{
		{"before current", 2, 0, 1, false},
		{"after current", 0, 2, 0, false},
		{"current in middle", 1, 1, 1, true},
		{"current at end", 2, 2, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.SetQueue(tracks("a", "b", "c"), tt.current)

			removed, ok := q.RemoveAt(tt.remove)

			if !ok {
				t.Fatal("RemoveAt should succeed")
			}
			if removed != tt.wantRemoved {
				t.Errorf("removedCurrent = %v, want %v", removed, tt.wantRemoved)
			}
			if q.CurrentIndex() != tt.wantCurrent {
				t.Errorf("CurrentIndex() = %d, want %d", q.CurrentIndex(), tt.wantCurrent)
			}
		})
	}
}

func TestQueue_RemoveAt_LastTrackEmptiesPointer(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a"), 0)

	removed, ok := q.RemoveAt(0)

	if !ok || !removed {
		t.Errorf("RemoveAt(0) = %v, %v, want true, true", removed, ok)
	}
	if q.CurrentIndex() != -1 || q.Current() != nil {
		t.Error("empty queue should have no current track")
	}
}

func TestQueue_RemoveAt_Invalid(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a"), 0)

	if _, ok := q.RemoveAt(3); ok {
		t.Error("RemoveAt(3) should fail")
	}
}

func TestQueue_Move_KeepsPointerOnTrack(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a", "b", "c"), 1)

	q.Move(0, 2)

	if q.Current().ID != "b" {
		t.Errorf("Current() = %q, want b", q.Current().ID)
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue(seeded())
	q.PlayAsShuffle(tracks("a", "b"))

	q.Clear()

	if !q.IsEmpty() || q.CurrentIndex() != -1 || q.HasPool() {
		t.Error("Clear() should reset tracks, pointer and pool")
	}
}

func TestQueue_CorrectDuration(t *testing.T) {
	q := NewQueue()
	q.SetQueue(tracks("a"), 0)

	if !q.CorrectDuration(0, "a", 3*time.Minute) {
		t.Fatal("CorrectDuration should succeed for matching ID")
	}
	if q.Current().Duration != 3*time.Minute {
		t.Errorf("Duration = %v, want 3m", q.Current().Duration)
	}
	if q.CorrectDuration(0, "other", time.Minute) {
		t.Error("CorrectDuration should ignore a mismatching ID")
	}
}

func TestRepeatMode_Next(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		want RepeatMode
	}{
		{RepeatOff, RepeatAll},
		{RepeatAll, RepeatOne},
		{RepeatOne, RepeatOff},
	}
	for _, tt := range tests {
		if got := tt.mode.Next(); got != tt.want {
			t.Errorf("%v.Next() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func inPool(t Track, pool []Track) bool {
	for _, p := range pool {
		if p.ID == t.ID {
			return true
		}
	}
	return false
}
