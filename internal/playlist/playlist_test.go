//nolint:goconst // test file with repeated string literals
package playlist

import "testing"

func TestNewPlaylist(t *testing.T) {
	p := NewPlaylist()

	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
	if p.Tracks() == nil {
		t.Error("Tracks() should return empty slice, not nil")
	}
}

func TestPlaylist_Add_AllowsDuplicates(t *testing.T) {
	p := NewPlaylist()

	p.Add(Track{ID: "a"}, Track{ID: "a"})

	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestPlaylist_Remove(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})

	if !p.Remove(1) {
		t.Fatal("Remove should return true")
	}
	tracks := p.Tracks()
	if len(tracks) != 2 || tracks[0].ID != "a" || tracks[1].ID != "c" {
		t.Errorf("Tracks() = %v, want [a c]", tracks)
	}
}

func TestPlaylist_Remove_InvalidIndex(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"})

	if p.Remove(-1) {
		t.Error("Remove(-1) should return false")
	}
	if p.Remove(1) {
		t.Error("Remove(1) should return false")
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

func TestPlaylist_Tracks_ReturnsCopy(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"})

	tracks := p.Tracks()
	tracks[0].ID = "modified"

	if p.Track(0).ID != "a" {
		t.Error("Tracks() should return a copy")
	}
}

func TestPlaylist_Contains(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"}, Track{ID: "b"})

	if !p.Contains("b") {
		t.Error("Contains(b) = false, want true")
	}
	if p.Contains("z") {
		t.Error("Contains(z) = true, want false")
	}
}

func TestPlaylist_Move(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a"}},
		{"backward", 2, 0, []string{"c", "a", "b"}},
		{"same", 1, 1, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlaylist()
			p.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})

			if !p.Move(tt.from, tt.to) {
				t.Fatal("Move should return true")
			}
			for i, id := range tt.want {
				if got := p.Track(i).ID; got != id {
					t.Errorf("Track(%d).ID = %q, want %q", i, got, id)
				}
			}
		})
	}
}

func TestPlaylist_Move_InvalidIndex(t *testing.T) {
	p := NewPlaylist()
	p.Add(Track{ID: "a"}, Track{ID: "b"})

	if p.Move(0, 5) {
		t.Error("Move(0, 5) should return false")
	}
	if p.Move(-1, 0) {
		t.Error("Move(-1, 0) should return false")
	}
}
