package playlist

import (
	"slices"
	"time"
)

// Track represents a single playable track.
type Track struct {
	ID         string // catalog track identifier
	Title      string
	Artist     string
	Album      string
	Duration   time.Duration // a-priori metadata, corrected once the backend reports it
	ProviderID string        // external-provider identifier (optional)
	Thumbnail  string
}

// Playlist holds an ordered collection of tracks. Duplicate IDs are allowed.
type Playlist struct {
	tracks []Track
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]Track, 0),
	}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = slices.Delete(p.tracks, index, index+1)
	return true
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	return slices.Clone(p.tracks)
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return &p.tracks[index]
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Contains reports whether a track with the given ID is present.
func (p *Playlist) Contains(id string) bool {
	return slices.ContainsFunc(p.tracks, func(t Track) bool { return t.ID == id })
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.tracks[fromIndex]
	p.tracks = slices.Delete(p.tracks, fromIndex, fromIndex+1)
	p.tracks = slices.Insert(p.tracks, toIndex, track)
	return true
}
