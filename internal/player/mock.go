package player

import (
	"sync"
	"time"

	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

// MockLoad records one Load call.
type MockLoad struct {
	Gen     uint64
	TrackID string
}

// MockBackend is a test double for Backend. Outcomes are injected with the
// Emit helpers.
type MockBackend struct {
	mu             sync.Mutex
	loads          []MockLoad
	plays          int
	pauses         int
	stops          int
	resumeEmbedded int
	seeks          []time.Duration
	volume         float64
	position       time.Duration
	active         source.Kind
	closed         bool

	events chan Event
}

// NewMockBackend creates a new mock backend for testing.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		volume: 1,
		events: make(chan Event, 64),
	}
}

func (m *MockBackend) Load(gen uint64, track playlist.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, MockLoad{Gen: gen, TrackID: track.ID})
}

func (m *MockBackend) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
}

func (m *MockBackend) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
}

func (m *MockBackend) Seek(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, pos)
	m.position = pos
}

func (m *MockBackend) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = level
}

func (m *MockBackend) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *MockBackend) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockBackend) Active() source.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *MockBackend) ResumeEmbedded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeEmbedded++
}

func (m *MockBackend) Events() <-chan Event { return m.events }

func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// EmitReady reports a successful load.
func (m *MockBackend) EmitReady(gen uint64, d time.Duration) {
	m.events <- Event{Kind: EventReady, Gen: gen, Duration: d}
}

// EmitEnded reports natural end of playback.
func (m *MockBackend) EmitEnded(gen uint64) {
	m.events <- Event{Kind: EventEnded, Gen: gen}
}

// EmitFailed reports a load failure.
func (m *MockBackend) EmitFailed(gen uint64, err error) {
	m.events <- Event{Kind: EventFailed, Gen: gen, Err: err}
}

// Loads returns all Load calls so far.
func (m *MockBackend) Loads() []MockLoad {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockLoad(nil), m.loads...)
}

// LastLoad returns the most recent Load call.
func (m *MockBackend) LastLoad() (MockLoad, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loads) == 0 {
		return MockLoad{}, false
	}
	return m.loads[len(m.loads)-1], true
}

func (m *MockBackend) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

func (m *MockBackend) Pauses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *MockBackend) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func (m *MockBackend) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

func (m *MockBackend) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockBackend) ResumeEmbeddedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumeEmbedded
}

func (m *MockBackend) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *MockBackend) SetActive(k source.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = k
}

func (m *MockBackend) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify MockBackend implements Backend at compile time.
var _ Backend = (*MockBackend)(nil)
