package radio

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// DefaultHistorySize bounds the session history.
const DefaultHistorySize = 50

// Continuity is the session identity and bounded play history passed to
// the recommendation service. It lives for one session and is never persisted.
type Continuity struct {
	mu        sync.Mutex
	sessionID string
	history   []string
	max       int
}

// NewContinuity starts a session with a fresh random ID.
func NewContinuity(maxHistory int) *Continuity {
	if maxHistory <= 0 {
		maxHistory = DefaultHistorySize
	}
	return &Continuity{
		sessionID: uuid.New().String(),
		max:       maxHistory,
	}
}

// SessionID returns the current session ID.
func (c *Continuity) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SetSessionID adopts a session ID issued by the recommendation service.
func (c *Continuity) SetSessionID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Push appends a track ID, evicting the oldest entries beyond the bound.
func (c *Continuity) Push(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, id)
	if over := len(c.history) - c.max; over > 0 {
		c.history = slices.Delete(c.history, 0, over)
	}
}

// Recent returns up to n of the most recent IDs, oldest first.
func (c *Continuity) Recent(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.history) {
		n = len(c.history)
	}
	return slices.Clone(c.history[len(c.history)-n:])
}

// Played returns the history as a set.
func (c *Continuity) Played() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := make(map[string]bool, len(c.history))
	for _, id := range c.history {
		set[id] = true
	}
	return set
}

// Len returns the number of remembered IDs.
func (c *Continuity) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// Reset starts a new session with an empty history.
func (c *Continuity) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = uuid.New().String()
	c.history = nil
}
