package radio

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestNewContinuity_SessionID(t *testing.T) {
	a := NewContinuity(0)
	b := NewContinuity(0)

	if _, err := uuid.Parse(a.SessionID()); err != nil {
		t.Errorf("SessionID() = %q is not a UUID: %v", a.SessionID(), err)
	}
	if a.SessionID() == b.SessionID() {
		t.Error("sessions should get distinct IDs")
	}
	if a.max != DefaultHistorySize {
		t.Errorf("max = %d, want %d", a.max, DefaultHistorySize)
	}
}

func TestContinuity_PushEvictsOldest(t *testing.T) {
	c := NewContinuity(50)

	for i := range 60 {
		c.Push(fmt.Sprintf("t%d", i))
	}

	if c.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", c.Len())
	}
	all := c.Recent(0)
	if all[0] != "t10" || all[49] != "t59" {
		t.Errorf("history = [%s ... %s], want [t10 ... t59]", all[0], all[49])
	}
}

func TestContinuity_Recent(t *testing.T) {
	c := NewContinuity(10)
	c.Push("a")
	c.Push("b")
	c.Push("c")
	c.Push("")

	got := c.Recent(2)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Recent(2) = %v, want [b c]", got)
	}
	if got := c.Recent(20); len(got) != 3 {
		t.Errorf("Recent(20) = %v, want all 3", got)
	}

	got[0] = "mutated"
	if c.Recent(3)[0] != "a" {
		t.Error("Recent should return a copy")
	}
}

func TestContinuity_SetSessionIDAndReset(t *testing.T) {
	c := NewContinuity(5)
	c.Push("a")

	c.SetSessionID("server-session")
	c.SetSessionID("")
	if c.SessionID() != "server-session" {
		t.Errorf("SessionID() = %q, want server-session", c.SessionID())
	}
	if !c.Played()["a"] {
		t.Error("Played() should contain a")
	}

	c.Reset()
	if c.Len() != 0 || c.SessionID() == "server-session" {
		t.Errorf("after Reset: len %d session %q", c.Len(), c.SessionID())
	}
}
