package notify

import (
	"context"
	"testing"
	"time"
)

func TestUrgencyValues(t *testing.T) {
	// freedesktop levels
	if UrgencyLow != 0 || UrgencyNormal != 1 || UrgencyCritical != 2 {
		t.Errorf("urgency levels = %d/%d/%d, want 0/1/2", UrgencyLow, UrgencyNormal, UrgencyCritical)
	}
}

func TestExpireMillis(t *testing.T) {
	tests := []struct {
		expire time.Duration
		want   int32
	}{
		{0, 0},
		{ExpireDefault, -1},
		{-5 * time.Second, -1},
		{5 * time.Second, 5000},
		{1500 * time.Microsecond, 1},
	}
	for _, tt := range tests {
		if got := (Notification{Expire: tt.expire}).expireMillis(); got != tt.want {
			t.Errorf("expireMillis(%v) = %d, want %d", tt.expire, got, tt.want)
		}
	}
}

func TestLocalIcon(t *testing.T) {
	tests := map[string]string{
		"":                              "",
		"audio-x-generic":               "audio-x-generic",
		"/tmp/cover.jpg":                "/tmp/cover.jpg",
		"file:///tmp/cover.jpg":         "file:///tmp/cover.jpg",
		"https://img.example/cover.jpg": "",
		"http://img.example/cover.jpg":  "",
	}
	for in, want := range tests {
		if got := localIcon(in); got != want {
			t.Errorf("localIcon(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeMarkup(t *testing.T) {
	got := escapeMarkup("Simon & Garfunkel <live>")
	if got != "Simon &amp; Garfunkel &lt;live&gt;" {
		t.Errorf("escapeMarkup() = %q", got)
	}
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = noopNotifier{}
	id, err := n.Notify(context.Background(), Notification{Summary: "x"})
	if id != 0 || err != nil {
		t.Errorf("Notify() = %d, %v, want 0, nil", id, err)
	}
	if err := n.Close(context.Background(), 1); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
