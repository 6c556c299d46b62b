// Package notify shows desktop notifications for playback events.
package notify

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// ExpireDefault lets the notification server pick the timeout.
const ExpireDefault time.Duration = -1

// Notification is one desktop notification.
type Notification struct {
	Summary  string
	Body     string
	Icon     string        // local path, file:// URI or icon name; remote URLs are dropped
	Expire   time.Duration // 0 never expires, ExpireDefault lets the server decide
	Replaces uint32        // ID of a notification to update in place
	Urgency  Urgency

	// Transient notifications bypass the server's history.
	Transient bool
}

func (n Notification) expireMillis() int32 {
	if n.Expire < 0 {
		return -1
	}
	return int32(n.Expire.Milliseconds())
}

// localIcon returns icon when the server can load it itself.
func localIcon(icon string) string {
	u, err := url.Parse(icon)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		return icon
	}
	return ""
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its server ID, 0 when nothing was shown.
	Notify(ctx context.Context, n Notification) (uint32, error)
	// Close withdraws a notification.
	Close(ctx context.Context, id uint32) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) (uint32, error) { return 0, nil }
func (noopNotifier) Close(context.Context, uint32) error                  { return nil }

// escapeMarkup escapes the characters the body markup subset interprets.
func escapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
