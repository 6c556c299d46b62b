//go:build linux

package notify

import (
	"context"
	"fmt"
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIface = "org.freedesktop.Notifications"

	appName      = "Undertow"
	desktopEntry = "undertow"
)

type dbusNotifier struct {
	obj    dbus.BusObject
	markup bool
}

// New connects to the session bus notification server. Without a session
// bus it returns a notifier that shows nothing.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return noopNotifier{}, nil //nolint:nilerr // headless sessions run without notifications
	}
	n := &dbusNotifier{obj: conn.Object(notifyDest, notifyPath)}

	var caps []string
	if err := n.obj.Call(notifyIface+".GetCapabilities", 0).Store(&caps); err != nil {
		return nil, fmt.Errorf("notification server: %w", err)
	}
	n.markup = slices.Contains(caps, "body-markup")
	return n, nil
}

func (n *dbusNotifier) Notify(ctx context.Context, notif Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}
	if notif.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}
	body := notif.Body
	if n.markup {
		body = escapeMarkup(body)
	}

	var id uint32
	err := n.obj.CallWithContext(ctx, notifyIface+".Notify", 0,
		appName,
		notif.Replaces,
		localIcon(notif.Icon),
		notif.Summary,
		body,
		[]string{},
		hints,
		notif.expireMillis(),
	).Store(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (n *dbusNotifier) Close(ctx context.Context, id uint32) error {
	return n.obj.CallWithContext(ctx, notifyIface+".CloseNotification", 0, id).Err
}
