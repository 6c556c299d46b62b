//go:build linux

package resilience

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	logindPath      = "/org/freedesktop/login1"
	logindInterface = "org.freedesktop.login1.Manager"
	prepareForSleep = logindInterface + ".PrepareForSleep"
)

// WatchSleep treats system suspend as an audio interruption: playback is
// paused before sleeping and resumed on wake. It returns once the D-Bus
// subscription is in place and stops when ctx is done.
func WatchSleep(ctx context.Context, g *Guard) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return err
	}

	ch := make(chan *dbus.Signal, 4)
	conn.Signal(ch)
	go func() {
		defer conn.RemoveSignal(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				handleSleepSignal(g, sig)
			}
		}
	}()
	return nil
}

func handleSleepSignal(g *Guard, sig *dbus.Signal) {
	if sig == nil || sig.Name != prepareForSleep || len(sig.Body) != 1 {
		return
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		return
	}
	if sleeping {
		g.Interrupted()
	} else {
		g.InterruptionEnded()
	}
}
