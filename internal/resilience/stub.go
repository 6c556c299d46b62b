//go:build !linux

package resilience

import "context"

// WatchSleep is a no-op on non-Linux platforms.
func WatchSleep(_ context.Context, _ *Guard) error {
	return nil
}
