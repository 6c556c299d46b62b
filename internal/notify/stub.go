//go:build !linux

package notify

// New returns a notifier that shows nothing outside Linux.
func New() (Notifier, error) {
	return noopNotifier{}, nil
}
