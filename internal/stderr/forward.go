package stderr

import (
	"context"

	"github.com/charmbracelet/log"
)

const messageBuffer = 100

// Forward logs captured lines until ctx is done or capture stops.
func Forward(ctx context.Context, logger *log.Logger) {
	ch := Messages()
	if ch == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-ch:
			if !ok {
				return
			}
			logger.Warn("captured stderr", "line", line)
		}
	}
}
