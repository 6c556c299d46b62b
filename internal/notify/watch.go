package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/playback"
)

const (
	nowPlayingExpire = 5 * time.Second
	sendTimeout      = 2 * time.Second
)

// Watch turns playback events into desktop notifications until ctx is
// done or the subscription closes. Each new track replaces the previous
// "now playing" notification.
func Watch(ctx context.Context, sub *playback.Subscription, n Notifier, logger *log.Logger) {
	logger = logging.OrDiscard(logger)
	var lastID uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			if e.Current == nil {
				continue
			}
			id, err := send(ctx, n, nowPlaying(*e.Current, lastID))
			if err != nil {
				logger.Debug("now playing notification failed", "err", err)
				continue
			}
			lastID = id
		case e := <-sub.Error:
			if errmsg.Op(e.Operation) != errmsg.OpContinue {
				continue
			}
			if _, err := send(ctx, n, Notification{
				Summary: "Playback stopped",
				Body:    "Nothing left to play",
				Expire:  ExpireDefault,
				Urgency: UrgencyNormal,
			}); err != nil {
				logger.Debug("stop notification failed", "err", err)
			}
		}
	}
}

func send(ctx context.Context, n Notifier, notif Notification) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return n.Notify(ctx, notif)
}

func nowPlaying(t playback.Track, replaces uint32) Notification {
	title := t.Title
	if title == "" {
		title = t.ID
	}
	body := t.Artist
	if t.Album != "" {
		if body != "" {
			body = fmt.Sprintf("%s - %s", body, t.Album)
		} else {
			body = t.Album
		}
	}
	return Notification{
		Summary:   title,
		Body:      body,
		Icon:      t.Thumbnail,
		Expire:    nowPlayingExpire,
		Replaces:  replaces,
		Urgency:   UrgencyLow,
		Transient: true,
	}
}
