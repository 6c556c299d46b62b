package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// errorTTL is how long an error stays in the status line.
const errorTTL = 10 * time.Second

// WatchServiceEvents returns a command that waits for playback service events.
// It listens on all subscription channels and converts events to tea.Msg.
func (m Model) WatchServiceEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	now := m.now
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return ServiceStateChangedMsg{Previous: e.Previous, Current: e.Current}
		case e := <-sub.TrackChanged:
			return ServiceTrackChangedMsg{PreviousIndex: e.PreviousIndex, CurrentIndex: e.Index}
		case <-sub.QueueChanged:
			return ServiceUpdatedMsg{}
		case <-sub.ModeChanged:
			return ServiceUpdatedMsg{}
		case <-sub.PositionChanged:
			return ServiceUpdatedMsg{}
		case e := <-sub.Error:
			return ServiceErrorMsg{Operation: e.Operation, TrackID: e.TrackID, Err: e.Err, At: now()}
		case <-sub.Done:
			return ServiceClosedMsg{}
		}
	}
}

func clearErrorCmd(at time.Time) tea.Cmd {
	return tea.Tick(errorTTL, func(time.Time) tea.Msg {
		return clearErrorMsg{At: at}
	})
}
