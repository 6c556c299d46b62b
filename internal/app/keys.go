package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/keymap"
)

const (
	volumeStep = 0.05
	seekStep   = 5 * time.Second
)

// handleKey applies the action bound to key and returns any follow-up command.
func (m *Model) handleKey(key string) tea.Cmd {
	switch m.keys.Resolve(key) {
	case keymap.ActionQuit:
		return tea.Quit
	case keymap.ActionSuspend:
		m.background()
		return tea.Suspend
	case keymap.ActionPlayPause:
		return m.report(errmsg.OpToggle, m.svc.Toggle())
	case keymap.ActionNext:
		return m.report(errmsg.OpNext, m.svc.Next())
	case keymap.ActionPrevious:
		return m.report(errmsg.OpPrevious, m.svc.Previous())
	case keymap.ActionStop:
		return m.report(errmsg.OpStop, m.svc.Stop())
	case keymap.ActionRemoveCurrent:
		return m.report(errmsg.OpRemove, m.svc.RemoveFromQueue(m.snap.Index))
	case keymap.ActionClearQueue:
		return m.report(errmsg.OpClear, m.svc.ClearQueue())
	case keymap.ActionPlayTrending:
		if len(m.pool) == 0 {
			return nil
		}
		return m.report(errmsg.OpShuffle, m.svc.PlayAsShuffle(m.pool))
	case keymap.ActionCycleRepeat:
		m.svc.CycleRepeatMode()
		m.saveSettings()
	case keymap.ActionToggleShuffle:
		m.svc.ToggleShuffle()
		m.saveSettings()
	case keymap.ActionVolumeUp:
		m.svc.SetVolume(m.snap.Volume + volumeStep)
		m.saveSettings()
	case keymap.ActionVolumeDown:
		m.svc.SetVolume(m.snap.Volume - volumeStep)
		m.saveSettings()
	case keymap.ActionSeekForward:
		return m.report(errmsg.OpSeek, m.svc.Seek(m.snap.Position+seekStep))
	case keymap.ActionSeekBackward:
		return m.report(errmsg.OpSeek, m.svc.Seek(max(m.snap.Position-seekStep, 0)))
	}
	return nil
}
