package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/icons"
	"github.com/llehouerou/undertow/internal/playback"
)

var (
	playerBarStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	currentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// chromeHeight is the rows used by everything but the queue list.
const chromeHeight = 8

func (m Model) View() string {
	innerWidth := max(m.width-2, 0)

	var b strings.Builder
	b.WriteString(playerBarStyle.Width(innerWidth).Render(m.playerBar(innerWidth)))
	b.WriteString("\n")
	b.WriteString(m.modeLine())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(errorLine(*m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.queueView(max(m.height-chromeHeight, 3)))
	b.WriteString(dimStyle.Render(" " + m.help))
	return b.String()
}

func (m Model) playerBar(width int) string {
	snap := m.snap
	left := " " + statusIcon(snap.Status) + "  " + trackLabel(snap.Track)
	if snap.Continuing {
		left = " " + icons.Continuing() + "  finding something to play next…"
	}

	right := ""
	if snap.Status.IsActive() {
		right = fmt.Sprintf("%s / %s ", formatDuration(snap.Position), formatDuration(trackLength(snap)))
	}
	if width > 0 {
		left = runewidth.Truncate(left, max(width-runewidth.StringWidth(right)-1, 1), "…")
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	line := left + strings.Repeat(" ", padding) + right

	bar := m.progress
	bar.Width = max(width-2, 10)
	return line + "\n " + bar.ViewAs(progressFraction(snap))
}

// progressFraction is the played share of the current track, 0 when the
// length is unknown.
func progressFraction(snap playback.Snapshot) float64 {
	length := trackLength(snap)
	if length <= 0 || !snap.Status.IsActive() {
		return 0
	}
	return min(float64(snap.Position)/float64(length), 1)
}

func (m Model) modeLine() string {
	snap := m.snap
	parts := []string{
		fmt.Sprintf("vol %d%%", int(snap.Volume*100+0.5)),
		repeatLabel(snap.RepeatMode),
	}
	if snap.Shuffle {
		parts = append(parts, icons.Shuffle()+" shuffle")
	}
	if len(snap.ShufflePool) > 0 {
		parts = append(parts, fmt.Sprintf("pool %s", humanize.Comma(int64(len(snap.ShufflePool)))))
	}
	if len(snap.Queue) > 0 {
		parts = append(parts, fmt.Sprintf("track %d of %s", snap.Index+1, humanize.Comma(int64(len(snap.Queue)))))
	}
	if snap.RetryCount > 0 {
		parts = append(parts, fmt.Sprintf("%s retry", humanize.Ordinal(snap.RetryCount)))
	}
	return dimStyle.Render(" " + strings.Join(parts, " · "))
}

// queueView lists up to rows tracks around the current one.
func (m Model) queueView(rows int) string {
	tracks := m.snap.Queue
	if len(tracks) == 0 {
		return dimStyle.Render(" queue is empty") + "\n"
	}
	start := max(m.snap.Index-rows/2, 0)
	end := min(start+rows, len(tracks))
	start = max(end-rows, 0)

	var b strings.Builder
	for i := start; i < end; i++ {
		line := fmt.Sprintf(" %3d  %s", i+1, trackLabel(&tracks[i]))
		if m.width > 0 {
			line = runewidth.Truncate(line, m.width, "…")
		}
		if i == m.snap.Index {
			line = currentStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func errorLine(e ServiceErrorMsg) string {
	msg := errmsg.FormatWith(errmsg.Op(e.Operation), e.TrackID, e.Err)
	return " " + icons.Error() + " " + msg + " (" + humanize.Time(e.At) + ")"
}

func repeatLabel(mode playback.RepeatMode) string {
	label := "repeat " + strings.ToLower(mode.String())
	switch mode {
	case playback.RepeatAll:
		return icons.RepeatAll() + " " + label
	case playback.RepeatOne:
		return icons.RepeatOne() + " " + label
	}
	return label
}

func statusIcon(s playback.Status) string {
	switch s {
	case playback.StatusPlaying:
		return icons.Playing()
	case playback.StatusPaused:
		return icons.Paused()
	case playback.StatusLoading:
		return icons.Loading()
	case playback.StatusError:
		return icons.Error()
	case playback.StatusIdle:
		return icons.Stopped()
	}
	return "?"
}

func trackLabel(t *playback.Track) string {
	if t == nil {
		return "nothing playing"
	}
	title := t.Title
	if title == "" {
		title = t.ID
	}
	if t.Artist == "" {
		return title
	}
	return t.Artist + " - " + title
}

func trackLength(snap playback.Snapshot) time.Duration {
	if snap.Duration > 0 {
		return snap.Duration
	}
	if snap.Track != nil {
		return snap.Track.Duration
	}
	return 0
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
