package app

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/keymap"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/state"
)

// Lifecycle receives host visibility transitions.
type Lifecycle interface {
	Background()
	Foreground()
}

// SettingsStore persists the settings changed from the keyboard.
type SettingsStore interface {
	SaveSettings(s state.Settings)
}

// Model is the bubbletea model of the player screen.
type Model struct {
	svc       playback.Service
	sub       *playback.Subscription
	lifecycle Lifecycle
	store     SettingsStore
	pool      []playback.Track
	now       func() time.Time
	bindings  []keymap.Binding
	keys      *keymap.Resolver
	help      string
	progress  progress.Model

	snap   playback.Snapshot
	err    *ServiceErrorMsg
	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithLifecycle sets the receiver of suspend and focus transitions.
func WithLifecycle(l Lifecycle) Option {
	return func(m *Model) { m.lifecycle = l }
}

// WithSettingsStore sets where volume and mode changes are saved.
func WithSettingsStore(s SettingsStore) Option {
	return func(m *Model) { m.store = s }
}

// WithShufflePool sets the tracks played by the shuffle key.
func WithShufflePool(pool []playback.Track) Option {
	return func(m *Model) { m.pool = pool }
}

// WithKeyBindings replaces the default key bindings.
func WithKeyBindings(bindings []keymap.Binding) Option {
	return func(m *Model) { m.bindings = bindings }
}

// WithClock overrides the time source used for error timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates the model and subscribes to svc.
func New(svc playback.Service, opts ...Option) Model {
	m := Model{
		svc:      svc,
		sub:      svc.Subscribe(),
		now:      time.Now,
		bindings: keymap.Default,
		progress: progress.New(progress.WithoutPercentage(), progress.WithSolidFill("39")),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.keys = keymap.NewResolver(m.bindings)
	m.help = keymap.HelpLine(m.keys, m.bindings)
	m.snap = svc.Snapshot()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.WatchServiceEvents()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg.String())
		m.snap = m.svc.Snapshot()
		return m, cmd

	case tea.BlurMsg:
		m.background()
		return m, nil

	case tea.FocusMsg, tea.ResumeMsg:
		m.foreground()
		return m, nil

	case ServiceStateChangedMsg, ServiceTrackChangedMsg, ServiceUpdatedMsg:
		m.snap = m.svc.Snapshot()
		return m, m.WatchServiceEvents()

	case ServiceErrorMsg:
		m.err = &msg
		m.snap = m.svc.Snapshot()
		return m, tea.Batch(m.WatchServiceEvents(), clearErrorCmd(msg.At))

	case clearErrorMsg:
		if m.err != nil && m.err.At.Equal(msg.At) {
			m.err = nil
		}
		return m, nil

	case ServiceClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) background() {
	if m.lifecycle != nil {
		m.lifecycle.Background()
	}
}

func (m *Model) foreground() {
	if m.lifecycle != nil {
		m.lifecycle.Foreground()
	}
}

// report shows an intent failure in the status line.
func (m *Model) report(op errmsg.Op, err error) tea.Cmd {
	if err == nil || errors.Is(err, playback.ErrClosed) {
		return nil
	}
	at := m.now()
	m.err = &ServiceErrorMsg{Operation: string(op), Err: err, At: at}
	return clearErrorCmd(at)
}

func (m *Model) saveSettings() {
	if m.store == nil {
		return
	}
	snap := m.svc.Snapshot()
	m.store.SaveSettings(state.Settings{
		Volume:     snap.Volume,
		RepeatMode: int(snap.RepeatMode),
		Shuffle:    snap.Shuffle,
	})
}
