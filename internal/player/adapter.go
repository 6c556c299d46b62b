package player

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

const eventBufferSize = 16

// Verify Adapter implements Backend at compile time.
var _ Backend = (*Adapter)(nil)

// Adapter resolves tracks and routes them to the driver matching the
// descriptor kind: direct streams to the native driver, embedded references
// to the embedded driver. Only one driver is active at a time.
type Adapter struct {
	resolver source.Resolver
	direct   Driver
	embed    Driver    // nil when no embedded player is available
	keep     KeepAlive // nil disables the silent session
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// latest is the most recent generation requested. Loads that no longer
	// match it are abandoned before touching a driver.
	latest atomic.Uint64
	loadMu sync.Mutex

	cancelMu   sync.Mutex
	cancelLoad context.CancelFunc

	mu            sync.Mutex
	active        source.Kind
	volume        float64
	pendingUnmute bool

	events    chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithEmbedDriver sets the driver for embedded-provider sources.
func WithEmbedDriver(d Driver) AdapterOption {
	return func(a *Adapter) { a.embed = d }
}

// WithKeepAlive sets the silent session run alongside embedded playback.
func WithKeepAlive(k KeepAlive) AdapterOption {
	return func(a *Adapter) { a.keep = k }
}

// WithLogger sets the adapter logger.
func WithLogger(l *log.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter creates an adapter over a resolver and a direct-stream driver.
func NewAdapter(resolver source.Resolver, direct Driver, opts ...AdapterOption) *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		resolver: resolver,
		direct:   direct,
		volume:   1,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, eventBufferSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrDiscard(a.logger)

	for _, d := range a.drivers() {
		a.wg.Add(1)
		go a.forward(d.Events())
	}
	return a
}

func (a *Adapter) drivers() []Driver {
	ds := make([]Driver, 0, 2)
	if a.direct != nil {
		ds = append(ds, a.direct)
	}
	if a.embed != nil {
		ds = append(ds, a.embed)
	}
	return ds
}

func (a *Adapter) forward(ch <-chan Event) {
	defer a.wg.Done()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			a.emit(ev)
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) emit(ev Event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

// Load resolves and opens the track in the background. Any load still in
// flight is cancelled.
func (a *Adapter) Load(gen uint64, track playlist.Track) {
	ctx, cancel := context.WithCancel(a.ctx)
	a.latest.Store(gen)
	a.replaceLoad(cancel)
	a.wg.Add(1)
	go a.load(ctx, cancel, gen, track)
}

// replaceLoad cancels the in-flight load, if any, and remembers next.
func (a *Adapter) replaceLoad(next context.CancelFunc) {
	a.cancelMu.Lock()
	prev := a.cancelLoad
	a.cancelLoad = next
	a.cancelMu.Unlock()
	if prev != nil {
		prev()
	}
}

func (a *Adapter) superseded(gen uint64) bool {
	return a.latest.Load() != gen
}

func (a *Adapter) load(ctx context.Context, cancel context.CancelFunc, gen uint64, track playlist.Track) {
	defer a.wg.Done()
	defer cancel()

	desc, err := a.resolver.Resolve(ctx, track.ID)
	if err == nil {
		err = desc.Validate()
	}
	if err != nil {
		if a.superseded(gen) {
			return
		}
		a.logger.Debug("resolve failed", "track", track.ID, "gen", gen, "err", err)
		a.emit(Event{Kind: EventFailed, Gen: gen, Err: loadFailure(ErrResolution, err)})
		return
	}

	a.loadMu.Lock()
	defer a.loadMu.Unlock()

	if a.superseded(gen) {
		a.logger.Debug("load superseded", "track", track.ID, "gen", gen)
		return
	}

	drv := a.driverFor(desc.Kind)
	if drv == nil {
		a.emit(Event{Kind: EventFailed, Gen: gen, Err: loadFailure(ErrBackendLoad, ErrNoDriver)})
		return
	}
	a.switchTo(desc.Kind)

	dur, err := drv.Open(ctx, gen, desc)
	if a.superseded(gen) {
		a.logger.Debug("open superseded", "track", track.ID, "gen", gen)
		return
	}
	if err != nil {
		a.logger.Debug("driver open failed", "track", track.ID, "kind", desc.Kind, "err", err)
		a.emit(Event{Kind: EventFailed, Gen: gen, Err: loadFailure(ErrBackendLoad, err)})
		return
	}
	a.emit(Event{Kind: EventReady, Gen: gen, Duration: dur})
}

func (a *Adapter) driverFor(kind source.Kind) Driver {
	switch kind {
	case source.KindDirect:
		return a.direct
	case source.KindEmbedded:
		return a.embed
	default:
		return nil
	}
}

// switchTo makes kind the active backend, stopping the other driver.
// Embedded loads start muted and with the keep-alive session running.
func (a *Adapter) switchTo(kind source.Kind) {
	a.mu.Lock()
	prev := a.active
	a.active = kind
	vol := a.volume
	a.pendingUnmute = kind == source.KindEmbedded
	a.mu.Unlock()

	if prev != kind {
		if old := a.driverFor(prev); old != nil {
			if err := old.Stop(); err != nil {
				a.logger.Debug("stop previous driver", "kind", prev, "err", err)
			}
		}
	}

	drv := a.driverFor(kind)
	if err := drv.SetVolume(vol); err != nil {
		a.logger.Debug("set volume", "kind", kind, "err", err)
	}

	switch kind {
	case source.KindEmbedded:
		if err := drv.SetMuted(true); err != nil {
			a.logger.Debug("mute embedded", "err", err)
		}
		if a.keep != nil {
			if err := a.keep.Start(); err != nil {
				a.logger.Warn("keep-alive start failed", "err", err)
			}
		}
	default:
		if a.keep != nil {
			a.keep.Stop()
		}
	}
}

func (a *Adapter) activeDriver() (Driver, source.Kind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.driverFor(a.active), a.active
}

// Play starts the active driver. The first play after an embedded load
// also lifts the mute applied while loading.
func (a *Adapter) Play() {
	drv, kind := a.activeDriver()
	if drv == nil {
		return
	}
	if err := drv.Play(); err != nil {
		a.logger.Debug("play", "kind", kind, "err", err)
		return
	}

	a.mu.Lock()
	unmute := a.pendingUnmute
	a.pendingUnmute = false
	a.mu.Unlock()

	if unmute {
		if err := drv.SetMuted(false); err != nil {
			a.logger.Debug("unmute embedded", "err", err)
		}
	}
}

// Pause pauses the active driver.
func (a *Adapter) Pause() {
	drv, kind := a.activeDriver()
	if drv == nil {
		return
	}
	if err := drv.Pause(); err != nil {
		a.logger.Debug("pause", "kind", kind, "err", err)
	}
}

// Seek moves the active driver to an absolute position.
func (a *Adapter) Seek(pos time.Duration) {
	drv, kind := a.activeDriver()
	if drv == nil {
		return
	}
	if err := drv.Seek(max(pos, 0)); err != nil {
		a.logger.Debug("seek", "kind", kind, "err", err)
	}
}

// SetVolume applies a 0.0-1.0 level to every driver.
func (a *Adapter) SetVolume(level float64) {
	level = clampVolume(level)
	a.mu.Lock()
	a.volume = level
	a.mu.Unlock()

	for _, d := range a.drivers() {
		if err := d.SetVolume(level); err != nil {
			a.logger.Debug("set volume", "err", err)
		}
	}
}

// Stop abandons any in-flight load and stops the active driver.
func (a *Adapter) Stop() {
	a.latest.Store(0)
	a.replaceLoad(nil)

	a.mu.Lock()
	prev := a.active
	a.active = source.KindNone
	a.pendingUnmute = false
	a.mu.Unlock()

	if drv := a.driverFor(prev); drv != nil {
		if err := drv.Stop(); err != nil {
			a.logger.Debug("stop", "kind", prev, "err", err)
		}
	}
	if a.keep != nil {
		a.keep.Stop()
	}
}

// Position returns the active driver's position.
func (a *Adapter) Position() time.Duration {
	drv, _ := a.activeDriver()
	if drv == nil {
		return 0
	}
	return drv.Position()
}

// Active returns the kind of the active backend.
func (a *Adapter) Active() source.Kind {
	_, kind := a.activeDriver()
	return kind
}

// ResumeEmbedded restarts the embedded provider after a foreground transition.
func (a *Adapter) ResumeEmbedded() {
	drv, kind := a.activeDriver()
	if kind != source.KindEmbedded || drv == nil {
		return
	}
	if err := drv.Play(); err != nil {
		a.logger.Debug("resume embedded", "err", err)
	}
}

// KeepAlive returns the silent session, or nil.
func (a *Adapter) KeepAlive() KeepAlive {
	return a.keep
}

// Events returns the channel of load outcomes and driver events.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Close stops everything and releases the drivers.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.done)
		a.cancel()
		if a.keep != nil {
			a.keep.Stop()
		}
		for _, d := range a.drivers() {
			if cerr := d.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		a.wg.Wait()
	})
	return err
}
