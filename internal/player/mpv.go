package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/source"
)

// ErrMPVUnavailable is returned when the mpv process cannot be reached.
var ErrMPVUnavailable = errors.New("mpv unavailable")

const (
	mpvCommandTimeout = 2 * time.Second
	mpvDialAttempts   = 50
	mpvDialInterval   = 100 * time.Millisecond
)

// Verify MPVDriver implements Driver at compile time.
var _ Driver = (*MPVDriver)(nil)

// MPVDriver plays embedded-provider references through an mpv process
// controlled over its JSON IPC socket.
type MPVDriver struct {
	path   string
	socket string
	dial   func(ctx context.Context) (net.Conn, error)
	logger *log.Logger

	startMu sync.Mutex
	cmd     *exec.Cmd
	conn    net.Conn
	writeMu sync.Mutex

	nextID  atomic.Int64
	pendMu  sync.Mutex
	pending map[int64]chan mpvResponse

	// gen is the generation of the open file; 0 when nothing is open.
	gen     atomic.Uint64
	openMu  sync.Mutex
	opening chan error

	events chan Event
	done   chan struct{}
	closed atomic.Bool
}

type mpvResponse struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID *int64          `json:"request_id"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// MPVOption configures an MPVDriver.
type MPVOption func(*MPVDriver)

// WithMPVDialer connects to an already running mpv instead of spawning one.
func WithMPVDialer(dial func(ctx context.Context) (net.Conn, error)) MPVOption {
	return func(d *MPVDriver) { d.dial = dial }
}

// WithMPVLogger sets the driver logger.
func WithMPVLogger(l *log.Logger) MPVOption {
	return func(d *MPVDriver) { d.logger = l }
}

// NewMPVDriver creates a driver that starts mpv lazily on first Open.
func NewMPVDriver(path, socket string, opts ...MPVOption) *MPVDriver {
	d := &MPVDriver{
		path:    path,
		socket:  socket,
		pending: make(map[int64]chan mpvResponse),
		events:  make(chan Event, eventBufferSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDiscard(d.logger)
	return d
}

// Available reports whether the mpv binary can be found.
func (d *MPVDriver) Available() bool {
	if d.dial != nil {
		return true
	}
	_, err := exec.LookPath(d.path)
	return err == nil
}

func (d *MPVDriver) ensureStarted(ctx context.Context) error {
	d.startMu.Lock()
	defer d.startMu.Unlock()

	if d.closed.Load() {
		return ErrMPVUnavailable
	}
	if d.conn != nil {
		return nil
	}

	dial := d.dial
	if dial == nil {
		if err := d.spawn(); err != nil {
			return fmt.Errorf("%w: %w", ErrMPVUnavailable, err)
		}
		dial = d.dialSocket
	}

	conn, err := dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMPVUnavailable, err)
	}
	d.conn = conn
	go d.readLoop(conn)
	return nil
}

func (d *MPVDriver) spawn() error {
	_ = os.Remove(d.socket)
	cmd := exec.Command(d.path,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+d.socket,
	)
	if err := cmd.Start(); err != nil {
		return err
	}
	d.cmd = cmd
	go func() {
		err := cmd.Wait()
		d.logger.Debug("mpv exited", "err", err)
	}()
	return nil
}

func (d *MPVDriver) dialSocket(ctx context.Context) (net.Conn, error) {
	var dialer net.Dialer
	var err error
	for range mpvDialAttempts {
		var conn net.Conn
		conn, err = dialer.DialContext(ctx, "unix", d.socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(mpvDialInterval):
		}
	}
	return nil, err
}

func (d *MPVDriver) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg mpvResponse
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			d.logger.Debug("mpv: bad message", "err", err)
			continue
		}
		if msg.Event != "" {
			d.handleEvent(msg)
			continue
		}
		if msg.RequestID == nil {
			continue
		}
		d.pendMu.Lock()
		ch, ok := d.pending[*msg.RequestID]
		delete(d.pending, *msg.RequestID)
		d.pendMu.Unlock()
		if ok {
			ch <- msg
		}
	}

	d.startMu.Lock()
	if d.conn == conn {
		d.conn = nil
	}
	d.startMu.Unlock()
	d.failOpening(ErrMPVUnavailable)

	// The process went away while a file was open.
	if gen := d.gen.Swap(0); gen != 0 && !d.closed.Load() {
		d.emit(Event{Kind: EventFailed, Gen: gen, Err: ErrMPVUnavailable})
	}
}

func (d *MPVDriver) handleEvent(msg mpvResponse) {
	switch msg.Event {
	case "file-loaded":
		d.finishOpening(nil)
	case "end-file":
		switch msg.Reason {
		case "eof":
			if gen := d.gen.Swap(0); gen != 0 {
				d.emit(Event{Kind: EventEnded, Gen: gen})
			}
		case "error":
			err := fmt.Errorf("mpv: %s", msg.FileError)
			if d.finishOpening(err) {
				return
			}
			if gen := d.gen.Swap(0); gen != 0 {
				d.emit(Event{Kind: EventFailed, Gen: gen, Err: err})
			}
		}
		// "stop", "redirect" and "quit" follow our own commands.
	}
}

// finishOpening resolves a pending Open. It reports whether one was pending.
func (d *MPVDriver) finishOpening(err error) bool {
	d.openMu.Lock()
	defer d.openMu.Unlock()
	if d.opening == nil {
		return false
	}
	d.opening <- err
	d.opening = nil
	return true
}

func (d *MPVDriver) failOpening(err error) {
	d.finishOpening(err)
}

// emit never blocks the IPC reader: with a full buffer the event is
// delivered from its own goroutine.
func (d *MPVDriver) emit(ev Event) {
	select {
	case d.events <- ev:
		return
	default:
	}
	d.logger.Warn("event buffer full, delivering late", "kind", ev.Kind, "gen", ev.Gen)
	go func() {
		select {
		case d.events <- ev:
		case <-d.done:
		}
	}()
}

func (d *MPVDriver) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	d.startMu.Lock()
	conn := d.conn
	d.startMu.Unlock()
	if conn == nil {
		return nil, ErrMPVUnavailable
	}

	id := d.nextID.Add(1)
	ch := make(chan mpvResponse, 1)
	d.pendMu.Lock()
	d.pending[id] = ch
	d.pendMu.Unlock()
	defer func() {
		d.pendMu.Lock()
		delete(d.pending, id)
		d.pendMu.Unlock()
	}()

	payload, err := json.Marshal(map[string]any{"command": args, "request_id": id})
	if err != nil {
		return nil, err
	}
	d.writeMu.Lock()
	_, err = conn.Write(append(payload, '\n'))
	d.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMPVUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, mpvCommandTimeout)
	defer cancel()
	select {
	case resp := <-ch:
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], resp.Error)
		}
		return resp.Data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("mpv %v: %w", args[0], ctx.Err())
	}
}

func (d *MPVDriver) do(args ...any) error {
	_, err := d.command(context.Background(), args...)
	return err
}

// embedTarget maps a descriptor to something mpv can open. Bare references
// go through mpv's ytdl hook.
func embedTarget(desc source.Descriptor) string {
	target := desc.Target()
	if strings.Contains(target, "://") {
		return target
	}
	return "ytdl://" + target
}

// Open loads the reference paused and waits for mpv to report it loaded.
func (d *MPVDriver) Open(ctx context.Context, gen uint64, desc source.Descriptor) (time.Duration, error) {
	if desc.Kind != source.KindEmbedded {
		return 0, fmt.Errorf("%w: %s", ErrNoDriver, desc.Kind)
	}
	if err := d.ensureStarted(ctx); err != nil {
		return 0, err
	}

	d.gen.Store(0)
	if err := d.do("set_property", "pause", true); err != nil {
		return 0, err
	}

	done := make(chan error, 1)
	d.openMu.Lock()
	d.opening = done
	d.openMu.Unlock()

	if _, err := d.command(ctx, "loadfile", embedTarget(desc), "replace"); err != nil {
		d.openMu.Lock()
		d.opening = nil
		d.openMu.Unlock()
		return 0, err
	}

	select {
	case err := <-done:
		if err != nil {
			return 0, err
		}
	case <-ctx.Done():
		d.openMu.Lock()
		d.opening = nil
		d.openMu.Unlock()
		return 0, ctx.Err()
	}

	d.gen.Store(gen)
	return d.floatProperty("duration"), nil
}

func (d *MPVDriver) floatProperty(name string) time.Duration {
	data, err := d.command(context.Background(), "get_property", name)
	if err != nil {
		return 0
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func (d *MPVDriver) Play() error {
	return d.do("set_property", "pause", false)
}

func (d *MPVDriver) Pause() error {
	return d.do("set_property", "pause", true)
}

func (d *MPVDriver) Seek(pos time.Duration) error {
	return d.do("seek", pos.Seconds(), "absolute")
}

// SetVolume maps 0.0-1.0 onto mpv's 0-100 scale.
func (d *MPVDriver) SetVolume(level float64) error {
	if !d.connected() {
		return nil
	}
	return d.do("set_property", "volume", clampVolume(level)*100)
}

func (d *MPVDriver) SetMuted(muted bool) error {
	if !d.connected() {
		return nil
	}
	return d.do("set_property", "mute", muted)
}

func (d *MPVDriver) Position() time.Duration {
	if !d.connected() {
		return 0
	}
	return d.floatProperty("time-pos")
}

// Stop unloads the current file. mpv reports it with reason "stop", which is ignored.
func (d *MPVDriver) Stop() error {
	d.gen.Store(0)
	if !d.connected() {
		return nil
	}
	return d.do("stop")
}

func (d *MPVDriver) connected() bool {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	return d.conn != nil
}

func (d *MPVDriver) Events() <-chan Event { return d.events }

// Close quits mpv and closes the IPC connection.
func (d *MPVDriver) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	close(d.done)
	if d.connected() {
		_ = d.do("quit")
	}
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	if d.dial == nil {
		_ = os.Remove(d.socket)
	}
	return nil
}
