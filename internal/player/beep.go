package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/llehouerou/undertow/internal/source"
)

const (
	formatMP3  = "mp3"
	formatFLAC = "flac"
	formatWAV  = "wav"
	formatOgg  = "ogg"

	// maxStreamBytes bounds a fetched asset. Endless live streams hit it
	// instead of growing without limit.
	maxStreamBytes = 256 << 20
)

// Verify BeepDriver implements Driver at compile time.
var _ Driver = (*BeepDriver)(nil)

// BeepDriver plays direct stream URLs through the beep speaker.
// The whole asset is fetched and decoded before Open returns, so a
// successful Open means the source can play without buffering.
type BeepDriver struct {
	out      Output
	client   *http.Client
	maxBytes int64

	mu     sync.Mutex
	cur    *beepSession
	level  float64
	muted  bool
	closed bool

	events chan Event
	done   chan struct{}
}

type beepSession struct {
	gen      uint64
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	stopped  atomic.Bool
}

// NewBeepDriver creates a direct-stream driver on the given output.
// A nil client uses http.DefaultClient.
func NewBeepDriver(out Output, client *http.Client) *BeepDriver {
	if client == nil {
		client = http.DefaultClient
	}
	return &BeepDriver{
		out:      out,
		client:   client,
		maxBytes: maxStreamBytes,
		level:    1,
		events:   make(chan Event, eventBufferSize),
		done:     make(chan struct{}),
	}
}

// Open fetches, decodes and queues the stream paused on the speaker.
func (d *BeepDriver) Open(ctx context.Context, gen uint64, desc source.Descriptor) (time.Duration, error) {
	if desc.Kind != source.KindDirect {
		return 0, fmt.Errorf("%w: %s", ErrNoDriver, desc.Kind)
	}
	if err := d.out.Init(); err != nil {
		return 0, fmt.Errorf("init speaker: %w", err)
	}

	data, contentType, err := d.fetch(ctx, desc.URL)
	if err != nil {
		return 0, err
	}
	streamer, format, err := decode(data, detectFormat(data, contentType, desc.URL))
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		streamer.Close()
		return 0, ErrNotOpen
	}
	d.stopLocked()

	sess := &beepSession{gen: gen, streamer: streamer, format: format}
	var s beep.Streamer = streamer
	if format.SampleRate != d.out.SampleRate() {
		s = beep.Resample(4, format.SampleRate, d.out.SampleRate(), s)
	}
	sess.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	sess.volume = &effects.Volume{
		Streamer: sess.ctrl,
		Base:     2,
		Volume:   levelToVolume(d.level),
		Silent:   d.muted || d.level <= 0,
	}
	d.cur = sess

	d.out.Play(beep.Seq(sess.volume, beep.Callback(func() {
		if sess.stopped.Load() {
			return
		}
		go d.emit(Event{Kind: EventEnded, Gen: gen})
	})))

	return format.SampleRate.D(streamer.Len()), nil
}

func (d *BeepDriver) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch stream: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read stream: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, "", fmt.Errorf("read stream: %w", ErrStreamTooLarge)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// detectFormat sniffs magic bytes first, then the content type, then the
// URL extension.
func detectFormat(data []byte, contentType, url string) string {
	switch {
	case bytes.HasPrefix(data, []byte("fLaC")):
		return formatFLAC
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && string(data[8:12]) == "WAVE":
		return formatWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return formatOgg
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return formatMP3
	}

	switch ct := strings.ToLower(contentType); {
	case strings.Contains(ct, "flac"):
		return formatFLAC
	case strings.Contains(ct, "wav"):
		return formatWAV
	case strings.Contains(ct, "ogg"), strings.Contains(ct, "opus"):
		return formatOgg
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return formatMP3
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0])), ".")
	switch ext {
	case formatMP3, formatFLAC, formatWAV:
		return ext
	case "ogg", "oga", "opus":
		return formatOgg
	}
	return ""
}

func decode(data []byte, format string) (beep.StreamSeekCloser, beep.Format, error) {
	r := bytes.NewReader(data)
	var (
		s   beep.StreamSeekCloser
		f   beep.Format
		err error
	)
	switch format {
	case formatMP3:
		s, f, err = mp3.Decode(io.NopCloser(r))
	case formatFLAC:
		s, f, err = flac.Decode(r)
	case formatWAV:
		s, f, err = wav.Decode(r)
	case formatOgg:
		s, f, err = decodeOgg(data)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", format, err)
	}
	return s, f, nil
}

func (d *BeepDriver) emit(ev Event) {
	select {
	case d.events <- ev:
	case <-d.done:
	}
}

func (d *BeepDriver) setPaused(paused bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return ErrNotOpen
	}
	d.out.Lock()
	d.cur.ctrl.Paused = paused
	d.out.Unlock()
	return nil
}

func (d *BeepDriver) Play() error { return d.setPaused(false) }

func (d *BeepDriver) Pause() error { return d.setPaused(true) }

// Seek moves to an absolute position, clamped to the stream.
func (d *BeepDriver) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return ErrNotOpen
	}
	n := d.cur.format.SampleRate.N(pos)
	n = min(max(n, 0), max(d.cur.streamer.Len()-1, 0))

	d.out.Lock()
	defer d.out.Unlock()
	return d.cur.streamer.Seek(n)
}

// SetVolume sets the level (0.0 to 1.0).
func (d *BeepDriver) SetVolume(level float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = clampVolume(level)
	d.applyVolumeLocked()
	return nil
}

// SetMuted silences output without forgetting the level.
func (d *BeepDriver) SetMuted(muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
	d.applyVolumeLocked()
	return nil
}

func (d *BeepDriver) applyVolumeLocked() {
	if d.cur == nil {
		return
	}
	d.out.Lock()
	d.cur.volume.Volume = levelToVolume(d.level)
	d.cur.volume.Silent = d.muted || d.level <= 0
	d.out.Unlock()
}

// Position returns the playback position of the open stream.
func (d *BeepDriver) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return 0
	}
	d.out.Lock()
	defer d.out.Unlock()
	return d.cur.format.SampleRate.D(d.cur.streamer.Position())
}

// Stop detaches the open stream from the speaker without reporting an end.
func (d *BeepDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	return nil
}

func (d *BeepDriver) stopLocked() {
	if d.cur == nil {
		return
	}
	sess := d.cur
	d.cur = nil
	sess.stopped.Store(true)
	d.out.Lock()
	sess.ctrl.Streamer = nil
	d.out.Unlock()
	sess.streamer.Close()
}

func (d *BeepDriver) Events() <-chan Event { return d.events }

func (d *BeepDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.done)
	}
	d.stopLocked()
	return nil
}
