// internal/playback/service_impl.go
package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type intent struct {
	fn    func() error
	reply chan error
}

// retryFire is posted by the retry timer.
type retryFire struct {
	token  uint64
	action retryAction
}

// continuationDone is posted when the continuer returns.
type continuationDone struct {
	gen   uint64
	track Track
	ok    bool
}

type serviceImpl struct {
	backend   player.Backend
	queue     *playlist.PlayingQueue
	cont      Continuer
	telemetry source.Telemetry
	resync    Resyncer
	logger    *log.Logger
	retry     RetryPolicy
	tick      time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	intents  chan intent
	internal chan any

	// Loop-owned state. Only the run goroutine touches these.
	status     Status
	loadGen    uint64
	loadedID   string
	autoplay   bool
	reported   bool
	position   time.Duration
	duration   time.Duration
	volume     float64
	retries    int
	failed     int // tracks given up on, RetryPerTrack only
	retryToken uint64
	retryTimer *time.Timer
	contGen    uint64
	continuing bool
	lastTrack  *Track
	lastIndex  int

	snap    atomic.Pointer[Snapshot]
	playing atomic.Bool

	subs   []*Subscription
	subsMu sync.RWMutex

	wg        sync.WaitGroup
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New creates a new playback service driving backend from queue.
func New(backend player.Backend, queue *playlist.PlayingQueue, opts ...Option) Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &serviceImpl{
		backend:   backend,
		queue:     queue,
		retry:     DefaultRetryPolicy,
		tick:      defaultTickInterval,
		volume:    1,
		ctx:       ctx,
		cancel:    cancel,
		intents:   make(chan intent),
		internal:  make(chan any, internalEventCapacity),
		lastIndex: -1,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)

	s.backend.SetVolume(s.volume)
	s.publish()
	go s.run()
	return s
}

func (s *serviceImpl) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case in := <-s.intents:
			err := in.fn()
			s.publish()
			in.reply <- err
			continue
		case ev := <-s.backend.Events():
			s.handleBackend(ev)
		case msg := <-s.internal:
			s.handleInternal(msg)
		case <-ticker.C:
			s.pollPosition()
		}
		s.publish()
	}
}

// do runs fn on the loop goroutine and waits for its result.
func (s *serviceImpl) do(fn func() error) error {
	in := intent{fn: fn, reply: make(chan error, 1)}
	select {
	case s.intents <- in:
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-in.reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// post delivers an internal event to the loop from another goroutine.
func (s *serviceImpl) post(msg any) {
	select {
	case s.internal <- msg:
	case <-s.done:
	}
}

func (s *serviceImpl) publish() {
	snap := Snapshot{
		Index:       s.queue.CurrentIndex(),
		Status:      s.status,
		Position:    s.position,
		Duration:    s.duration,
		Volume:      s.volume,
		RepeatMode:  s.queue.RepeatMode(),
		Shuffle:     s.queue.Shuffle(),
		ShufflePool: s.queue.Pool(),
		Queue:       s.queue.Tracks(),
		RetryCount:  s.retries,
		Continuing:  s.continuing,
	}
	if t := s.queue.Current(); t != nil {
		cp := *t
		snap.Track = &cp
	}
	s.snap.Store(&snap)
}

// Snapshot returns a copy of the latest published state.
func (s *serviceImpl) Snapshot() Snapshot {
	return *s.snap.Load()
}

// IsPlaying reports whether audio is playing.
func (s *serviceImpl) IsPlaying() bool {
	return s.playing.Load()
}

// Play starts the current track, or replaces the queue with track.
func (s *serviceImpl) Play(track *Track) error {
	return s.do(func() error {
		if track != nil {
			s.supersede()
			s.queue.PlaySingle(*track)
			s.emitQueue()
			s.loadIfChanged(true)
			return nil
		}
		return s.resume()
	})
}

// Pause pauses playback. A track still loading will not autoplay.
func (s *serviceImpl) Pause() error {
	return s.do(func() error {
		s.pause()
		return nil
	})
}

// Resume continues the current track, loading it first if needed.
func (s *serviceImpl) Resume() error {
	return s.do(s.resume)
}

// Toggle switches between playing and paused.
func (s *serviceImpl) Toggle() error {
	return s.do(func() error {
		switch {
		case s.status == StatusPlaying:
			s.pause()
		case s.status == StatusLoading && s.autoplay:
			s.pause()
		default:
			return s.resume()
		}
		return nil
	})
}

// Stop stops playback and keeps the queue pointer.
func (s *serviceImpl) Stop() error {
	return s.do(func() error {
		s.supersede()
		s.goIdle()
		return nil
	})
}

// Next moves to the next track. While idle only the pointer moves.
func (s *serviceImpl) Next() error {
	return s.do(func() error {
		if s.queue.IsEmpty() {
			return ErrEmptyQueue
		}
		autoplay := s.wantsAudio()
		s.supersede()
		if s.status == StatusIdle {
			res := s.queue.Advance(playlist.Forward)
			if res.Moved || res.Refilled {
				s.emitQueue()
			}
			return nil
		}
		s.advance(playlist.Forward, autoplay, source.TransitionManual)
		return nil
	})
}

// Previous moves to the previous track, or restarts the first one.
func (s *serviceImpl) Previous() error {
	return s.do(func() error {
		if s.queue.IsEmpty() {
			return ErrEmptyQueue
		}
		autoplay := s.wantsAudio()
		s.supersede()
		res := s.queue.Advance(playlist.Backward)
		if s.status == StatusIdle {
			if res.Moved {
				s.emitQueue()
			}
			return nil
		}
		if !res.Moved && !res.Reload {
			s.seek(0)
			return nil
		}
		s.emitQueue()
		s.load(autoplay)
		return nil
	})
}

// Seek moves to an absolute position within the loaded track.
func (s *serviceImpl) Seek(position time.Duration) error {
	return s.do(func() error {
		if s.status != StatusPlaying && s.status != StatusPaused {
			return nil
		}
		s.seek(position)
		return nil
	})
}

// SetVolume clamps level to 0.0-1.0 and applies it.
func (s *serviceImpl) SetVolume(level float64) float64 {
	level = clampVolume(level)
	if err := s.do(func() error {
		s.volume = level
		s.backend.SetVolume(level)
		return nil
	}); err != nil {
		s.logger.Debug("set volume after close", "err", err)
	}
	return level
}

// JumpTo plays the track at index.
func (s *serviceImpl) JumpTo(index int) error {
	return s.do(func() error {
		from := s.loadedID
		s.supersede()
		t := s.queue.JumpTo(index)
		if t == nil {
			return ErrInvalidIndex
		}
		s.emitQueue()
		s.loadIfChanged(true)
		s.observe(from, t.ID, source.TransitionManual)
		return nil
	})
}

// Enqueue appends tracks without interrupting playback.
func (s *serviceImpl) Enqueue(tracks ...Track) error {
	if len(tracks) == 0 {
		return nil
	}
	return s.do(func() error {
		s.queue.Add(tracks...)
		s.emitQueue()
		return nil
	})
}

// RemoveFromQueue removes the track at index. Removing the current track
// moves playback to the track that takes its place.
func (s *serviceImpl) RemoveFromQueue(index int) error {
	return s.do(func() error {
		autoplay := s.wantsAudio()
		removedCurrent, ok := s.queue.RemoveAt(index)
		if !ok {
			return ErrInvalidIndex
		}
		s.emitQueue()
		if !removedCurrent {
			return nil
		}
		s.supersede()
		switch {
		case s.queue.IsEmpty():
			s.goIdle()
		case s.status.IsActive():
			s.loadIfChanged(autoplay)
		}
		return nil
	})
}

// MoveInQueue reorders the queue. The current track keeps playing.
func (s *serviceImpl) MoveInQueue(from, to int) error {
	return s.do(func() error {
		if !s.queue.Move(from, to) {
			return ErrInvalidIndex
		}
		s.emitQueue()
		return nil
	})
}

// ClearQueue empties the queue and stops playback.
func (s *serviceImpl) ClearQueue() error {
	return s.do(func() error {
		s.supersede()
		s.queue.Clear()
		s.goIdle()
		s.emitQueue()
		s.emitMode()
		return nil
	})
}

// ReplaceQueue sets a new queue and plays from startIndex.
func (s *serviceImpl) ReplaceQueue(tracks []Track, startIndex int) error {
	return s.do(func() error {
		if len(tracks) == 0 {
			return ErrEmptyQueue
		}
		s.supersede()
		if _, err := s.queue.SetQueue(tracks, startIndex); err != nil {
			return err
		}
		s.emitQueue()
		s.emitMode()
		s.loadIfChanged(true)
		return nil
	})
}

// PlayAsShuffle starts continuous shuffle over pool.
func (s *serviceImpl) PlayAsShuffle(pool []Track) error {
	return s.do(func() error {
		if len(pool) == 0 {
			return ErrEmptyQueue
		}
		s.supersede()
		if _, err := s.queue.PlayAsShuffle(pool); err != nil {
			return err
		}
		s.emitQueue()
		s.emitMode()
		s.loadIfChanged(true)
		return nil
	})
}

// SetRepeatMode sets the repeat mode.
func (s *serviceImpl) SetRepeatMode(mode RepeatMode) error {
	return s.do(func() error {
		s.queue.SetRepeatMode(mode)
		s.emitMode()
		return nil
	})
}

// CycleRepeatMode moves to the next repeat mode and returns it.
func (s *serviceImpl) CycleRepeatMode() RepeatMode {
	var mode RepeatMode
	_ = s.do(func() error {
		mode = s.queue.RepeatMode().Next()
		s.queue.SetRepeatMode(mode)
		s.emitMode()
		return nil
	})
	return mode
}

// ToggleShuffle flips shuffle and returns the new state.
func (s *serviceImpl) ToggleShuffle() bool {
	var on bool
	_ = s.do(func() error {
		on = s.queue.ToggleShuffle()
		s.emitMode()
		return nil
	})
	return on
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops the loop, waits for background work and closes the backend.
func (s *serviceImpl) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		if s.retryTimer != nil {
			s.retryTimer.Stop()
		}
		s.cancel()
		s.wg.Wait()
		err = s.backend.Close()

		s.subsMu.Lock()
		for _, sub := range s.subs {
			sub.close()
		}
		s.subs = nil
		s.subsMu.Unlock()
	})
	return err
}
