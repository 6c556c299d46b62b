package playback

import "sync/atomic"

const eventBufferSize = 16

// Subscription delivers service events to one subscriber. Sends never
// block the service loop: position updates replace the oldest buffered
// one when the buffer is full, every other kind is dropped and counted.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	QueueChanged    <-chan QueueChange
	ModeChanged     <-chan ModeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	state    chan StateChange
	track    chan TrackChange
	position chan PositionChange
	queue    chan QueueChange
	mode     chan ModeChange
	errs     chan ErrorEvent
	done     chan struct{}

	dropped atomic.Uint64
}

func newSubscription() *Subscription {
	s := &Subscription{
		state:    make(chan StateChange, eventBufferSize),
		track:    make(chan TrackChange, eventBufferSize),
		position: make(chan PositionChange, eventBufferSize),
		queue:    make(chan QueueChange, eventBufferSize),
		mode:     make(chan ModeChange, eventBufferSize),
		errs:     make(chan ErrorEvent, eventBufferSize),
		done:     make(chan struct{}),
	}
	s.StateChanged, s.TrackChanged, s.PositionChanged = s.state, s.track, s.position
	s.QueueChanged, s.ModeChanged, s.Error = s.queue, s.mode, s.errs
	s.Done = s.done
	return s
}

func (s *Subscription) close() {
	close(s.done)
}

// Dropped returns how many events were discarded because the subscriber
// fell behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Drain discards buffered events, for subscribers that only care about
// the latest snapshot.
func (s *Subscription) Drain() {
	for {
		select {
		case <-s.state:
		case <-s.track:
		case <-s.position:
		case <-s.queue:
		case <-s.mode:
		case <-s.errs:
		default:
			return
		}
	}
}

func (s *Subscription) sendState(e StateChange) { offer(s, s.state, e) }
func (s *Subscription) sendTrack(e TrackChange) { offer(s, s.track, e) }
func (s *Subscription) sendQueue(e QueueChange) { offer(s, s.queue, e) }
func (s *Subscription) sendMode(e ModeChange)   { offer(s, s.mode, e) }
func (s *Subscription) sendError(e ErrorEvent)  { offer(s, s.errs, e) }

func (s *Subscription) sendPosition(e PositionChange) {
	// Only the newest position matters.
	for {
		select {
		case s.position <- e:
			return
		default:
		}
		select {
		case <-s.position:
		default:
		}
	}
}

func offer[T any](s *Subscription, ch chan T, e T) {
	select {
	case ch <- e:
	default:
		s.dropped.Add(1)
	}
}
