package playback

import (
	"context"
	"time"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/source"
)

type retryAction int

const (
	retrySkip retryAction = iota
	retryReload
)

func (s *serviceImpl) handleBackend(ev player.Event) {
	if ev.Gen == 0 || ev.Gen != s.loadGen {
		s.logger.Debug("stale backend event", "kind", ev.Kind, "gen", ev.Gen, "current", s.loadGen)
		return
	}
	switch ev.Kind {
	case player.EventReady:
		s.onReady(ev.Duration)
	case player.EventEnded:
		s.onEnded()
	case player.EventFailed:
		s.onFailed(ev.Err)
	}
}

func (s *serviceImpl) handleInternal(msg any) {
	switch m := msg.(type) {
	case retryFire:
		s.onRetry(m)
	case continuationDone:
		s.onContinuation(m)
	}
}

func (s *serviceImpl) onReady(d time.Duration) {
	if s.status != StatusLoading {
		return
	}
	s.retries = 0
	s.failed = 0

	if d > 0 {
		s.duration = d
		if cur := s.queue.Current(); cur != nil && cur.Duration != d &&
			s.queue.CorrectDuration(s.queue.CurrentIndex(), s.loadedID, d) {
			s.emitQueue()
		}
	}

	if !s.autoplay {
		s.setStatus(StatusPaused)
		return
	}
	s.backend.Play()
	s.setStatus(StatusPlaying)
	s.reportStarted()
}

func (s *serviceImpl) onEnded() {
	if s.status != StatusPlaying && s.status != StatusPaused {
		return
	}
	s.advance(playlist.Forward, true, source.TransitionAuto)
}

func (s *serviceImpl) onFailed(err error) {
	if !s.status.IsActive() || s.status == StatusError {
		return
	}
	s.retries++
	s.logger.Warn("playback failed", "track", s.loadedID, "attempt", s.retries, "err", err)
	s.emitError(errmsg.OpLoad, s.loadedID, err)
	s.setStatus(StatusError)

	if s.retry.Scope == RetryPerTrack {
		if s.retries < s.retry.Cap {
			s.scheduleRetry(retryReload)
			return
		}
		s.retries = 0
		s.failed++
		if s.failed >= s.queue.Len() {
			s.failed = 0
			s.logger.Info("every queued track failed, stopping")
			s.goIdle()
			return
		}
		s.scheduleRetry(retrySkip)
		return
	}

	if s.retries >= s.retry.Cap {
		s.retries = 0
		s.logger.Info("retry cap reached, stopping", "cap", s.retry.Cap)
		s.goIdle()
		return
	}
	s.scheduleRetry(retrySkip)
}

func (s *serviceImpl) scheduleRetry(action retryAction) {
	s.cancelRetry()
	token := s.retryToken
	s.retryTimer = time.AfterFunc(s.retry.Delay, func() {
		s.post(retryFire{token: token, action: action})
	})
}

func (s *serviceImpl) cancelRetry() {
	s.retryToken++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

func (s *serviceImpl) onRetry(m retryFire) {
	if m.token != s.retryToken || s.status != StatusError {
		return
	}
	s.retryTimer = nil
	if m.action == retryReload {
		s.load(s.autoplay)
		return
	}
	s.advance(playlist.Forward, s.autoplay, "")
}

// advance moves the pointer and loads the result. Running off the end of
// the queue hands over to the continuer.
func (s *serviceImpl) advance(dir playlist.Direction, autoplay bool, src source.TransitionSource) {
	from := s.loadedID
	res := s.queue.Advance(dir)
	if res.Refilled {
		src = source.TransitionShuffle
	}
	if res.Exhausted {
		if res.Refilled {
			s.emitQueue()
		}
		if dir == playlist.Forward {
			s.startContinuation(autoplay)
		}
		return
	}
	if res.Track == nil {
		s.goIdle()
		return
	}
	if res.Moved || res.Refilled {
		s.emitQueue()
	}
	s.load(autoplay)
	if src != "" {
		s.observe(from, res.Track.ID, src)
	}
}

func (s *serviceImpl) startContinuation(autoplay bool) {
	ended := s.queue.Current()
	if s.cont == nil || ended == nil {
		s.goIdle()
		return
	}

	s.cancelRetry()
	s.loadGen++
	s.contGen++
	s.continuing = true
	s.autoplay = autoplay
	s.setStatus(StatusLoading)
	s.logger.Debug("queue exhausted, continuing", "after", ended.ID)

	gen, track := s.contGen, *ended
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, continuationTimeout)
		defer cancel()
		next, ok := s.cont.Continue(ctx, track)
		s.post(continuationDone{gen: gen, track: next, ok: ok})
	}()
}

func (s *serviceImpl) onContinuation(m continuationDone) {
	if !s.continuing || m.gen != s.contGen {
		return
	}
	s.continuing = false
	if !m.ok {
		s.logger.Info("no continuation found, stopping")
		s.emitError(errmsg.OpContinue, "", errNoContinuation)
		s.goIdle()
		return
	}
	idx := s.queue.Append(m.track)
	s.queue.JumpTo(idx)
	s.emitQueue()
	s.load(s.autoplay)
}

// load starts loading the track under the pointer.
func (s *serviceImpl) load(autoplay bool) {
	t := s.queue.Current()
	if t == nil {
		s.goIdle()
		return
	}
	s.cancelRetry()
	s.loadGen++
	s.loadedID = t.ID
	s.autoplay = autoplay
	s.reported = false
	s.position = 0
	s.duration = t.Duration
	s.setStatus(StatusLoading)
	s.logger.Debug("loading", "track", t.ID, "gen", s.loadGen, "autoplay", autoplay)
	s.backend.Load(s.loadGen, *t)
	s.emitTrack(t)
}

// loadIfChanged loads the track under the pointer unless it is the one
// already playing or paused, which keeps its generation and position.
func (s *serviceImpl) loadIfChanged(autoplay bool) {
	t := s.queue.Current()
	if t == nil || t.ID != s.loadedID || (s.status != StatusPlaying && s.status != StatusPaused) {
		s.load(autoplay)
		return
	}
	s.logger.Debug("track already loaded", "track", t.ID, "gen", s.loadGen)
	if autoplay && s.status == StatusPaused {
		_ = s.resume()
	}
}

// goIdle stops the backend. Events from earlier loads are dropped.
func (s *serviceImpl) goIdle() {
	s.cancelRetry()
	s.loadGen++
	s.continuing = false
	s.backend.Stop()
	s.loadedID = ""
	s.autoplay = false
	s.position = 0
	s.setStatus(StatusIdle)
}

// supersede discards pending retries and continuations before a user
// intent picks a new track.
func (s *serviceImpl) supersede() {
	s.cancelRetry()
	s.retries = 0
	s.failed = 0
	if s.continuing {
		s.contGen++
		s.continuing = false
	}
}

// wantsAudio reports whether the next load should start playing.
func (s *serviceImpl) wantsAudio() bool {
	switch s.status {
	case StatusPlaying:
		return true
	case StatusLoading, StatusError:
		return s.autoplay
	default:
		return false
	}
}

func (s *serviceImpl) pause() {
	switch s.status {
	case StatusPlaying:
		s.backend.Pause()
		s.position = s.backend.Position().Truncate(time.Second)
		s.setStatus(StatusPaused)
	case StatusLoading, StatusError:
		s.autoplay = false
	}
}

func (s *serviceImpl) resume() error {
	switch s.status {
	case StatusPaused:
		s.backend.Play()
		s.setStatus(StatusPlaying)
		s.reportStarted()
		if s.resync != nil {
			s.resync.Resync()
		}
	case StatusLoading, StatusError:
		s.autoplay = true
	case StatusIdle:
		if s.queue.IsEmpty() {
			return ErrEmptyQueue
		}
		s.load(true)
	}
	return nil
}

func (s *serviceImpl) seek(pos time.Duration) {
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	pos = max(pos, 0)
	s.backend.Seek(pos)
	s.position = pos.Truncate(time.Second)
	s.emitPosition()
}

func (s *serviceImpl) pollPosition() {
	if s.status != StatusPlaying {
		return
	}
	pos := s.backend.Position().Truncate(time.Second)
	if pos != s.position {
		s.position = pos
		s.emitPosition()
	}
}

// reportStarted sends play-started telemetry once per load.
func (s *serviceImpl) reportStarted() {
	if s.reported || s.telemetry == nil {
		return
	}
	t := s.queue.Current()
	if t == nil {
		return
	}
	s.reported = true

	track, hint := *t, s.duration
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, telemetryTimeout)
		defer cancel()
		if err := s.telemetry.ReportPlayStarted(ctx, track, hint); err != nil {
			s.logger.Debug("telemetry failed", "track", track.ID, "err", err)
		}
	}()
}

func (s *serviceImpl) observe(fromID, toID string, src source.TransitionSource) {
	if s.cont == nil || fromID == "" || toID == "" || fromID == toID {
		return
	}
	s.cont.Observe(fromID, toID, src)
}

func (s *serviceImpl) setStatus(st Status) {
	if s.status == st {
		return
	}
	prev := s.status
	s.status = st
	s.playing.Store(st == StatusPlaying)
	s.notify(func(sub *Subscription) {
		sub.sendState(StateChange{Previous: prev, Current: st})
	})
}

// emitTrack announces t unless the same slot is being reloaded.
func (s *serviceImpl) emitTrack(t *Track) {
	idx := s.queue.CurrentIndex()
	if s.lastTrack != nil && s.lastTrack.ID == t.ID && s.lastIndex == idx {
		return
	}
	cp := *t
	ev := TrackChange{
		Previous:      s.lastTrack,
		Current:       &cp,
		PreviousIndex: s.lastIndex,
		Index:         idx,
	}
	s.lastTrack, s.lastIndex = &cp, idx
	s.notify(func(sub *Subscription) { sub.sendTrack(ev) })
}

func (s *serviceImpl) emitQueue() {
	ev := QueueChange{Tracks: s.queue.Tracks(), Index: s.queue.CurrentIndex()}
	s.notify(func(sub *Subscription) { sub.sendQueue(ev) })
}

func (s *serviceImpl) emitMode() {
	ev := ModeChange{RepeatMode: s.queue.RepeatMode(), Shuffle: s.queue.Shuffle()}
	s.notify(func(sub *Subscription) { sub.sendMode(ev) })
}

func (s *serviceImpl) emitPosition() {
	ev := PositionChange{Position: s.position}
	s.notify(func(sub *Subscription) { sub.sendPosition(ev) })
}

func (s *serviceImpl) emitError(op errmsg.Op, trackID string, err error) {
	ev := ErrorEvent{Operation: string(op), TrackID: trackID, Err: err}
	s.notify(func(sub *Subscription) { sub.sendError(ev) })
}

func (s *serviceImpl) notify(fn func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		fn(sub)
	}
}
