package player

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// fakeOutput mixes streamers on demand instead of on an audio device.
type fakeOutput struct {
	mu        sync.Mutex
	sr        beep.SampleRate
	streamers []beep.Streamer
	initErr   error
}

func newFakeOutput(sr beep.SampleRate) *fakeOutput {
	return &fakeOutput{sr: sr}
}

func (o *fakeOutput) Init() error { return o.initErr }

func (o *fakeOutput) Play(s ...beep.Streamer) {
	o.mu.Lock()
	o.streamers = append(o.streamers, s...)
	o.mu.Unlock()
}

func (o *fakeOutput) Lock() { o.mu.Lock() }

func (o *fakeOutput) Unlock() { o.mu.Unlock() }

func (o *fakeOutput) SampleRate() beep.SampleRate { return o.sr }

// pull streams n samples from every live streamer, dropping finished ones,
// and returns how many streamers are still live.
func (o *fakeOutput) pull(n int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	buf := make([][2]float64, n)
	live := o.streamers[:0]
	for _, s := range o.streamers {
		if _, ok := s.Stream(buf); ok {
			live = append(live, s)
		}
	}
	o.streamers = live
	return len(live)
}
