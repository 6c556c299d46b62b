package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is the rate the speaker is opened at. Sources with a
// different rate are resampled.
const DefaultSampleRate beep.SampleRate = 44100

// Output is the audio device streamers are mixed into.
type Output interface {
	Init() error
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
	SampleRate() beep.SampleRate
}

// speakerOutput is the process-wide beep speaker, initialized once.
type speakerOutput struct {
	sr   beep.SampleRate
	once sync.Once
	err  error
}

// NewSpeakerOutput returns an Output backed by the beep speaker.
func NewSpeakerOutput(sr beep.SampleRate) Output {
	return &speakerOutput{sr: sr}
}

func (o *speakerOutput) Init() error {
	o.once.Do(func() {
		o.err = speaker.Init(o.sr, o.sr.N(time.Second/10))
	})
	return o.err
}

func (o *speakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }

func (o *speakerOutput) Lock() { speaker.Lock() }

func (o *speakerOutput) Unlock() { speaker.Unlock() }

func (o *speakerOutput) SampleRate() beep.SampleRate { return o.sr }
