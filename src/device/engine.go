// Package device is the audio output side of the engine: a mixer that
// counts the frames it has produced (the shared clock) and the voices
// scheduled onto it.
package device

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"tjweldon/beatmaker/src/streams"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("device")

// Engine mixes scheduled voices and keeps time by counting the frames it
// has streamed. It is a beep.Streamer; the speaker (or a test) pulls it.
type Engine struct {
	format beep.Format

	mu     sync.Mutex
	mixer  beep.Mixer
	frames int
	done   bool
}

// NewEngine returns an engine producing stereo audio at rate
func NewEngine(rate beep.SampleRate) *Engine {
	return &Engine{format: beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}}
}

// Stream implements beep.Streamer. Until Close it never drains: with no
// voices it produces silence and the clock keeps moving.
func (e *Engine) Stream(samples [][2]float64) (n int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return 0, false
	}
	e.mixer.Stream(samples)
	e.frames += len(samples)
	return len(samples), true
}

func (e *Engine) Err() error { return nil }

// Close drops every voice and makes the engine drain, so whatever pulls it
// lets go of it
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = true
	e.mixer.Clear()
	return nil
}

// Resume does nothing for a bare engine, there is no device to wake
func (e *Engine) Resume() error { return nil }

// Now returns the amount of audio produced so far
func (e *Engine) Now() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format.SampleRate.D(e.frames)
}

// SampleRate is the rate clips should be synthesized at
func (e *Engine) SampleRate() beep.SampleRate { return e.format.SampleRate }

// Playing returns the number of chains still attached to the mixer
func (e *Engine) Playing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixer.Len()
}

// Schedule adds a voice that starts at the absolute engine time at. A start
// time in the past starts immediately.
func (e *Engine) Schedule(buf *beep.Buffer, at time.Duration, rate, gain float64) timeline.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.format.SampleRate.D(e.frames)
	chain := streams.NewChain(streams.MakeStreamBuf(buf), at-now, rate, gain)
	e.mixer.Add(chain.Streamer())
	logger.Ctx("Schedule").Vol(util.Quiet).Log("voice at", at, "now", now)
	return &voice{engine: e, chain: chain, startAt: at}
}

// voice is the timeline's handle onto a chain living in the mixer
type voice struct {
	engine  *Engine
	chain   *streams.Chain
	startAt time.Duration
}

func (v *voice) SetRate(rate float64) {
	v.engine.mu.Lock()
	v.chain.SetSpeed(rate)
	v.engine.mu.Unlock()
}

func (v *voice) SetGain(gain float64) {
	v.engine.mu.Lock()
	v.chain.SetGain(gain)
	v.engine.mu.Unlock()
}

func (v *voice) Stop() {
	v.engine.mu.Lock()
	v.chain.Stop()
	v.engine.mu.Unlock()
}

func (v *voice) StartAt() time.Duration { return v.startAt }
