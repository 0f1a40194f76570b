// Package synth renders instrument sounds from closed-form per-sample
// expressions into beep buffers.
package synth

import (
	"math/rand"
	"sync"
	"time"

	"github.com/faiface/beep"
	"tjweldon/beatmaker/src/util"
)

// DefaultDuration is the length of every synthesized clip unless asked otherwise
const DefaultDuration = 2 * time.Second

// Precision of the buffers produced, in bytes per sample
const Precision = 3

var logger = util.Logger{Volume: util.Normal}.Ctx("synth")

// Format returns the stereo buffer format used for a sample rate
func Format(rate beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: rate, NumChannels: 2, Precision: Precision}
}

// Synthesizer owns the noise source used by the noisy recipes
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer returns a synthesizer whose noise is reproducible for a seed
func NewSynthesizer(seed int64) *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewSource(seed))}
}

var std = NewSynthesizer(time.Now().UnixNano())

// Synthesize renders kind with the package-level synthesizer
func Synthesize(kind Kind, rate beep.SampleRate, d time.Duration) *beep.Buffer {
	return std.Synthesize(kind, rate, d)
}

// Synthesize renders rate.N(d) stereo frames of kind. Both channels carry the
// same mono signal. Kinds without a recipe render as silence.
func (s *Synthesizer) Synthesize(kind Kind, rate beep.SampleRate, d time.Duration) *beep.Buffer {
	logger := logger.Ctx("Synthesize").Vol(util.Quiet)
	buf := beep.NewBuffer(Format(rate))
	if rate <= 0 || d <= 0 {
		return buf
	}

	frames := make([][2]float64, rate.N(d))
	r, ok := recipes[kind]
	if !ok {
		logger.Log("no recipe for", kind, "rendering silence")
		buf.Append(&frameStreamer{frames: frames})
		return buf
	}

	s.mu.Lock()
	noise := func() float64 { return s.rng.Float64()*2 - 1 }
	for i := range frames {
		v := r(float64(i)/float64(rate), noise)
		frames[i] = [2]float64{v, v}
	}
	s.mu.Unlock()

	buf.Append(&frameStreamer{frames: frames})
	logger.Log("rendered", kind, "frames:", len(frames))
	return buf
}

// frameStreamer streams a slice of frames once
type frameStreamer struct {
	frames [][2]float64
	pos    int
}

func (f *frameStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if f.pos >= len(f.frames) {
		return 0, false
	}
	n = copy(samples, f.frames[f.pos:])
	f.pos += n
	return n, true
}

func (f *frameStreamer) Err() error { return nil }
