package delay_buffers

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

// DelaySound takes a streamer and a delay as a time.Duration and returns a
// streamer that plays silence for the delay and then the sound.
// This allows every voice to be scheduled independently and layered
// together on one mixer
func DelaySound(by time.Duration, format beep.Format, sound beep.Streamer) beep.Streamer {
	if by <= 0 {
		return sound
	}
	return beep.Seq(beep.Silence(format.SampleRate.N(by)), sound)
}

// Tempo is a type that represents a tempo in beats per minute
type Tempo int

// Quantum returns the duration of a single beat
func (t Tempo) Quantum() time.Duration {
	if t <= 0 {
		return 0
	}
	return time.Minute / time.Duration(t)
}

// Count returns the number of samples in a single beat for a given format.
func (t Tempo) Count(of beep.Format) (samples int) {
	return of.SampleRate.N(t.Quantum())
}

type Timing struct {
	Duration time.Duration
	Samples  int
}

func (Timing) From(t Tempo, f beep.Format) Timing {
	return Timing{Duration: t.Quantum(), Samples: t.Count(f)}
}

func (t Timing) Quantise(q Quantisation) Timing {
	if q <= 0 {
		return t
	}
	result := Timing{
		Samples:  t.Samples / int(q),
		Duration: t.Duration / time.Duration(q),
	}
	return result
}

// Quantisation is the number of grid steps per beat
type Quantisation int

const (
	Quarter   Quantisation = 1
	Eighth    Quantisation = 2
	Sixteenth Quantisation = 4
)

// ParseQuantisation maps "quarter", "eighth" or "sixteenth" to a Quantisation
func ParseQuantisation(s string) (Quantisation, bool) {
	switch s {
	case "quarter", "4":
		return Quarter, true
	case "eighth", "8":
		return Eighth, true
	case "sixteenth", "16":
		return Sixteenth, true
	}
	return 0, false
}

// Grid snaps timeline positions to a tempo-derived step
type Grid struct {
	Tempo        Tempo
	Quantisation Quantisation
}

// Step returns the grid spacing in time
func (g Grid) Step() time.Duration {
	return Timing{}.From(g.Tempo, beep.Format{}).Quantise(g.Quantisation).Duration
}

// Snap rounds a fraction of total to the nearest grid step. A grid with no
// step leaves the fraction unchanged.
func (g Grid) Snap(fraction float64, total time.Duration) float64 {
	step := g.Step()
	if step <= 0 || total <= 0 {
		return fraction
	}
	stepFrac := float64(step) / float64(total)
	return math.Round(fraction/stepFrac) * stepFrac
}
