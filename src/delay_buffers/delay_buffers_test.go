package delay_buffers

import (
	"math"
	"testing"
	"time"

	"github.com/faiface/beep"
)

func TestTempoQuantum(t *testing.T) {
	if got := Tempo(120).Quantum(); got != 500*time.Millisecond {
		t.Errorf("Tempo(120).Quantum() = %v, want 500ms", got)
	}
	if got := Tempo(0).Quantum(); got != 0 {
		t.Errorf("Tempo(0).Quantum() = %v, want 0", got)
	}
}

func TestTimingQuantise(t *testing.T) {
	f := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	timing := Timing{}.From(Tempo(120), f)
	if timing.Samples != 22050 {
		t.Fatalf("Samples = %d, want 22050", timing.Samples)
	}
	q := timing.Quantise(Sixteenth)
	if q.Duration != 125*time.Millisecond || q.Samples != 5512 {
		t.Errorf("Quantise(Sixteenth) = %+v", q)
	}
	if got := timing.Quantise(Quarter); got != timing {
		t.Errorf("Quantise(Quarter) = %+v, want %+v", got, timing)
	}
}

func TestGridSnap(t *testing.T) {
	// 120 BPM quarters on a 10s timeline are 0.05 apart
	g := Grid{Tempo: 120, Quantisation: Quarter}
	tests := []struct{ in, want float64 }{
		{0, 0},
		{0.024, 0},
		{0.026, 0.05},
		{0.51, 0.5},
	}
	for _, tt := range tests {
		if got := g.Snap(tt.in, 10*time.Second); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Snap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := (Grid{}).Snap(0.123, 10*time.Second); got != 0.123 {
		t.Errorf("zero grid Snap = %v, want unchanged", got)
	}
}

func TestDelaySoundPrependsSilence(t *testing.T) {
	f := beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}
	ones := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{1, 1}
		}
		return len(samples), true
	})
	s := DelaySound(10*time.Millisecond, f, beep.Take(5, ones))
	out := make([][2]float64, 20)
	n := 0
	for n < len(out) {
		m, ok := s.Stream(out[n:])
		n += m
		if !ok {
			break
		}
	}
	if n != 15 {
		t.Fatalf("streamed %d frames, want 15", n)
	}
	for i := 0; i < 10; i++ {
		if out[i] != [2]float64{} {
			t.Errorf("frame %d = %v, want silence", i, out[i])
		}
	}
	for i := 10; i < 15; i++ {
		if out[i] != [2]float64{1, 1} {
			t.Errorf("frame %d = %v, want sound", i, out[i])
		}
	}
}

func TestParseQuantisation(t *testing.T) {
	if q, ok := ParseQuantisation("sixteenth"); !ok || q != Sixteenth {
		t.Errorf("ParseQuantisation(sixteenth) = %v, %v", q, ok)
	}
	if _, ok := ParseQuantisation("triplet"); ok {
		t.Errorf("ParseQuantisation(triplet) accepted")
	}
}
