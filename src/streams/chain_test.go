package streams

import (
	"math"
	"testing"
	"time"

	"github.com/faiface/beep"
)

func constBuffer(rate beep.SampleRate, frames int, v float64) *beep.Buffer {
	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(beep.Take(frames, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})))
	return buf
}

func drain(s beep.Streamer, max int) [][2]float64 {
	out := make([][2]float64, max)
	n := 0
	for n < max {
		m, ok := s.Stream(out[n:])
		n += m
		if !ok {
			break
		}
	}
	return out[:n]
}

func TestChainDelaysThenPlays(t *testing.T) {
	buf := constBuffer(1000, 100, 0.5)
	c := NewChain(MakeStreamBuf(buf), 20*time.Millisecond, 1, 1)
	out := drain(c.Streamer(), 200)
	if len(out) < 100 {
		t.Fatalf("streamed %d frames, want at least 100", len(out))
	}
	for i := 0; i < 20; i++ {
		if out[i] != [2]float64{} {
			t.Fatalf("frame %d = %v, want silence before start", i, out[i])
		}
	}
	if got := out[60][0]; math.Abs(got-0.5) > 1e-2 {
		t.Errorf("frame 60 = %v, want ~0.5", got)
	}
}

func TestChainGain(t *testing.T) {
	buf := constBuffer(1000, 100, 0.5)
	c := NewChain(MakeStreamBuf(buf), 0, 1, 0.5)
	if g := c.Gain(); math.Abs(g-0.5) > 1e-9 {
		t.Errorf("Gain() = %v, want 0.5", g)
	}
	out := drain(c.Streamer(), 100)
	if got := out[50][0]; math.Abs(got-0.25) > 1e-2 {
		t.Errorf("frame 50 = %v, want ~0.25", got)
	}

	c.SetGain(0)
	if c.Gain() != 0 {
		t.Errorf("Gain() after mute = %v, want 0", c.Gain())
	}
}

func TestChainStopIsIdempotent(t *testing.T) {
	c := NewChain(MakeStreamBuf(constBuffer(1000, 100, 0.5)), 0, 1, 1)
	c.Stop()
	c.Stop()
	if !c.Stopped() {
		t.Fatal("Stopped() = false after Stop")
	}
	n, ok := c.Streamer().Stream(make([][2]float64, 10))
	if n != 0 || ok {
		t.Errorf("stopped chain streamed n=%d ok=%v, want 0 false", n, ok)
	}
}

func TestChainSpeed(t *testing.T) {
	c := NewChain(MakeStreamBuf(constBuffer(1000, 100, 0.5)), 0, 1, 1)
	c.SetSpeed(2)
	if c.Speed() != 2 {
		t.Errorf("Speed() = %v, want 2", c.Speed())
	}
	c.SetSpeed(0)
	c.SetSpeed(-1)
	if c.Speed() != 2 {
		t.Errorf("non-positive speed changed ratio to %v", c.Speed())
	}
	if got := len(drain(c.Streamer(), 200)); got > 60 {
		t.Errorf("double speed streamed %d frames, want about 50", got)
	}
}

func TestStreamBufNil(t *testing.T) {
	if n, _ := (StreamBuf{}).All().Stream(make([][2]float64, 4)); n != 0 {
		t.Errorf("nil buffer streamed %d frames", n)
	}
}
