package streams

import (
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"tjweldon/beatmaker/src/delay_buffers"
	"tjweldon/beatmaker/src/util"
)

// resampleQuality is passed to beep.ResampleRatio
const resampleQuality = 4

/*
Chain is one independently playing voice. The streams are composed like so:

	Ctrl -> Seq(Silence(delay), Volume -> Resampler -> buffer)

The delay sits outside the resampler so that changing the speed never moves
the start time. Chain is not safe for concurrent use, callers must hold
whatever lock guards the stream that plays it.
*/
type Chain struct {
	ctrl  *beep.Ctrl
	vol   *effects.Volume
	speed *beep.Resampler
}

// NewChain builds a chain that starts delay after it is first streamed
func NewChain(sb StreamBuf, delay time.Duration, speed, gain float64) *Chain {
	logger := logger.Ctx("NewChain").Vol(util.Quiet)
	src := sb.All()
	rs := beep.ResampleRatio(resampleQuality, validSpeed(speed, 1), src)
	vl := &effects.Volume{Streamer: rs, Base: 2}
	c := &Chain{speed: rs, vol: vl}
	c.SetGain(gain)
	c.ctrl = &beep.Ctrl{Streamer: delay_buffers.DelaySound(delay, src.Format, vl)}

	logger.Log("delay", delay, "speed", speed, "gain", gain)
	return c
}

// Streamer is what gets added to the mixer
func (c *Chain) Streamer() beep.Streamer { return c.ctrl }

// SetSpeed changes the playback rate; non-positive ratios are ignored
func (c *Chain) SetSpeed(ratio float64) {
	c.speed.SetRatio(validSpeed(ratio, c.speed.Ratio()))
}

// Speed returns the current playback rate
func (c *Chain) Speed() float64 { return c.speed.Ratio() }

// SetGain sets a linear amplitude factor, anything at or below zero mutes
func (c *Chain) SetGain(gain float64) {
	if gain <= 0 || math.IsNaN(gain) {
		c.vol.Silent = true
		return
	}
	c.vol.Silent = false
	c.vol.Volume = math.Log2(gain)
}

// Gain returns the linear amplitude factor
func (c *Chain) Gain() float64 {
	if c.vol.Silent {
		return 0
	}
	return math.Pow(c.vol.Base, c.vol.Volume)
}

// Stop detaches the source; the mixer drops the chain on its next read.
// Stopping twice, or after the sound has ended, does nothing.
func (c *Chain) Stop() { c.ctrl.Streamer = nil }

// Stopped reports whether Stop has been called
func (c *Chain) Stopped() bool { return c.ctrl.Streamer == nil }

func validSpeed(ratio, fallback float64) float64 {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return fallback
	}
	return ratio
}
