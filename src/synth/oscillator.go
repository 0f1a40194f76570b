package synth

import "math"

const twoPi = 2 * math.Pi

func sine(freq, t float64) float64 { return math.Sin(twoPi * freq * t) }

// decay is the exp(-t*k) window used by plucked and struck timbres
func decay(k, t float64) float64 { return math.Exp(-t * k) }

// swell is the min(1, t*n) ramp used by bowed and blown timbres
func swell(n, t float64) float64 { return math.Min(1, t*n) }

// partials sums sines at freq*ratio[i], each weighted 1/(i+1). The sum is
// divided by the total weight so the peak never exceeds 1.
func partials(freq float64, ratios []float64, t float64) float64 {
	var sum, norm float64
	for i, r := range ratios {
		w := 1 / float64(i+1)
		sum += w * sine(freq*r, t)
		norm += w
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// sweep integrates a frequency falling exponentially from hi to lo at rate k,
// returning the sine of the accumulated phase
func sweep(hi, lo, k, t float64) float64 {
	phase := lo*t + (hi-lo)/k*(1-math.Exp(-k*t))
	return math.Sin(twoPi * phase)
}

// saturate is tanh soft clipping normalised so that saturate(1) == 1
func saturate(drive, x float64) float64 { return math.Tanh(drive*x) / math.Tanh(drive) }

// pulse is the two-level sign of a sine
func pulse(freq, t float64) float64 {
	switch s := sine(freq, t); {
	case s > 0:
		return 1
	case s < 0:
		return -1
	default:
		return 0
	}
}

// harmonics returns the integer ratios 1..n
func harmonics(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}
