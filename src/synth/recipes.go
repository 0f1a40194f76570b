package synth

// recipe computes one mono sample at time t (seconds). noise returns
// uniform values in [-1, 1).
type recipe func(t float64, noise func() float64) float64

var (
	twoHarmonics   = harmonics(2)
	threeHarmonics = harmonics(3)
	fourHarmonics  = harmonics(4)
	fiveHarmonics  = harmonics(5)

	// near-integer ratios give the chorus-like beating of a pad
	padRatios = []float64{1, 1.003, 2, 2.997}
	// inharmonic ratios of a struck bar
	bellRatios = []float64{1, 2.76, 5.4}
)

var recipes = map[Kind]recipe{
	// percussive transients
	Kick: func(t float64, _ func() float64) float64 {
		return sweep(150, 50, 30, t) * decay(10, t)
	},
	Snare: func(t float64, noise func() float64) float64 {
		return 0.7*noise()*decay(20, t) + 0.3*sine(180, t)*decay(25, t)
	},
	HiHat: func(t float64, noise func() float64) float64 {
		return 0.6 * noise() * decay(40, t)
	},

	// saturated tonal
	SubBass: func(t float64, _ func() float64) float64 {
		return saturate(3, sweep(90, 45, 12, t)) * decay(2, t)
	},

	// sustained tonal, plucked or struck
	Bass: func(t float64, _ func() float64) float64 {
		return partials(110, threeHarmonics, t) * decay(4, t)
	},
	Piano: func(t float64, _ func() float64) float64 {
		return partials(261.63, fourHarmonics, t) * decay(3, t)
	},
	Guitar: func(t float64, _ func() float64) float64 {
		return partials(196, fiveHarmonics, t) * decay(5, t)
	},
	Harp: func(t float64, _ func() float64) float64 {
		return partials(392, threeHarmonics, t) * decay(6, t)
	},
	Bell: func(t float64, _ func() float64) float64 {
		return partials(880, bellRatios, t) * decay(2, t)
	},

	// sustained tonal, bowed or blown
	Flute: func(t float64, noise func() float64) float64 {
		return (0.9*partials(523.25, twoHarmonics, t) + 0.05*noise()) * swell(8, t)
	},
	Saxophone: func(t float64, _ func() float64) float64 {
		return partials(233.08, fiveHarmonics, t) * swell(10, t)
	},
	Choir: func(t float64, _ func() float64) float64 {
		return (sine(220, t) + sine(220*1.005, t) + sine(220*0.995, t)) / 3 * swell(2, t)
	},
	SynthPad: func(t float64, _ func() float64) float64 {
		return partials(220, padRatios, t) * swell(2, t)
	},
	Strings: func(t float64, _ func() float64) float64 {
		return partials(196, fourHarmonics, t) * swell(3, t)
	},

	// pulse
	TechnoLead: func(t float64, _ func() float64) float64 {
		return 0.5 * pulse(220, t)
	},

	// noisy ambient: hum plus hiss with a slow swell
	LofiNoise: func(t float64, noise func() float64) float64 {
		return 0.05*noise() + 0.3*sine(60, t)*(0.6+0.4*sine(0.5, t))
	},
}
