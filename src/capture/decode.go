package capture

import (
	"io"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/synth"
)

const resampleQuality = 4

// Take is one raw recording: interleaved float32 chunks as the device
// delivered them
type Take struct {
	Chunks   [][]float32
	Channels int
	Rate     float64
}

// Frames is the number of whole frames captured
func (t Take) Frames() int {
	if t.Channels <= 0 {
		return 0
	}
	n := 0
	for _, c := range t.Chunks {
		n += len(c)
	}
	return n / t.Channels
}

// Finalize decodes the take into a stereo buffer at rate
func (t Take) Finalize(rate beep.SampleRate) *beep.Buffer {
	return Decode(t.Chunks, t.Channels, beep.SampleRate(t.Rate), rate)
}

// Decode concatenates interleaved chunks recorded at from and resamples
// them to to. Mono is copied to both channels, stereo kept as is and
// anything wider folded down to mono first.
func Decode(chunks [][]float32, channels int, from, to beep.SampleRate) *beep.Buffer {
	buf := beep.NewBuffer(synth.Format(to))
	if channels <= 0 || from <= 0 || to <= 0 {
		return buf
	}

	var frames [][2]float64
	var pending []float32
	for _, chunk := range chunks {
		pending = append(pending, chunk...)
		whole := len(pending) / channels * channels
		for i := 0; i < whole; i += channels {
			frames = append(frames, toStereo(pending[i:i+channels]))
		}
		pending = pending[whole:]
	}
	if len(frames) == 0 {
		return buf
	}

	var s beep.Streamer = frameStreamer(frames)
	if from != to {
		s = beep.Resample(resampleQuality, from, to, s)
	}
	buf.Append(s)
	return buf
}

func toStereo(frame []float32) [2]float64 {
	switch len(frame) {
	case 1:
		return [2]float64{float64(frame[0]), float64(frame[0])}
	case 2:
		return [2]float64{float64(frame[0]), float64(frame[1])}
	}
	var sum float64
	for _, v := range frame {
		sum += float64(v)
	}
	mono := sum / float64(len(frame))
	return [2]float64{mono, mono}
}

// frameStreamer plays a slice of frames once
func frameStreamer(frames [][2]float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := copy(samples, frames[pos:])
		pos += n
		return n, true
	})
}

// DecodeWAV reads a whole WAV stream into a stereo buffer at rate
func DecodeWAV(r io.Reader, rate beep.SampleRate) (*beep.Buffer, error) {
	decoded, format, err := wav.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode wav")
	}
	defer decoded.Close()

	var s beep.Streamer = decoded
	if format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, decoded)
	}
	buf := beep.NewBuffer(synth.Format(rate))
	buf.Append(s)
	if err := decoded.Err(); err != nil {
		return nil, errors.Wrap(err, "decode wav")
	}
	return buf, nil
}

// LoadWAV opens and decodes the WAV file at path
func LoadWAV(path string, rate beep.SampleRate) (*beep.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sample")
	}
	defer file.Close()
	buf, err := DecodeWAV(file, rate)
	return buf, errors.Wrapf(err, "load %s", path)
}
