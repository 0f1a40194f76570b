package capture

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

func frames(buf *beep.Buffer) [][2]float64 {
	out := make([][2]float64, buf.Len())
	s := buf.Streamer(0, buf.Len())
	n := 0
	for n < len(out) {
		m, ok := s.Stream(out[n:])
		n += m
		if !ok {
			break
		}
	}
	return out[:n]
}

func TestDecodeMonoToStereo(t *testing.T) {
	buf := Decode([][]float32{{0.1, 0.2}, {0.3}}, 1, 1000, 1000)
	got := frames(buf)
	want := []float64{0.1, 0.2, 0.3}
	if len(got) != len(want) {
		t.Fatalf("Decode gave %d frames, want %d", len(got), len(want))
	}
	for i, w := range want {
		if math.Abs(got[i][0]-w) > 1e-6 || got[i][0] != got[i][1] {
			t.Errorf("frame %d = %v, want %v on both channels", i, got[i], w)
		}
	}
	if buf.Format().SampleRate != 1000 || buf.Format().NumChannels != 2 {
		t.Errorf("format = %+v", buf.Format())
	}
}

func TestDecodeStereoAcrossChunks(t *testing.T) {
	// the second frame is split between chunks
	got := frames(Decode([][]float32{{0.1, -0.1, 0.2}, {-0.2}}, 2, 1000, 1000))
	if len(got) != 2 {
		t.Fatalf("Decode gave %d frames, want 2", len(got))
	}
	if math.Abs(got[1][0]-0.2) > 1e-6 || math.Abs(got[1][1]+0.2) > 1e-6 {
		t.Errorf("frame 1 = %v, want [0.2 -0.2]", got[1])
	}
}

func TestDecodeFoldsWideInput(t *testing.T) {
	got := frames(Decode([][]float32{{0.3, 0.6, 0.9, 0.3}}, 4, 1000, 1000))
	if len(got) != 1 || math.Abs(got[0][0]-0.525) > 1e-6 || got[0][0] != got[0][1] {
		t.Errorf("Decode = %v, want one frame of 0.525", got)
	}
}

func TestDecodeResamples(t *testing.T) {
	chunk := make([]float32, 1000)
	for i := range chunk {
		chunk[i] = 0.5
	}
	buf := Decode([][]float32{chunk}, 1, 1000, 2000)
	if n := buf.Len(); n < 1990 || n > 2010 {
		t.Errorf("resampled length = %d, want about 2000", n)
	}
}

func TestDecodeEmpty(t *testing.T) {
	tests := []struct {
		name     string
		chunks   [][]float32
		channels int
		from     beep.SampleRate
	}{
		{"no chunks", nil, 1, 1000},
		{"no channels", [][]float32{{0.1}}, 0, 1000},
		{"no rate", [][]float32{{0.1}}, 1, 0},
		{"partial frame", [][]float32{{0.1}}, 2, 1000},
	}
	for _, tt := range tests {
		if n := Decode(tt.chunks, tt.channels, tt.from, 1000).Len(); n != 0 {
			t.Errorf("%s: Decode gave %d frames, want 0", tt.name, n)
		}
	}
}

func TestTakeFrames(t *testing.T) {
	take := Take{Chunks: [][]float32{{1, 2, 3}, {4, 5}}, Channels: 2, Rate: 1000}
	if take.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", take.Frames())
	}
	if n := take.Finalize(1000).Len(); n != 2 {
		t.Errorf("Finalize gave %d frames, want 2", n)
	}
}

func writeWAV(t *testing.T, rate beep.SampleRate, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tone := beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.25, -0.25}
		}
		return len(samples), true
	}))
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, tone, format); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWAV(t *testing.T) {
	path := writeWAV(t, 1000, 500)

	buf, err := LoadWAV(path, 1000)
	if err != nil {
		t.Fatalf("LoadWAV() = %v", err)
	}
	if buf.Len() != 500 {
		t.Errorf("Len() = %d, want 500", buf.Len())
	}
	if f := frames(buf)[100]; math.Abs(f[0]-0.25) > 1e-3 || math.Abs(f[1]+0.25) > 1e-3 {
		t.Errorf("frame 100 = %v, want [0.25 -0.25]", f)
	}

	up, err := LoadWAV(path, 2000)
	if err != nil {
		t.Fatalf("LoadWAV() at 2000 Hz = %v", err)
	}
	if n := up.Len(); n < 990 || n > 1010 {
		t.Errorf("resampled Len() = %d, want about 1000", n)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := DecodeWAV(bytes.NewReader([]byte("not a wav file at all")), 1000); err == nil {
		t.Error("DecodeWAV accepted garbage")
	}
	if _, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav"), 1000); err == nil {
		t.Error("LoadWAV of a missing file returned no error")
	}
}

func TestStopWithoutStart(t *testing.T) {
	r := NewRecorder(Config{})
	if r.Recording() {
		t.Fatal("new recorder is recording")
	}
	if _, err := r.Stop(); err == nil {
		t.Error("Stop() without Start returned no error")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
