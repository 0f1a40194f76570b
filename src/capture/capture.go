// Package capture records the microphone into clips and imports audio
// files, both decoded to the output's sample rate.
package capture

import (
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("capture")

// ErrDeviceUnavailable covers a missing microphone, a refused permission
// and a stream that would not open. The wrapped message says which.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

var (
	initOnce sync.Once
	termOnce sync.Once
	initErr  error
)

func initialize() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// Terminate releases portaudio if it was ever started. No recorder can
// start afterwards.
func Terminate() {
	termOnce.Do(func() {
		initOnce.Do(func() { initErr = errors.New("portaudio terminated") })
		if initErr == nil {
			_ = portaudio.Terminate()
		}
	})
}

// Config picks the input device. An empty DeviceName takes the default
// input, falling back to the first device that has input channels.
type Config struct {
	DeviceName string
	Channels   int
	BufferSize int
}

const defaultBufferSize = 1024

// Recorder collects raw input chunks between Start and Stop
type Recorder struct {
	cfg Config

	mu        sync.Mutex
	stream    *portaudio.Stream
	rate      float64
	channels  int
	chunks    [][]float32
	recording bool
}

// NewRecorder returns a recorder; no device is touched until Start
func NewRecorder(cfg Config) *Recorder {
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	return &Recorder{cfg: cfg}
}

// Start opens the input device and begins collecting chunks. Starting a
// recorder that is already recording is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}
	logger := logger.Ctx("Start")

	if err := initialize(); err != nil {
		return errors.Wrapf(ErrDeviceUnavailable, "portaudio: %v", err)
	}
	dev, err := inputDevice(r.cfg.DeviceName)
	if err != nil {
		return errors.Wrap(ErrDeviceUnavailable, err.Error())
	}
	channels := r.cfg.Channels
	if channels > dev.MaxInputChannels {
		channels = dev.MaxInputChannels
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: r.cfg.BufferSize,
	}, r.process)
	if err != nil {
		return errors.Wrapf(ErrDeviceUnavailable, "open stream: %v", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return errors.Wrapf(ErrDeviceUnavailable, "start stream: %v", err)
	}

	r.stream = stream
	r.rate = dev.DefaultSampleRate
	r.channels = channels
	r.chunks = nil
	r.recording = true
	logger.Log("recording from", dev.Name, "at", dev.DefaultSampleRate, "Hz")
	return nil
}

// process is the portaudio callback; in is reused, so it is copied
func (r *Recorder) process(in []float32) {
	chunk := make([]float32, len(in))
	copy(chunk, in)
	r.mu.Lock()
	r.chunks = append(r.chunks, chunk)
	r.mu.Unlock()
}

// Stop ends the recording and hands back what was captured
func (r *Recorder) Stop() (Take, error) {
	r.mu.Lock()
	stream := r.stream
	take := Take{Chunks: r.chunks, Channels: r.channels, Rate: r.rate}
	r.stream = nil
	r.chunks = nil
	r.recording = false
	r.mu.Unlock()

	if stream == nil {
		return Take{}, errors.New("not recording")
	}
	// the callback takes r.mu, so the stream is stopped without holding it
	if err := stream.Stop(); err != nil && !invalidStreamState(err) {
		_ = stream.Close()
		return take, errors.Wrap(err, "stop stream")
	}
	if err := stream.Close(); err != nil {
		return take, errors.Wrap(err, "close stream")
	}
	logger.Ctx("Stop").Log("captured", take.Frames(), "frames")
	return take, nil
}

// Recording reports whether Start has been called without a Stop
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close stops any recording in progress and discards it
func (r *Recorder) Close() error {
	if !r.Recording() {
		return nil
	}
	_, err := r.Stop()
	return err
}

func inputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "list audio devices")
	}
	name = strings.ToLower(name)
	for _, dev := range devices {
		if dev == nil || dev.MaxInputChannels <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(dev.Name), name) {
			return dev, nil
		}
	}
	if name != "" {
		return nil, errors.Errorf("audio input %q not found", name)
	}
	return nil, errors.New("no audio input found")
}

// invalidStreamState is portaudio's complaint about stopping a stopped stream
func invalidStreamState(err error) bool {
	return strings.Contains(err.Error(), "PaErrorCode -9986")
}
