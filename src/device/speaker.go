package device

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/util"
)

// The speaker is one per process. Every Speaker value shares it.
var (
	outputOnce sync.Once
	outputRate beep.SampleRate
	outputErr  error
)

func initOutput(rate beep.SampleRate, bufferSize time.Duration) error {
	outputOnce.Do(func() {
		outputRate = rate
		outputErr = errors.Wrap(
			speaker.Init(rate, rate.N(bufferSize)),
			"speaker init",
		)
	})
	if outputErr != nil {
		return outputErr
	}
	if rate != outputRate {
		return errors.Errorf("speaker already running at %d Hz, wanted %d Hz", outputRate, rate)
	}
	return nil
}

// Speaker is an Engine attached to the process-wide speaker. The speaker is
// only opened on the first Resume, and every later Resume is a no-op.
// If it cannot be opened the engine runs free at real time so the clock
// still advances and playback degrades to silence.
type Speaker struct {
	*Engine
	bufferSize time.Duration

	once   sync.Once
	err    error
	stop   chan struct{}
	closed sync.Once
}

// NewSpeaker returns an output at rate with a device buffer of bufferSize
func NewSpeaker(rate beep.SampleRate, bufferSize time.Duration) *Speaker {
	return &Speaker{
		Engine:     NewEngine(rate),
		bufferSize: bufferSize,
		stop:       make(chan struct{}),
	}
}

// Resume opens the output on first use. The returned error is informative
// only, the clock runs either way.
func (s *Speaker) Resume() error {
	s.once.Do(func() {
		logger := logger.Ctx("Speaker.Resume")
		if err := initOutput(s.SampleRate(), s.bufferSize); err != nil {
			s.err = err
			logger.Log("no audio output, running silent:", err)
			go s.freeRun()
			return
		}
		speaker.Play(s.Engine)
		logger.Log("output open at", s.SampleRate(), "Hz")
	})
	return s.err
}

// freeRun pulls the engine at real time when there is no speaker
func (s *Speaker) freeRun() {
	const tick = 10 * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	scratch := make([][2]float64, s.SampleRate().N(tick))
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Engine.Stream(scratch)
		}
	}
}

// Close detaches the engine from the speaker and stops a free-running clock
func (s *Speaker) Close() error {
	s.closed.Do(func() {
		close(s.stop)
		speaker.Lock()
		s.Engine.Close()
		speaker.Unlock()
	})
	return nil
}
