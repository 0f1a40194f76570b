// Package config reads the command line and BEATMAKER_* environment
// variables into one Args value.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/faiface/beep"
	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/delay_buffers"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/util"
)

// Args is everything main needs. Flags win over the environment, which
// wins over the defaults.
type Args struct {
	SampleRate    int           `arg:"--sample-rate,env:BEATMAKER_SAMPLE_RATE" default:"44100" help:"output sample rate in Hz"`
	BufferSize    time.Duration `arg:"--buffer,env:BEATMAKER_BUFFER" default:"100ms" help:"speaker buffer length"`
	TotalDuration time.Duration `arg:"--length,env:BEATMAKER_LENGTH" default:"10s" help:"timeline length"`
	ClipDuration  time.Duration `arg:"--clip,env:BEATMAKER_CLIP" default:"2s" help:"length of synthesized clips"`
	PollInterval  time.Duration `arg:"--poll,env:BEATMAKER_POLL" default:"50ms" help:"play head update interval"`
	Rate          float64       `arg:"--rate,env:BEATMAKER_RATE" default:"1" help:"initial playback rate"`
	Master        float64       `arg:"--master,env:BEATMAKER_MASTER" default:"1" help:"initial master gain"`
	Tempo         int           `arg:"--tempo,env:BEATMAKER_TEMPO" help:"snap clips to this BPM, 0 for no snapping"`
	Quantisation  string        `arg:"--quantise,env:BEATMAKER_QUANTISE" default:"quarter" help:"snap step: quarter, eighth or sixteenth"`

	Listen           string        `arg:"--listen,env:BEATMAKER_LISTEN" default:":8080" help:"UI address, empty to disable"`
	AssistantURL     string        `arg:"--assistant-url,env:BEATMAKER_ASSISTANT_URL" default:"http://localhost:11434" help:"Ollama-compatible server, empty to disable"`
	AssistantModel   string        `arg:"--assistant-model,env:BEATMAKER_ASSISTANT_MODEL" default:"qwen3" help:"assistant model name"`
	AssistantTimeout time.Duration `arg:"--assistant-timeout,env:BEATMAKER_ASSISTANT_TIMEOUT" default:"60s" help:"assistant request timeout"`
	Mic              string        `arg:"--mic,env:BEATMAKER_MIC" help:"input device name, default input if empty"`

	LogLevel string   `arg:"--log-level,env:BEATMAKER_LOG_LEVEL" default:"normal" help:"silent, quieter, quiet, normal, loud, louder or loudest"`
	Preset   string   `arg:"--preset,env:BEATMAKER_PRESET" help:"genre preset to start with"`
	Keyboard bool     `arg:"-k,--keyboard,env:BEATMAKER_KEYBOARD" help:"terminal transport controls"`
	Samples  []string `arg:"positional" help:"WAV files to add as clips"`
}

func (Args) Description() string {
	return "beatmaker arranges synthesized instrument clips on a timeline and plays them back"
}

// ErrHelp is returned by Load after usage was printed for -h
var ErrHelp = arg.ErrHelp

// Load parses argv (without the program name). On -h it writes usage to w
// and returns ErrHelp.
func Load(argv []string, w io.Writer) (Args, error) {
	var args Args
	p, err := arg.NewParser(arg.Config{Program: "beatmaker"}, &args)
	if err != nil {
		return args, errors.Wrap(err, "config")
	}
	if err := p.Parse(argv); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			p.WriteHelp(w)
		}
		return args, err
	}
	return args, args.validate()
}

func (a Args) validate() error {
	switch {
	case a.SampleRate <= 0:
		return errors.Errorf("sample rate must be positive, got %d", a.SampleRate)
	case a.TotalDuration <= 0:
		return errors.Errorf("timeline length must be positive, got %v", a.TotalDuration)
	case a.ClipDuration <= 0:
		return errors.Errorf("clip length must be positive, got %v", a.ClipDuration)
	case a.PollInterval <= 0:
		return errors.Errorf("poll interval must be positive, got %v", a.PollInterval)
	case a.Rate <= 0:
		return errors.Errorf("playback rate must be positive, got %v", a.Rate)
	case a.Master < 0:
		return errors.Errorf("master gain cannot be negative, got %v", a.Master)
	case a.Tempo < 0:
		return errors.Errorf("tempo cannot be negative, got %d", a.Tempo)
	}
	if _, ok := delay_buffers.ParseQuantisation(strings.ToLower(a.Quantisation)); !ok {
		return errors.Errorf("unknown quantisation %q", a.Quantisation)
	}
	if _, err := util.ParseLogVolume(a.LogLevel); err != nil {
		return err
	}
	return nil
}

// OutputRate is the sample rate as beep wants it
func (a Args) OutputRate() beep.SampleRate { return beep.SampleRate(a.SampleRate) }

// Timeline is the scheduler configuration the flags describe
func (a Args) Timeline() timeline.Config {
	return timeline.Config{
		TotalDuration: a.TotalDuration,
		ClipDuration:  a.ClipDuration,
		PollInterval:  a.PollInterval,
		PlaybackRate:  a.Rate,
		MasterGain:    a.Master,
	}
}

// Grid is the snap grid, if a tempo was given
func (a Args) Grid() (delay_buffers.Grid, bool) {
	q, _ := delay_buffers.ParseQuantisation(strings.ToLower(a.Quantisation))
	return delay_buffers.Grid{Tempo: delay_buffers.Tempo(a.Tempo), Quantisation: q}, a.Tempo > 0
}

// Volume is the log level as a logger volume
func (a Args) Volume() util.LogVolume {
	v, err := util.ParseLogVolume(a.LogLevel)
	if err != nil {
		return util.Normal
	}
	return v
}
