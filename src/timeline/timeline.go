// Package timeline places synthesized clips on a fixed-length timeline and
// plays them back against the output device's clock.
package timeline

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/delay_buffers"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("timeline")

// ErrClosed is returned by Play once the timeline has been closed
var ErrClosed = errors.New("timeline closed")

// ClipID identifies one clip for the life of a timeline
type ClipID string

// Voice is one sounding instance of a clip's buffer
type Voice interface {
	SetRate(rate float64)
	SetGain(gain float64)
	// Stop silences the voice. It must be safe to call repeatedly and after
	// the voice has finished on its own.
	Stop()
	StartAt() time.Duration
}

// Output is the audio device the timeline plays through
type Output interface {
	// Resume creates or wakes the device; called on every user-initiated play
	Resume() error
	// Now is the device clock, monotonic
	Now() time.Duration
	SampleRate() beep.SampleRate
	// Schedule creates a voice for buf starting at the absolute time at
	Schedule(buf *beep.Buffer, at time.Duration, rate, gain float64) Voice
}

// Config holds the fixed parameters of a timeline
type Config struct {
	TotalDuration time.Duration
	ClipDuration  time.Duration
	// PollInterval is how often the play head is advanced while playing.
	// Zero means the caller drives Tick itself.
	PollInterval time.Duration
	PlaybackRate float64
	MasterGain   float64
	// Synth renders new clips; nil uses the package-level synthesizer
	Synth *synth.Synthesizer
}

// DefaultConfig is a ten second timeline of two second clips
func DefaultConfig() Config {
	return Config{
		TotalDuration: 10 * time.Second,
		ClipDuration:  synth.DefaultDuration,
		PollInterval:  50 * time.Millisecond,
		PlaybackRate:  1,
		MasterGain:    1,
	}
}

type clip struct {
	id      ClipID
	name    string
	kind    synth.Kind
	samples *beep.Buffer
	offset  float64
	gain    float64

	// held is where the clip was put before grid snapping; drags accumulate
	// on it so steps smaller than the grid still add up
	held float64
}

// ClipInfo is a read-only snapshot of a clip
type ClipInfo struct {
	ID       ClipID        `json:"id"`
	Name     string        `json:"name"`
	Kind     synth.Kind    `json:"-"`
	KindName string        `json:"kind"`
	Offset   float64       `json:"offset"`
	Gain     float64       `json:"gain"`
	Width    float64       `json:"width"`
	Duration time.Duration `json:"duration"`
}

// ClipSpec describes one clip of a batch insert. A zero Gain means unity.
// A nil Buffer is synthesized from Kind.
type ClipSpec struct {
	Kind   synth.Kind
	Name   string
	Offset float64
	Gain   float64
	Buffer *beep.Buffer
}

// Timeline owns the clips, the playback settings and at most one session.
// All methods are safe for concurrent use and are serialized.
type Timeline struct {
	cfg   Config
	out   Output
	synth *synth.Synthesizer

	mu         sync.Mutex
	obs        Observer
	clips      []*clip
	session    *session
	generation uint64
	rate       float64
	master     float64
	grid       *delay_buffers.Grid
	closed     bool
}

// New returns an empty timeline playing through out
func New(out Output, cfg Config) *Timeline {
	def := DefaultConfig()
	if cfg.TotalDuration <= 0 {
		cfg.TotalDuration = def.TotalDuration
	}
	if cfg.ClipDuration <= 0 {
		cfg.ClipDuration = def.ClipDuration
	}
	if cfg.PollInterval < 0 {
		cfg.PollInterval = 0
	}
	if cfg.PlaybackRate <= 0 {
		cfg.PlaybackRate = def.PlaybackRate
	}
	if cfg.MasterGain < 0 {
		cfg.MasterGain = 0
	}
	t := &Timeline{
		cfg:    cfg,
		out:    out,
		synth:  cfg.Synth,
		obs:    NopObserver{},
		rate:   cfg.PlaybackRate,
		master: cfg.MasterGain,
	}
	return t
}

// SetObserver replaces the observer; nil restores the no-op observer
func (t *Timeline) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	t.mu.Lock()
	t.obs = o
	t.mu.Unlock()
}

// Config returns the configuration the timeline was built with
func (t *Timeline) Config() Config { return t.cfg }

// SampleRate is the output's rate, which every clip buffer should share
func (t *Timeline) SampleRate() beep.SampleRate { return t.out.SampleRate() }

// SetGrid makes repositions snap to the grid
func (t *Timeline) SetGrid(g delay_buffers.Grid) {
	t.mu.Lock()
	t.grid = &g
	t.mu.Unlock()
}

// ClearGrid turns snapping off
func (t *Timeline) ClearGrid() {
	t.mu.Lock()
	t.grid = nil
	t.mu.Unlock()
}

func (t *Timeline) render(kind synth.Kind) *beep.Buffer {
	if t.synth != nil {
		return t.synth.Synthesize(kind, t.out.SampleRate(), t.cfg.ClipDuration)
	}
	return synth.Synthesize(kind, t.out.SampleRate(), t.cfg.ClipDuration)
}

// AddClip synthesizes kind and appends it at the start of the timeline. A
// session already playing does not pick the new clip up.
func (t *Timeline) AddClip(kind synth.Kind, name string) ClipID {
	return t.AddClips(ClipSpec{Kind: kind, Name: name})[0]
}

// AddBuffer appends an already decoded buffer, such as a recording
func (t *Timeline) AddBuffer(kind synth.Kind, name string, buf *beep.Buffer) ClipID {
	return t.AddClips(ClipSpec{Kind: kind, Name: name, Buffer: buf})[0]
}

// AddClips appends the clips in order as one step
func (t *Timeline) AddClips(specs ...ClipSpec) []ClipID {
	logger := logger.Ctx("AddClips")
	clips := make([]*clip, len(specs))
	for i, spec := range specs {
		buf := spec.Buffer
		if buf == nil {
			buf = t.render(spec.Kind)
		}
		name := spec.Name
		if name == "" {
			name = spec.Kind.String()
		}
		gain := spec.Gain
		if gain == 0 {
			gain = 1
		}
		clips[i] = &clip{
			id:      ClipID(uuid.NewString()),
			name:    name,
			kind:    spec.Kind,
			samples: buf,
			gain:    math.Max(gain, 0),
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]ClipID, len(clips))
	for i, c := range clips {
		t.place(c, specs[i].Offset)
		t.clips = append(t.clips, c)
		ids[i] = c.id
		t.obs.ClipAdded(t.info(c))
		logger.Log("added", c.name, c.id)
	}
	return ids
}

// RemoveClip deletes a clip, stopping its voice if it is sounding. Unknown
// ids are ignored.
func (t *Timeline) RemoveClip(id ClipID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(id)
	if i < 0 {
		logger.Ctx("RemoveClip").Vol(util.Quiet).Log("no clip", id)
		return
	}
	t.clips = append(t.clips[:i], t.clips[i+1:]...)
	if t.session != nil {
		t.session.drop(id)
	}
	t.obs.ClipRemoved(id)
}

// RepositionClip moves a clip so it starts at offset (a fraction of the
// total duration). The offset is snapped to the grid if one is set, then
// clamped so the clip stays inside the timeline. Unknown ids are ignored.
func (t *Timeline) RepositionClip(id ClipID, offset float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.find(id)
	if c == nil {
		logger.Ctx("RepositionClip").Vol(util.Quiet).Log("no clip", id)
		return
	}
	t.place(c, offset)
	t.obs.ClipMoved(t.info(c))
}

// MoveClipBy shifts a clip by delta, as a drag does. With a grid set the
// drag runs on the unsnapped position and only the result is snapped.
func (t *Timeline) MoveClipBy(id ClipID, delta float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.find(id)
	if c == nil {
		logger.Ctx("MoveClipBy").Vol(util.Quiet).Log("no clip", id)
		return
	}
	t.place(c, c.held+delta)
	t.obs.ClipMoved(t.info(c))
}

// SetClipGain changes a clip's volume, live if the clip is sounding
func (t *Timeline) SetClipGain(id ClipID, gain float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.find(id)
	if c == nil {
		return
	}
	c.gain = sanitiseGain(gain)
	if t.session != nil {
		for _, lv := range t.session.voices {
			if lv.clip == c {
				lv.voice.SetGain(c.gain * t.master)
			}
		}
	}
	t.obs.ClipMoved(t.info(c))
}

// Clips returns the clips in insertion order
func (t *Timeline) Clips() []ClipInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ClipInfo, len(t.clips))
	for i, c := range t.clips {
		out[i] = t.info(c)
	}
	return out
}

// Clip returns one clip's snapshot
func (t *Timeline) Clip(id ClipID) (ClipInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.find(id)
	if c == nil {
		return ClipInfo{}, false
	}
	return t.info(c), true
}

// Samples returns the buffer backing a clip
func (t *Timeline) Samples(id ClipID) (*beep.Buffer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.find(id)
	if c == nil {
		return nil, false
	}
	return c.samples, true
}

func (t *Timeline) index(id ClipID) int {
	for i, c := range t.clips {
		if c.id == id {
			return i
		}
	}
	return -1
}

func (t *Timeline) find(id ClipID) *clip {
	if i := t.index(id); i >= 0 {
		return t.clips[i]
	}
	return nil
}

func (t *Timeline) info(c *clip) ClipInfo {
	return ClipInfo{
		ID:       c.id,
		Name:     c.name,
		Kind:     c.kind,
		KindName: c.kind.String(),
		Offset:   c.offset,
		Gain:     c.gain,
		Width:    t.width(c),
		Duration: bufferDuration(c.samples),
	}
}

// width is the clip's rendered extent as a fraction of the timeline, at most 1
func (t *Timeline) width(c *clip) float64 {
	return math.Min(float64(bufferDuration(c.samples))/float64(t.cfg.TotalDuration), 1)
}

// place puts c at offset, snapped to the grid if one is set. Both the held
// and the snapped position stay inside the timeline.
func (t *Timeline) place(c *clip, offset float64) {
	c.held = t.clampOffset(c, offset)
	c.offset = c.held
	if t.grid != nil {
		c.offset = t.clampOffset(c, t.grid.Snap(c.held, t.cfg.TotalDuration))
	}
}

// clampOffset keeps [offset, offset+width] inside [0, 1] and offset below 1
func (t *Timeline) clampOffset(c *clip, offset float64) float64 {
	if math.IsNaN(offset) {
		offset = 0
	}
	hi := math.Min(1-t.width(c), math.Nextafter(1, 0))
	return util.Clamp(offset, 0, math.Max(hi, 0))
}

func bufferDuration(buf *beep.Buffer) time.Duration {
	if buf == nil || buf.Len() == 0 || buf.Format().SampleRate <= 0 {
		return 0
	}
	return buf.Format().SampleRate.D(buf.Len())
}

func sanitiseGain(g float64) float64 {
	if math.IsNaN(g) || g < 0 {
		return 0
	}
	return g
}
