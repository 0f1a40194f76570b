package timeline

import (
	"context"
	"math"
	"time"

	"tjweldon/beatmaker/src/util"
)

// State is whether a session is running
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

type liveVoice struct {
	clip  *clip
	voice Voice
}

// session is one Play: a reference time on the device clock and the voices
// it scheduled. gen tells a polling loop whether it still belongs to the
// running session.
type session struct {
	gen    uint64
	ref    time.Duration
	voices []liveVoice
	cancel context.CancelFunc
}

func (s *session) drop(id ClipID) {
	kept := s.voices[:0]
	for _, lv := range s.voices {
		if lv.clip.id == id {
			lv.voice.Stop()
			continue
		}
		kept = append(kept, lv)
	}
	s.voices = kept
}

// VoiceInfo describes one scheduled voice relative to the session start
type VoiceInfo struct {
	Clip  ClipID
	Start time.Duration
}

// Play stops any running session and starts a new one with every clip as it
// is now, each starting at offset*TotalDuration after the reference time.
func (t *Timeline) Play() error {
	logger := logger.Ctx("Play")
	if err := t.out.Resume(); err != nil {
		logger.Vol(util.Quiet).Log("resume:", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.stopLocked()

	t.generation++
	s := &session{gen: t.generation, ref: t.out.Now()}
	for _, c := range t.clips {
		at := s.ref + offsetDuration(c.offset, t.cfg.TotalDuration)
		v := t.out.Schedule(c.samples, at, t.rate, c.gain*t.master)
		s.voices = append(s.voices, liveVoice{clip: c, voice: v})
	}
	t.session = s
	if t.cfg.PollInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go t.poll(ctx, s.gen)
	}
	logger.Log("session", s.gen, "scheduled", len(s.voices), "voices at", s.ref)
	t.obs.Position(0, FormatElapsed(0))
	return nil
}

// Stop ends the running session, if any, and resets the play head
func (t *Timeline) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.obs.Position(0, FormatElapsed(0))
}

func (t *Timeline) stopLocked() {
	s := t.session
	if s == nil {
		return
	}
	for _, lv := range s.voices {
		lv.voice.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	t.session = nil
	logger.Ctx("stop").Vol(util.Quiet).Log("session", s.gen, "stopped")
}

// Tick advances the play head from the device clock. Once the clock has
// passed the end of the timeline the session stops itself.
func (t *Timeline) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.tickLocked()
	}
}

func (t *Timeline) tickLocked() bool {
	elapsed := t.out.Now() - t.session.ref
	if elapsed >= t.cfg.TotalDuration {
		logger.Ctx("tick").Log("session", t.session.gen, "reached the end")
		t.stopLocked()
		t.obs.Position(0, FormatElapsed(0))
		return false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	t.obs.Position(float64(elapsed)/float64(t.cfg.TotalDuration), FormatElapsed(elapsed))
	return true
}

// poll ticks for session gen until it ends or is replaced
func (t *Timeline) poll(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			alive := t.session != nil && t.session.gen == gen && t.tickLocked()
			t.mu.Unlock()
			if !alive {
				return
			}
		}
	}
}

// SetPlaybackRate changes the speed of every voice, live if playing.
// Non-positive rates are ignored.
func (t *Timeline) SetPlaybackRate(rate float64) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rate = rate
	if t.session != nil {
		for _, lv := range t.session.voices {
			lv.voice.SetRate(rate)
		}
	}
}

// SetMasterGain scales every voice, live if playing
func (t *Timeline) SetMasterGain(gain float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.master = sanitiseGain(gain)
	if t.session != nil {
		for _, lv := range t.session.voices {
			lv.voice.SetGain(lv.clip.gain * t.master)
		}
	}
}

func (t *Timeline) PlaybackRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

func (t *Timeline) MasterGain() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.master
}

func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		return Playing
	}
	return Idle
}

// Position is the play head as a fraction of the timeline and the elapsed
// time since the session started; zero when idle
func (t *Timeline) Position() (float64, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return 0, 0
	}
	elapsed := t.out.Now() - t.session.ref
	elapsed = time.Duration(util.Clamp(float64(elapsed), 0, float64(t.cfg.TotalDuration)))
	return float64(elapsed) / float64(t.cfg.TotalDuration), elapsed
}

// ActiveVoices is the number of voices the running session holds
func (t *Timeline) ActiveVoices() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return 0
	}
	return len(t.session.voices)
}

// Voices lists the running session's voices with their start times
// relative to the session reference
func (t *Timeline) Voices() []VoiceInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	out := make([]VoiceInfo, len(t.session.voices))
	for i, lv := range t.session.voices {
		out[i] = VoiceInfo{Clip: lv.clip.id, Start: lv.voice.StartAt() - t.session.ref}
	}
	return out
}

// Close stops playback for good. Later calls to Play return ErrClosed.
func (t *Timeline) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
	return nil
}

func offsetDuration(offset float64, total time.Duration) time.Duration {
	return time.Duration(math.Round(offset * float64(total)))
}
