package main

import (
	"math"
	"testing"

	"github.com/eiannone/keyboard"
	"tjweldon/beatmaker/src/device"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/ui"
)

func newTimeline() *timeline.Timeline {
	cfg := timeline.DefaultConfig()
	cfg.PollInterval = 0
	return timeline.New(device.NewEngine(2000), cfg)
}

func TestKeyCommand(t *testing.T) {
	tl := newTimeline()
	tests := []struct {
		name string
		char rune
		key  keyboard.Key
		want ui.Command
		ok   bool
	}{
		{"space plays", 0, keyboard.KeySpace, ui.Command{Type: ui.CmdPlay}, true},
		{"1 adds the first instrument", '1', 0, ui.Command{Type: ui.CmdAdd, Kind: synth.Kinds()[0].String()}, true},
		{"0 adds the tenth instrument", '0', 0, ui.Command{Type: ui.CmdAdd, Kind: synth.Kinds()[9].String()}, true},
		{"x with no clips", 'x', 0, ui.Command{}, false},
		{"r starts recording", 'r', 0, ui.Command{Type: ui.CmdRecord, Action: "start"}, true},
		{"unbound", 'z', 0, ui.Command{}, false},
	}
	for _, tt := range tests {
		got, quit, ok := keyCommand(tt.char, tt.key, tl, false)
		if quit || ok != tt.ok || got != tt.want {
			t.Errorf("%s: keyCommand = %+v, %v, %v, want %+v, %v", tt.name, got, quit, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyCommandQuit(t *testing.T) {
	tl := newTimeline()
	for _, k := range []struct {
		char rune
		key  keyboard.Key
	}{{'q', 0}, {'Q', 0}, {0, keyboard.KeyEsc}, {0, keyboard.KeyCtrlC}} {
		if _, quit, _ := keyCommand(k.char, k.key, tl, false); !quit {
			t.Errorf("keyCommand(%q, %v) did not quit", k.char, k.key)
		}
	}
}

func TestKeyCommandFollowsState(t *testing.T) {
	tl := newTimeline()
	id := tl.AddClip(synth.Kick, "")
	tl.Play()

	if cmd, _, _ := keyCommand(' ', 0, tl, false); cmd.Type != ui.CmdStop {
		t.Errorf("space while playing = %q, want stop", cmd.Type)
	}
	if cmd, _, _ := keyCommand('x', 0, tl, false); cmd.Type != ui.CmdRemove || cmd.ID != id {
		t.Errorf("x = %+v, want remove %s", cmd, id)
	}
	if cmd, _, _ := keyCommand('r', 0, tl, true); cmd.Action != "stop" {
		t.Errorf("r while recording = %+v, want stop", cmd)
	}

	tl.SetPlaybackRate(0.15)
	if cmd, _, _ := keyCommand('-', 0, tl, false); math.Abs(cmd.Value-minRate) > 1e-9 {
		t.Errorf("rate down = %v, want floor %v", cmd.Value, minRate)
	}
	if cmd, _, _ := keyCommand('+', 0, tl, false); math.Abs(cmd.Value-0.25) > 1e-9 {
		t.Errorf("rate up = %v, want 0.25", cmd.Value)
	}
	tl.SetMasterGain(0.05)
	if cmd, _, _ := keyCommand('[', 0, tl, false); cmd.Value != 0 {
		t.Errorf("master down = %v, want 0", cmd.Value)
	}
}
