package main

import (
	"context"
	"math"

	"github.com/eiannone/keyboard"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/ui"
)

const keyHelp = "space play/stop, 1-9 0 add instrument, x remove last, +/- rate, [/] master, r record, q quit"

const (
	rateStep = 0.1
	minRate  = 0.1
	gainStep = 0.1
)

// keyCommand maps a key press onto the command the UI would send
func keyCommand(char rune, key keyboard.Key, tl *timeline.Timeline, recording bool) (cmd ui.Command, quit, ok bool) {
	switch {
	case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
		return ui.Command{}, true, false
	case key == keyboard.KeySpace || char == ' ':
		if tl.State() == timeline.Playing {
			return ui.Command{Type: ui.CmdStop}, false, true
		}
		return ui.Command{Type: ui.CmdPlay}, false, true
	case char >= '0' && char <= '9':
		// 1 is the first instrument, 0 the tenth
		i := int(char - '1')
		if char == '0' {
			i = 9
		}
		kinds := synth.Kinds()
		if i >= len(kinds) {
			return ui.Command{}, false, false
		}
		return ui.Command{Type: ui.CmdAdd, Kind: kinds[i].String()}, false, true
	case char == 'x' || char == 'X':
		clips := tl.Clips()
		if len(clips) == 0 {
			return ui.Command{}, false, false
		}
		return ui.Command{Type: ui.CmdRemove, ID: clips[len(clips)-1].ID}, false, true
	case char == '+' || char == '=':
		return ui.Command{Type: ui.CmdRate, Value: tl.PlaybackRate() + rateStep}, false, true
	case char == '-' || char == '_':
		return ui.Command{Type: ui.CmdRate, Value: math.Max(tl.PlaybackRate()-rateStep, minRate)}, false, true
	case char == ']':
		return ui.Command{Type: ui.CmdMaster, Value: tl.MasterGain() + gainStep}, false, true
	case char == '[':
		return ui.Command{Type: ui.CmdMaster, Value: math.Max(tl.MasterGain()-gainStep, 0)}, false, true
	case char == 'r' || char == 'R':
		if recording {
			return ui.Command{Type: ui.CmdRecord, Action: "stop"}, false, true
		}
		return ui.Command{Type: ui.CmdRecord, Action: "start"}, false, true
	}
	return ui.Command{}, false, false
}

// runKeyboard drives srv from the terminal until ctx ends or q is pressed
func runKeyboard(ctx context.Context, quit context.CancelFunc, srv *ui.Server, tl *timeline.Timeline, rec ui.Recorder) {
	logger := logger.Ctx("keyboard")
	if err := keyboard.Open(); err != nil {
		logger.Log("keyboard input disabled:", err)
		return
	}
	defer keyboard.Close()
	logger.Log(keyHelp)

	notice := func(ev ui.Event) { logger.Log(ev.Text) }
	for ctx.Err() == nil {
		char, key, err := keyboard.GetKey()
		if err != nil {
			logger.Log(err)
			return
		}
		cmd, stop, ok := keyCommand(char, key, tl, rec.Recording())
		if stop {
			quit()
			return
		}
		if !ok {
			continue
		}
		if err := srv.Handle(ctx, cmd, notice); err != nil {
			logger.Log(cmd.Type, "failed:", err)
		}
	}
}
