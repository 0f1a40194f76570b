package ui

import (
	"context"

	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/assistant"
	"tjweldon/beatmaker/src/capture"
	"tjweldon/beatmaker/src/presets"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
)

// Event types sent to clients
const (
	EventState       = "state"
	EventClipAdded   = "clip_added"
	EventClipRemoved = "clip_removed"
	EventClipMoved   = "clip_moved"
	EventPosition    = "position"
	EventChat        = "chat"
	EventNotice      = "notice"
)

// Command types accepted from clients
const (
	CmdAdd    = "add"
	CmdRemove = "remove"
	CmdMove   = "move"
	CmdGain   = "gain"
	CmdPlay   = "play"
	CmdStop   = "stop"
	CmdRate   = "rate"
	CmdMaster = "master"
	CmdPreset = "preset"
	CmdChat   = "chat"
	CmdRecord = "record"
)

// Event is one message to a client
type Event struct {
	Type     string             `json:"type"`
	Clip     *timeline.ClipInfo `json:"clip,omitempty"`
	ID       timeline.ClipID    `json:"id,omitempty"`
	Fraction float64            `json:"fraction"`
	Elapsed  string             `json:"elapsed,omitempty"`
	Text     string             `json:"text,omitempty"`
	State    *State             `json:"state,omitempty"`
}

// Command is one message from a client. A move carries either an absolute
// Offset or a drag of Px pixels across a timeline WidthPx wide.
type Command struct {
	Type    string          `json:"type"`
	ID      timeline.ClipID `json:"id,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Name    string          `json:"name,omitempty"`
	Offset  *float64        `json:"offset,omitempty"`
	Px      float64         `json:"px,omitempty"`
	WidthPx float64         `json:"widthPx,omitempty"`
	Value   float64         `json:"value,omitempty"`
	Genre   string          `json:"genre,omitempty"`
	Text    string          `json:"text,omitempty"`
	Action  string          `json:"action,omitempty"`
}

var ErrUnknownCommand = errors.New("unknown command")

// Handle applies one command. reply reaches only the sender; everything the
// timeline does is broadcast through the observer.
func (s *Server) Handle(ctx context.Context, cmd Command, reply func(Event)) error {
	switch cmd.Type {
	case CmdAdd:
		kind, ok := synth.ParseKind(cmd.Kind)
		if !ok {
			return errors.Errorf("unknown instrument %q", cmd.Kind)
		}
		s.tl.AddClip(kind, cmd.Name)
	case CmdRemove:
		s.tl.RemoveClip(cmd.ID)
	case CmdMove:
		if cmd.Offset != nil {
			s.tl.RepositionClip(cmd.ID, *cmd.Offset)
		} else {
			s.tl.MoveClipBy(cmd.ID, timeline.PixelsToFraction(cmd.Px, cmd.WidthPx))
		}
	case CmdGain:
		s.tl.SetClipGain(cmd.ID, cmd.Value)
	case CmdPlay:
		return s.tl.Play()
	case CmdStop:
		s.tl.Stop()
	case CmdRate:
		s.tl.SetPlaybackRate(cmd.Value)
	case CmdMaster:
		s.tl.SetMasterGain(cmd.Value)
	case CmdPreset:
		_, err := presets.Apply(s.tl, cmd.Genre)
		return err
	case CmdChat:
		s.chat(ctx, cmd.Text, reply)
	case CmdRecord:
		return s.record(cmd.Action)
	default:
		return errors.Wrapf(ErrUnknownCommand, "%q", cmd.Type)
	}
	return nil
}

func (s *Server) chat(ctx context.Context, text string, reply func(Event)) {
	var answer assistant.Reply
	if s.asker == nil {
		answer = assistant.Reply{Action: assistant.ActionNone, Text: assistant.OfflineMessage}
	} else {
		answer = s.asker.Ask(ctx, text)
	}
	assistant.Apply(answer, s.tl)
	if answer.Text != "" {
		reply(Event{Type: EventChat, Text: answer.Text})
	}
}

func (s *Server) record(action string) error {
	if s.rec == nil {
		return capture.ErrDeviceUnavailable
	}
	switch action {
	case "start":
		return s.rec.Start()
	case "stop":
		take, err := s.rec.Stop()
		if err != nil {
			return err
		}
		buf := take.Finalize(s.tl.SampleRate())
		if buf.Len() == 0 {
			return errors.New("nothing was recorded")
		}
		s.tl.AddBuffer(synth.MicrophoneCapture, "recording", buf)
		return nil
	}
	return errors.Errorf("unknown record action %q", action)
}
