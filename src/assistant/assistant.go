// Package assistant turns free text into timeline actions with the help of
// a language model. Every failure ends in an offline reply, never an error
// for the caller to handle.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/presets"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("assistant")

// OfflineMessage is the reply shown when the model cannot be reached or
// answers with something unusable
const OfflineMessage = "The assistant is offline right now. Try adding a track from the instrument list."

// Action is what a reply asks the timeline to do
type Action string

const (
	ActionNone      Action = "none"
	ActionAddTrack  Action = "add_track"
	ActionAddPreset Action = "add_preset"
)

// Reply is the structured answer to one message
type Reply struct {
	Action Action     `json:"action"`
	Kind   synth.Kind `json:"-"`
	Genre  string     `json:"genre,omitempty"`
	Text   string     `json:"text"`
}

// Generator is the part of Client the assistant needs
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Assistant answers chat messages
type Assistant struct {
	gen Generator
}

func New(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

func systemPrompt() string {
	kinds := util.Map(synth.Kind.String, synth.Kinds())
	return fmt.Sprintf(`You are the assistant inside a beat maker. The user arranges short instrument clips on a timeline.

Answer with ONE JSON object and nothing else:
{"action": "add_track" | "add_preset" | "none", "instrument": "<instrument>", "genre": "<genre>", "reply": "<one or two friendly sentences>"}

Instruments: %s
Genres: %s

Use add_track when the user wants a single instrument, add_preset when they want a whole genre, otherwise none.

/no_think`, strings.Join(kinds, ", "), strings.Join(presets.Names(), ", "))
}

// Ask sends text to the model and interprets its answer
func (a *Assistant) Ask(ctx context.Context, text string) Reply {
	logger := logger.Ctx("Ask")
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Action: ActionNone}
	}
	if a.gen == nil {
		return Reply{Action: ActionNone, Text: OfflineMessage}
	}

	raw, err := a.gen.Generate(ctx, systemPrompt(), text)
	if err != nil {
		logger.Log("generate failed:", err)
		return Reply{Action: ActionNone, Text: OfflineMessage}
	}
	reply, err := Parse(raw)
	if err != nil {
		logger.Log("unusable answer:", err)
		return Reply{Action: ActionNone, Text: OfflineMessage}
	}
	logger.Vol(util.Quiet).Logf("%q -> %s %v %s", text, reply.Action, reply.Kind, reply.Genre)
	return reply
}

type wireReply struct {
	Action     string `json:"action"`
	Instrument string `json:"instrument"`
	Genre      string `json:"genre"`
	Reply      string `json:"reply"`
}

// Parse reads the model's JSON answer. An action naming an instrument or
// genre that does not exist becomes ActionNone with the text kept.
func Parse(raw string) (Reply, error) {
	body := clean(raw)
	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return Reply{}, errors.Errorf("no JSON object in %q", raw)
	}

	var w wireReply
	if err := json.Unmarshal([]byte(body[start:end+1]), &w); err != nil {
		return Reply{}, errors.Wrap(err, "parse reply")
	}

	reply := Reply{Action: ActionNone, Text: strings.TrimSpace(w.Reply)}
	switch Action(strings.ToLower(strings.TrimSpace(w.Action))) {
	case ActionAddTrack:
		if kind, ok := synth.ParseKind(w.Instrument); ok && kind != synth.MicrophoneCapture {
			reply.Action, reply.Kind = ActionAddTrack, kind
		}
	case ActionAddPreset:
		if p, ok := presets.Lookup(w.Genre); ok {
			reply.Action, reply.Genre = ActionAddPreset, p.Name
		}
	}
	return reply, nil
}

// clean strips the wrapping models tend to add around an answer
func clean(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "</think>"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("</think>"):])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Apply carries a reply out on tl and returns the clips it added
func Apply(reply Reply, tl *timeline.Timeline) []timeline.ClipID {
	switch reply.Action {
	case ActionAddTrack:
		return []timeline.ClipID{tl.AddClip(reply.Kind, "")}
	case ActionAddPreset:
		ids, err := presets.Apply(tl, reply.Genre)
		if err != nil {
			logger.Ctx("Apply").Log(err)
		}
		return ids
	}
	return nil
}
