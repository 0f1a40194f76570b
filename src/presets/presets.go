// Package presets holds the genre starters: each is a handful of instrument
// step patterns laid out across the timeline in one go.
package presets

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/synth"
	"tjweldon/beatmaker/src/timeline"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{Volume: util.Normal}.Ctx("presets")

// ErrUnknown is returned for a genre with no preset
var ErrUnknown = errors.New("unknown preset")

// Track is one instrument and the steps it sounds on. A pattern of n steps
// divides the timeline into n equal slots.
type Track struct {
	Kind synth.Kind
	Seq  []bool
	Gain float64
}

// Preset is a named set of tracks
type Preset struct {
	Name   string
	Tracks []Track
}

const x, o = true, false

var presets = map[string]Preset{
	"hip-hop": {
		Name: "hip-hop",
		Tracks: []Track{
			// boom bap
			{Kind: synth.Kick, Seq: []bool{x, o, o, x, o}},
			{Kind: synth.Snare, Seq: []bool{o, o, x, o, o}},
			{Kind: synth.HiHat, Seq: []bool{x, x, x, x, x}, Gain: 0.5},
			{Kind: synth.Bass, Seq: []bool{x, o}},
		},
	},
	"lofi": {
		Name: "lofi",
		Tracks: []Track{
			// crackle under everything
			{Kind: synth.LofiNoise, Seq: []bool{x}},
			{Kind: synth.Piano, Seq: []bool{x, o, x, o}, Gain: 0.7},
			{Kind: synth.Kick, Seq: []bool{x, o, o, o}},
			{Kind: synth.Snare, Seq: []bool{o, o, x, o}, Gain: 0.6},
		},
	},
	"techno": {
		Name: "techno",
		Tracks: []Track{
			// 4 to the floor kick drum
			{Kind: synth.Kick, Seq: []bool{x, x, x, x, x}},
			// off beat hats
			{Kind: synth.HiHat, Seq: []bool{o, x, o, x}, Gain: 0.6},
			{Kind: synth.TechnoLead, Seq: []bool{x, o, o, o}, Gain: 0.5},
		},
	},
	"trap": {
		Name: "trap",
		Tracks: []Track{
			{Kind: synth.SubBass, Seq: []bool{x, o, o, x}},
			{Kind: synth.HiHat, Seq: []bool{x, x, x, x, x}, Gain: 0.4},
			{Kind: synth.Snare, Seq: []bool{o, o, x, o}},
		},
	},
	"ambient": {
		Name: "ambient",
		Tracks: []Track{
			{Kind: synth.SynthPad, Seq: []bool{x, o}},
			{Kind: synth.Strings, Seq: []bool{o, x}, Gain: 0.8},
			{Kind: synth.Bell, Seq: []bool{o, o, x, o}, Gain: 0.5},
			{Kind: synth.Choir, Seq: []bool{o, o, o, x}, Gain: 0.6},
		},
	},
	"jazz": {
		Name: "jazz",
		Tracks: []Track{
			// walking bass
			{Kind: synth.Bass, Seq: []bool{x, x, x, x}},
			{Kind: synth.Piano, Seq: []bool{o, x, o, x}, Gain: 0.7},
			{Kind: synth.Saxophone, Seq: []bool{x, o}, Gain: 0.8},
			{Kind: synth.HiHat, Seq: []bool{x, o, x, o}, Gain: 0.4},
		},
	},
}

var aliases = map[string]string{
	"hiphop":   "hip-hop",
	"hip hop":  "hip-hop",
	"lo-fi":    "lofi",
	"lo fi":    "lofi",
	"chill":    "lofi",
	"house":    "techno",
	"808":      "trap",
	"chillout": "ambient",
}

// Lookup finds a preset by genre, ignoring case and common spellings
func Lookup(genre string) (Preset, bool) {
	key := strings.ToLower(strings.TrimSpace(genre))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	p, ok := presets[key]
	return p, ok
}

// Names lists the genres in alphabetical order
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clips expands the tracks into clip specs, track by track and step by
// step, each placed at the start of its slot
func (p Preset) Clips() []timeline.ClipSpec {
	var specs []timeline.ClipSpec
	for _, track := range p.Tracks {
		for i, on := range track.Seq {
			if !on {
				continue
			}
			specs = append(specs, timeline.ClipSpec{
				Kind:   track.Kind,
				Name:   track.Kind.String(),
				Offset: float64(i) / float64(len(track.Seq)),
				Gain:   track.Gain,
			})
		}
	}
	return specs
}

// Apply inserts the genre's clips into tl as one batch
func Apply(tl *timeline.Timeline, genre string) ([]timeline.ClipID, error) {
	p, ok := Lookup(genre)
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "%q", genre)
	}
	ids := tl.AddClips(p.Clips()...)
	logger.Ctx("Apply").Log(p.Name, "added", len(ids), "clips")
	return ids, nil
}
