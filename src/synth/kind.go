package synth

import "strings"

// Kind is the closed set of instruments the synthesizer knows about
type Kind int

const (
	Kick Kind = iota
	Snare
	HiHat
	SubBass
	Bass
	Piano
	Guitar
	Flute
	Saxophone
	Harp
	Choir
	LofiNoise
	TechnoLead
	SynthPad
	Strings
	Bell
	// MicrophoneCapture marks recorded clips, it has no recipe
	MicrophoneCapture

	kindCount
)

var kindNames = [kindCount]string{
	Kick:              "kick",
	Snare:             "snare",
	HiHat:             "hihat",
	SubBass:           "sub-bass",
	Bass:              "bass",
	Piano:             "piano",
	Guitar:            "guitar",
	Flute:             "flute",
	Saxophone:         "saxophone",
	Harp:              "harp",
	Choir:             "choir",
	LofiNoise:         "lofi-noise",
	TechnoLead:        "techno-lead",
	SynthPad:          "synth-pad",
	Strings:           "strings",
	Bell:              "bell",
	MicrophoneCapture: "microphone-capture",
}

var aliases = map[string]Kind{
	"808":      SubBass,
	"subbass":  SubBass,
	"sub":      SubBass,
	"hi-hat":   HiHat,
	"hat":      HiHat,
	"sax":      Saxophone,
	"lofi":     LofiNoise,
	"techno":   TechnoLead,
	"lead":     TechnoLead,
	"pad":      SynthPad,
	"synth":    SynthPad,
	"string":   Strings,
	"mic":      MicrophoneCapture,
	"captured": MicrophoneCapture,
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the enumerated kinds
func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

// ParseKind accepts canonical names and a few aliases, ignoring case
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	k, ok := aliases[s]
	return k, ok
}

// Kinds lists every kind that has a synthesis recipe, in declaration order
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		if _, ok := recipes[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
