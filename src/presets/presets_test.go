package presets

import (
	"testing"

	"github.com/pkg/errors"
	"tjweldon/beatmaker/src/device"
	"tjweldon/beatmaker/src/timeline"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"techno", "techno", true},
		{"  Hip Hop ", "hip-hop", true},
		{"hiphop", "hip-hop", true},
		{"LO-FI", "lofi", true},
		{"house", "techno", true},
		{"polka", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		p, ok := Lookup(tt.in)
		if ok != tt.ok || p.Name != tt.want {
			t.Errorf("Lookup(%q) = %q, %v, want %q, %v", tt.in, p.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != len(presets) {
		t.Fatalf("Names() has %d entries, want %d", len(names), len(presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
	for _, name := range names {
		if p, ok := Lookup(name); !ok || p.Name != name {
			t.Errorf("preset %q is filed under %q", p.Name, name)
		}
	}
}

func TestClipsAreSynthesizableAndInRange(t *testing.T) {
	for _, name := range Names() {
		p, _ := Lookup(name)
		specs := p.Clips()
		if len(specs) == 0 {
			t.Errorf("%s expands to no clips", name)
		}
		for _, s := range specs {
			if !s.Kind.Valid() {
				t.Errorf("%s: invalid kind %v", name, s.Kind)
			}
			if s.Offset < 0 || s.Offset >= 1 {
				t.Errorf("%s: offset %v out of range", name, s.Offset)
			}
		}
	}
}

func TestClipsFollowSteps(t *testing.T) {
	p := Preset{Tracks: []Track{
		{Kind: 0, Seq: []bool{x, o, x, o}},
		{Kind: 1, Seq: []bool{o, x}, Gain: 0.5},
	}}
	specs := p.Clips()
	want := []float64{0, 0.5, 0.5}
	if len(specs) != len(want) {
		t.Fatalf("Clips() = %d specs, want %d", len(specs), len(want))
	}
	for i, s := range specs {
		if s.Offset != want[i] {
			t.Errorf("clip %d offset = %v, want %v", i, s.Offset, want[i])
		}
	}
	if specs[2].Gain != 0.5 {
		t.Errorf("spec 2 gain = %v, want 0.5", specs[2].Gain)
	}
}

func TestApply(t *testing.T) {
	cfg := timeline.DefaultConfig()
	cfg.PollInterval = 0
	tl := timeline.New(device.NewEngine(2000), cfg)

	ids, err := Apply(tl, "techno")
	if err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	p, _ := Lookup("techno")
	if len(ids) != len(p.Clips()) || len(tl.Clips()) != len(ids) {
		t.Errorf("Apply added %d clips, timeline has %d, want %d", len(ids), len(tl.Clips()), len(p.Clips()))
	}

	if _, err := Apply(tl, "polka"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Apply(polka) = %v, want ErrUnknown", err)
	}
	if len(tl.Clips()) != len(ids) {
		t.Errorf("unknown preset changed the timeline")
	}
}
