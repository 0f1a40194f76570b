package util

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLogVolume(t *testing.T) {
	tests := []struct {
		in      string
		want    LogVolume
		wantErr bool
	}{
		{"normal", Normal, false},
		{"LOUDEST", Loudest, false},
		{"Silent", Silent, false},
		{"chatty", Silent, true},
	}
	for _, tt := range tests {
		got, err := ParseLogVolume(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogVolume(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogVolume(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersQuietMessages(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	prev := LogVolume(filterBelow.Load())
	defer prev.FilterBelow()

	Normal.FilterBelow()
	l := Logger{Volume: Quiet}.Ctx("test")
	l.Log("hidden")
	l.Vol(Loud).Log("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("quiet message was printed: %q", out)
	}
	if !strings.Contains(out, "[Loud] test: shown") {
		t.Errorf("loud message missing or malformed: %q", out)
	}
}

func TestCtxDoesNotShareBackingArray(t *testing.T) {
	base := Logger{Volume: Loud}.Ctx("a")
	x := base.Ctx("x")
	y := base.Ctx("y")
	if x.prefixes[1] != "x:" || y.prefixes[1] != "y:" {
		t.Errorf("prefixes clobbered: x=%v y=%v", x.prefixes, y.prefixes)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(2, 0, 1) != 1 || Clamp(-1, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Errorf("Clamp out of bounds")
	}
}
