package util

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Map[T, U any](mapFunc func(T) U, s []T) (out []U) {
	for _, t := range s {
		out = append(out, mapFunc(t))
	}

	return out
}

type LogVolume int

const (
	Silent LogVolume = 1 << iota
	Quieter
	Quiet
	Normal
	Loud
	Louder
	Loudest
)

var volumeNames = map[LogVolume]string{
	Silent:  "Silent",
	Quieter: "Quieter",
	Quiet:   "Quiet",
	Normal:  "Normal",
	Loud:    "Loud",
	Louder:  "Louder",
	Loudest: "Loudest",
}

func (lv LogVolume) String() string {
	if name, ok := volumeNames[lv]; ok {
		return name
	}
	return fmt.Sprintf("%d", lv)
}

// ParseLogVolume maps a level name (case-insensitive) to a LogVolume
func ParseLogVolume(name string) (LogVolume, error) {
	for lv, n := range volumeNames {
		if strings.EqualFold(n, name) {
			return lv, nil
		}
	}
	return Silent, fmt.Errorf("unknown log level %q", name)
}

// initialise the log level as silent by default
var filterBelow = func() *atomic.Int64 {
	v := new(atomic.Int64)
	v.Store(int64(Silent))
	return v
}()

// FilterBelow sets the log level below which messages will not be printed
func (lv LogVolume) FilterBelow() LogVolume {
	filterBelow.Store(int64(lv))
	return lv
}

// Logger is a context-aware logger
type Logger struct {
	prefixes []any
	Volume   LogVolume
}

// Ctx returns a copy of the logger with the given prefix added after all pre-existing prefixes
func (l Logger) Ctx(prefix string) Logger {
	prefixes := make([]any, 0, len(l.prefixes)+1)
	prefixes = append(prefixes, l.prefixes...)
	return Logger{append(prefixes, prefix+":"), l.Volume}
}

// Vol is like a -v option. A Loud logger will print all messages,
// a Silent one will print none
func (l Logger) Vol(v LogVolume) Logger {
	l.Volume = v
	return l
}

// Log shares its interface with log.Println
func (l Logger) Log(msgs ...any) {
	if int64(l.Volume) >= filterBelow.Load() {
		line := append([]any{fmt.Sprintf("[%s]", l.Volume)}, l.prefixes...)
		log.Println(append(line, msgs...)...)
	}
}

// Logf formats like log.Printf, honouring the same volume filter as Log
func (l Logger) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}
