package streams

import (
	"github.com/faiface/beep"
	"tjweldon/beatmaker/src/util"
)

var logger = util.Logger{}.Ctx("streams")

// FStreamer is a Streamer that also knows its Format
type FStreamer struct {
	beep.Streamer
	Format beep.Format
}

// F is a convenience function for creating FStreamers
func F(f beep.Format, s beep.Streamer) *FStreamer {
	return &FStreamer{s, f}
}

// StreamBuf hands out fresh streamers over one immutable buffer, so any
// number of voices can play the same clip
type StreamBuf struct {
	buf *beep.Buffer
}

// MakeStreamBuf returns a StreamBuf that plays the given sample
func MakeStreamBuf(buf *beep.Buffer) StreamBuf {
	return StreamBuf{buf: buf}
}

// All returns a beep.Streamer that plays the whole buffer
func (sb StreamBuf) All() *FStreamer {
	if sb.buf == nil {
		return F(beep.Format{}, beep.Silence(0))
	}
	return F(sb.buf.Format(), sb.buf.Streamer(0, sb.buf.Len()))
}
