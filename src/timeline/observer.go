package timeline

import (
	"fmt"
	"time"
)

// Observer receives everything the UI needs to draw the timeline. Calls are
// made while the timeline is locked, so an Observer must hand work off
// rather than call back into the Timeline.
type Observer interface {
	ClipAdded(ClipInfo)
	ClipRemoved(ClipID)
	// ClipMoved carries any change to an existing clip, its offset or its gain
	ClipMoved(ClipInfo)
	// Position reports the play head as a fraction of the timeline and the
	// elapsed time as a display string
	Position(fraction float64, elapsed string)
}

// NopObserver ignores every notification
type NopObserver struct{}

func (NopObserver) ClipAdded(ClipInfo) {}
func (NopObserver) ClipRemoved(ClipID) {}
func (NopObserver) ClipMoved(ClipInfo) {}
func (NopObserver) Position(float64, string) {}

// FormatElapsed renders d as mm:ss.t
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	tenths := d / (100 * time.Millisecond)
	return fmt.Sprintf("%02d:%02d.%d", tenths/600, tenths/10%60, tenths%10)
}

// PixelsToFraction maps a horizontal pixel distance on a timeline that is
// widthPx wide onto a fraction of the total duration
func PixelsToFraction(px, widthPx float64) float64 {
	if widthPx <= 0 {
		return 0
	}
	return px / widthPx
}
