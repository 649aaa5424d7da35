// Package clips carves fixed-length windows around relevant speech.
package clips

import (
	"math"

	"github.com/kikiluvv/bytesize/internal/transcript"
)

// Window is a span of the source media, in source seconds
type Window struct {
	Start  float64            `json:"start"`
	End    float64            `json:"end"`
	Source transcript.Segment `json:"source"`
}

// Duration returns the window length in seconds
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// LocalSegment is a transcript segment re-based onto the window clock
type LocalSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// BuildWindow centres a clipDuration window on seg and clamps it to the
// media. Clamping at zero keeps the full duration; clamping at the media end
// shortens the window. The window is never shifted back after clamping.
//
// A segment from all belongs to the window when its start lies within
// [start, end]. Ends are not checked, so local segments may run past the
// window duration.
func BuildWindow(seg transcript.Segment, clipDuration, mediaDuration float64, all []transcript.Segment) (Window, []LocalSegment) {
	center := (seg.Start + seg.End) / 2
	start := math.Max(0, center-clipDuration/2)
	end := math.Min(mediaDuration, start+clipDuration)
	if end < start {
		end = start
	}

	w := Window{Start: start, End: end, Source: seg}

	local := make([]LocalSegment, 0)
	for _, s := range all {
		if s.Start < start || s.Start > end {
			continue
		}
		local = append(local, LocalSegment{
			Start: s.Start - start,
			End:   s.End - start,
			Text:  s.Text,
		})
	}

	return w, local
}
