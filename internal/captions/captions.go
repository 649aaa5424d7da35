// Package captions turns window-local transcript segments into timed cues
// and renders them as an ASS document for ffmpeg's subtitles filter.
package captions

import (
	"github.com/kikiluvv/bytesize/internal/clips"
)

// Cue is one caption on the window clock, in seconds
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns how long the cue is on screen
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// BuildCues emits one cue per local segment, in order. Timing and text are
// copied as-is: overlapping cues are not resolved and ends past the window
// are kept, since the burned-in overlay stops with the clip anyway.
func BuildCues(local []clips.LocalSegment) []Cue {
	cues := make([]Cue, 0, len(local))
	for _, s := range local {
		cues = append(cues, Cue{Start: s.Start, End: s.End, Text: s.Text})
	}
	return cues
}
