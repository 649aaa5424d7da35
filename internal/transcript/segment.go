// Package transcript produces timed speech segments and fuses them with
// loudness peaks.
package transcript

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Segment is one timed span of transcribed speech, in source seconds
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcriber turns an analysis audio file into ordered segments
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
}

// ErrNoSegments means the transcriber finished but produced nothing usable
var ErrNoSegments = errors.New("transcript has no usable segments")

// Normalize trims text, drops empty or zero-length segments and orders the
// rest by start time. The input slice is not modified.
func Normalize(in []Segment) []Segment {
	out := make([]Segment, 0, len(in))
	for _, s := range in {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" || s.Start < 0 || s.End <= s.Start {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}
