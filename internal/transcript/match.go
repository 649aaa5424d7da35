package transcript

import (
	"math"
	"strings"
)

// RelevantSegment is a segment selected by a loudness peak
type RelevantSegment struct {
	Peak float64 `json:"peak"`
	Segment
}

// WordCount counts whitespace-separated tokens
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Match pairs each peak with the first segment, in transcript order, that
// starts within window seconds of it and has at least minWords words.
//
// Output follows peak order with at most one entry per peak. Segments stay
// eligible after being chosen, so two peaks may select the same segment.
func Match(segments []Segment, peaks []float64, window float64, minWords int) []RelevantSegment {
	out := make([]RelevantSegment, 0, len(peaks))
	for _, peak := range peaks {
		for _, seg := range segments {
			if math.Abs(seg.Start-peak) <= window && WordCount(seg.Text) >= minWords {
				out = append(out, RelevantSegment{Peak: peak, Segment: seg})
				break
			}
		}
	}
	return out
}
