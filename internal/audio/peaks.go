// Package audio finds loudness peaks in decoded analysis audio.
package audio

import (
	"fmt"
	"math"
	"sort"
)

// Default RMS framing, in samples
const (
	DefaultFrameLength = 2048
	DefaultHopLength   = 512
)

// Samples is a normalized mono stream in [-1, 1]
type Samples struct {
	Rate int
	Data []float32
}

// Duration returns the stream length in seconds
func (s Samples) Duration() float64 {
	if s.Rate <= 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.Rate)
}

// PeakConfig controls peak selection
type PeakConfig struct {
	TopK        int
	MinGap      float64 // seconds; accepted peaks are strictly further apart than this
	FrameLength int
	HopLength   int
}

// DefaultPeakConfig returns the stock framing with top 5 peaks spaced 5s apart
func DefaultPeakConfig() PeakConfig {
	return PeakConfig{
		TopK:        5,
		MinGap:      5,
		FrameLength: DefaultFrameLength,
		HopLength:   DefaultHopLength,
	}
}

// DetectPeaks returns up to TopK loudness peak times in seconds, ascending.
//
// Frames are centered on multiples of the hop with zero padding at both
// ends, so frame i starts at i*hop/rate seconds. Frames are visited loudest
// first, ties in frame order, and a frame is kept only when it is more than
// MinGap seconds from every frame kept so far.
func DetectPeaks(s Samples, cfg PeakConfig) ([]float64, error) {
	if cfg.FrameLength == 0 {
		cfg.FrameLength = DefaultFrameLength
	}
	if cfg.HopLength == 0 {
		cfg.HopLength = DefaultHopLength
	}
	if cfg.FrameLength < 0 || cfg.HopLength < 0 {
		return nil, fmt.Errorf("invalid framing: frame_length=%d hop_length=%d", cfg.FrameLength, cfg.HopLength)
	}
	if s.Rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", s.Rate)
	}

	peaks := []float64{}
	if len(s.Data) == 0 || cfg.TopK <= 0 {
		return peaks, nil
	}

	energy := FrameRMS(s.Data, cfg.FrameLength, cfg.HopLength)

	order := make([]int, len(energy))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return energy[order[a]] > energy[order[b]]
	})

	for _, idx := range order {
		if len(peaks) >= cfg.TopK {
			break
		}
		t := FrameTime(idx, cfg.HopLength, s.Rate)
		if spaced(t, peaks, cfg.MinGap) {
			peaks = append(peaks, t)
		}
	}

	sort.Float64s(peaks)
	return peaks, nil
}

func spaced(t float64, accepted []float64, gap float64) bool {
	for _, p := range accepted {
		if math.Abs(t-p) <= gap {
			return false
		}
	}
	return true
}

// FrameTime maps a frame index to seconds
func FrameTime(idx, hop, rate int) float64 {
	return float64(idx) * float64(hop) / float64(rate)
}

// FrameRMS computes centered, zero-padded RMS energy per frame.
// It yields 1 + len(data)/hop frames.
func FrameRMS(data []float32, frameLength, hop int) []float64 {
	if len(data) == 0 || frameLength <= 0 || hop <= 0 {
		return nil
	}

	n := len(data)
	half := frameLength / 2
	frames := 1 + n/hop
	out := make([]float64, frames)

	for i := 0; i < frames; i++ {
		start := i*hop - half
		end := start + frameLength
		lo, hi := start, end
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}

		var sum float64
		for _, v := range data[lo:hi] {
			f := float64(v)
			sum += f * f
		}
		// Padding contributes zeros, so the divisor stays the full frame length.
		out[i] = math.Sqrt(sum / float64(frameLength))
	}
	return out
}
