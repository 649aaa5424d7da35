// Package reframe converts landscape frames to a portrait aspect through a
// centred crop, a uniform zoom and a second centred crop.
package reframe

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kikiluvv/bytesize/internal/ffmpeg"
)

// Ratio is a width:height aspect ratio
type Ratio struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// Portrait is the default 9:16 output ratio
var Portrait = Ratio{Num: 9, Den: 16}

func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.Num, r.Den)
}

// Float returns num/den
func (r Ratio) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

// ParseRatio parses "W:H" (or "W/H") into a Ratio
func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return Ratio{}, fmt.Errorf("invalid aspect ratio %q", s)
	}
	num, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Ratio{}, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
	}
	den, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Ratio{}, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
	}
	if num <= 0 || den <= 0 {
		return Ratio{}, fmt.Errorf("invalid aspect ratio %q: both sides must be positive", s)
	}
	return Ratio{Num: num, Den: den}, nil
}

// Size is a frame size in pixels
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Rect is a crop rectangle: size plus top-left offset
type Rect struct {
	W int `json:"w"`
	H int `json:"h"`
	X int `json:"x"`
	Y int `json:"y"`
}

// Geometry describes how one source frame size maps to the output frame
type Geometry struct {
	Source      Size    `json:"source"`
	InitialCrop Rect    `json:"initial_crop"`
	Zoom        float64 `json:"zoom"`
	Zoomed      Size    `json:"zoomed"`
	FinalCrop   Rect    `json:"final_crop"`
}

// Output returns the final frame size before even-rounding
func (g Geometry) Output() Size {
	return Size{W: g.FinalCrop.W, H: g.FinalCrop.H}
}

// Compute derives the reframe geometry for a source frame. The output matches
// ratio within one pixel when the source is at least as wide as ratio; a
// narrower source keeps its full width and is never upscaled to fit.
func Compute(sourceW, sourceH int, ratio Ratio, zoom float64) Geometry {
	if ratio.Num <= 0 || ratio.Den <= 0 {
		ratio = Portrait
	}
	if zoom <= 0 {
		zoom = 1
	}

	targetW := round(float64(sourceH) * float64(ratio.Num) / float64(ratio.Den))
	targetW = clamp(targetW, 0, sourceW)
	initial := Rect{
		W: targetW,
		H: sourceH,
		X: (sourceW - targetW) / 2,
		Y: 0,
	}

	zoomed := Size{
		W: round(float64(initial.W) * zoom),
		H: round(float64(initial.H) * zoom),
	}

	finalW := zoomed.W
	finalH := round(float64(zoomed.W) * float64(ratio.Den) / float64(ratio.Num))
	if finalH > zoomed.H {
		// rounding in stage one can leave the zoomed frame a pixel short
		finalH = zoomed.H
		finalW = clamp(round(float64(finalH)*float64(ratio.Num)/float64(ratio.Den)), 0, zoomed.W)
	}
	finalH = clamp(finalH, 0, zoomed.H)
	final := Rect{
		W: finalW,
		H: finalH,
		X: (zoomed.W - finalW) / 2,
		Y: (zoomed.H - finalH) / 2,
	}

	return Geometry{
		Source:      Size{W: sourceW, H: sourceH},
		InitialCrop: initial,
		Zoom:        zoom,
		Zoomed:      zoomed,
		FinalCrop:   final,
	}
}

// Filters returns the ffmpeg video filter chain for the geometry
func (g Geometry) Filters() []string {
	return ffmpeg.NewFilterBuilder().
		Crop(g.InitialCrop.W, g.InitialCrop.H, g.InitialCrop.X, g.InitialCrop.Y).
		Scale(g.Zoomed.W, g.Zoomed.H).
		Crop(g.FinalCrop.W, g.FinalCrop.H, g.FinalCrop.X, g.FinalCrop.Y).
		EvenDimensions().
		BuildAll()
}

func round(v float64) int {
	return int(math.Round(v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
