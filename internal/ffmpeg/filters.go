package ffmpeg

import "fmt"

// FilterBuilder helps construct complex ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Crop adds a crop filter
func (fb *FilterBuilder) Crop(width, height, x, y int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y))
	return fb
}

// EvenDimensions rounds the frame down to even width and height for yuv420p encoders
func (fb *FilterBuilder) EvenDimensions() *FilterBuilder {
	fb.filters = append(fb.filters, "scale=trunc(iw/2)*2:trunc(ih/2)*2")
	return fb
}

// Subtitles burns the given subtitle file into the frame
func (fb *FilterBuilder) Subtitles(path string) *FilterBuilder {
	if path == "" {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("subtitles=%s", escapeSubtitlePath(path)))
	return fb
}

// BuildAll returns all filters as a slice
func (fb *FilterBuilder) BuildAll() []string {
	out := make([]string, len(fb.filters))
	copy(out, fb.filters)
	return out
}
