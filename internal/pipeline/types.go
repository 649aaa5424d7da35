package pipeline

import (
	"context"
	"time"

	"github.com/kikiluvv/bytesize/internal/captions"
	"github.com/kikiluvv/bytesize/internal/clips"
	"github.com/kikiluvv/bytesize/internal/config"
	"github.com/kikiluvv/bytesize/internal/ffmpeg"
	"github.com/kikiluvv/bytesize/internal/reframe"
	"github.com/kikiluvv/bytesize/internal/transcript"
)

// MediaCodec is the media toolchain the pipeline drives. *ffmpeg.Executor
// implements it.
type MediaCodec interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat, progress ffmpeg.ProgressFunc) error
	ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	Render(ctx context.Context, opts ffmpeg.RenderOptions) error
	ApplySubtitles(ctx context.Context, input, subtitles, output string, progress ffmpeg.ProgressFunc) error
	ExtractFrame(ctx context.Context, input, output string, at time.Duration) error
}

var _ MediaCodec = (*ffmpeg.Executor)(nil)

// Status summarises a run
type Status string

const (
	StatusOK           Status = "ok"
	StatusPartial      Status = "partial"
	StatusNoHighlights Status = "no_highlights"
)

// Analysis is the output of the sequential fusion stage
type Analysis struct {
	Input         string                       `json:"input"`
	MediaDuration float64                      `json:"media_duration"`
	Width         int                          `json:"width"`
	Height        int                          `json:"height"`
	HasVideo      bool                         `json:"has_video"`
	Peaks         []float64                    `json:"peaks"`
	Segments      []transcript.Segment         `json:"-"`
	Relevant      []transcript.RelevantSegment `json:"relevant"`
}

// Reel is the outcome of one window. Index is 1-based and follows matcher
// order.
type Reel struct {
	Index      int              `json:"index"`
	Window     clips.Window     `json:"window"`
	Geometry   reframe.Geometry `json:"geometry"`
	Cues       []captions.Cue   `json:"cues"`
	Horizontal string           `json:"horizontal,omitempty"`
	Vertical   string           `json:"vertical,omitempty"`
	Captioned  string           `json:"captioned,omitempty"`
	Poster     string           `json:"poster,omitempty"`
	Err        error            `json:"-"`
	Error      string           `json:"error,omitempty"`
}

// Result is everything a run produced
type Result struct {
	RunID         string                       `json:"run_id"`
	Input         string                       `json:"input"`
	OutputDir     string                       `json:"output_dir,omitempty"`
	Status        Status                       `json:"status"`
	MediaDuration float64                      `json:"media_duration"`
	Peaks         []float64                    `json:"peaks"`
	Relevant      []transcript.RelevantSegment `json:"relevant"`
	Reels         []Reel                       `json:"reels"`
	StartedAt     time.Time                    `json:"started_at"`
	FinishedAt    time.Time                    `json:"finished_at"`
}

// Failures maps reel index to its error, for reels that failed
func (r *Result) Failures() map[int]error {
	out := make(map[int]error)
	for _, reel := range r.Reels {
		if reel.Err != nil {
			out[reel.Index] = reel.Err
		}
	}
	return out
}

// Options configures a pipeline
type Options struct {
	Highlights        config.HighlightConfig
	Aspect            reframe.Ratio
	Zoom              float64
	Poster            bool
	Style             captions.Style
	CaptionSource     string
	Concurrency       int
	TranscribeTimeout time.Duration
	RenderTimeout     time.Duration
	OutputDir         string
	TempDir           string
}

// OptionsFromConfig maps application config onto pipeline options
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	ratio, err := reframe.ParseRatio(cfg.Reframe.Aspect)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Highlights:        cfg.Highlights,
		Aspect:            ratio,
		Zoom:              cfg.Reframe.Zoom,
		Poster:            cfg.Reframe.Poster,
		Style:             captions.StyleFromConfig(cfg.Subtitles),
		CaptionSource:     cfg.Subtitles.Source,
		Concurrency:       cfg.Concurrency,
		TranscribeTimeout: cfg.Timeouts.Transcribe.Std(),
		RenderTimeout:     cfg.Timeouts.Render.Std(),
		OutputDir:         cfg.OutputDir,
		TempDir:           cfg.TempDir,
	}, nil
}
