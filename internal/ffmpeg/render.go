package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kikiluvv/bytesize/pkg/util"
)

// Render performs a full video render with all specified options
func (e *Executor) Render(ctx context.Context, opts RenderOptions) error {
	if err := validateRenderOptions(opts); err != nil {
		return fmt.Errorf("invalid render options: %w", err)
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Msg("starting render")

	args := []string{"-i", opts.Input}

	// Build filter chain
	filters := buildFilterChain(opts)
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}

	// Video codec settings
	videoCodec := opts.VideoCodec
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	args = append(args, "-c:v", videoCodec)

	// Quality settings
	crf := opts.CRF
	if crf == 0 {
		crf = e.crf
	}
	args = append(args, "-crf", fmt.Sprintf("%d", crf))

	// Preset
	preset := opts.Preset
	if preset == "" {
		preset = e.preset
	}
	args = append(args, "-preset", preset, "-pix_fmt", DefaultPixFmt)

	// Audio codec settings
	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	args = append(args, "-c:a", audioCodec)

	// Output file
	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("render output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("render completed")
	return nil
}

// ApplySubtitles burns subtitles into the video
func (e *Executor) ApplySubtitles(ctx context.Context, input, subtitles, output string, progressFunc ProgressFunc) error {
	if subtitles == "" {
		return fmt.Errorf("subtitles path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("subtitles", subtitles).
		Str("output", output).
		Msg("applying subtitles")

	err := e.Render(ctx, RenderOptions{
		Input:        input,
		Output:       output,
		Subtitles:    subtitles,
		AudioCodec:   "copy",
		ProgressFunc: progressFunc,
	})
	if err != nil {
		return fmt.Errorf("subtitle application failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("subtitles applied")
	return nil
}

// ExtractFrame writes a single still image taken at the given offset
func (e *Executor) ExtractFrame(ctx context.Context, input, output string, at time.Duration) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", output).
		Dur("at", at).
		Msg("extracting frame")

	args := []string{
		"-ss", util.FormatDuration(at),
		"-i", input,
		"-frames:v", "1",
		output,
	}

	opts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}
	return nil
}

// validateRenderOptions validates the render options
func validateRenderOptions(opts RenderOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.CRF < 0 || opts.CRF > 51 {
		return fmt.Errorf("CRF must be between 0 and 51")
	}
	return nil
}

// buildFilterChain constructs the filter chain from render options
func buildFilterChain(opts RenderOptions) []string {
	filters := append([]string(nil), opts.Filters...)

	// subtitles go last so they are drawn on the final frame
	return append(filters, NewFilterBuilder().Subtitles(opts.Subtitles).BuildAll()...)
}

// escapeSubtitlePath escapes the subtitle file path for ffmpeg filters
func escapeSubtitlePath(path string) string {
	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	// Windows: Convert backslashes to forward slashes
	if runtime.GOOS == "windows" {
		absPath = strings.ReplaceAll(absPath, "\\", "/")
	}

	// Escape special characters for ffmpeg filter
	escaped := strings.ReplaceAll(absPath, ":", "\\:")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")

	return escaped
}
