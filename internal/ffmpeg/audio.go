package ffmpeg

import (
	"context"
	"fmt"
)

// AudioFormat defines audio extraction format options
type AudioFormat struct {
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    string
}

// DefaultWhisperFormat returns the canonical analysis format: 16 kHz mono s16le WAV
func DefaultWhisperFormat() AudioFormat {
	return AudioFormat{
		Codec:      "pcm_s16le",
		SampleRate: 16000,
		Channels:   1, // mono
	}
}

// ExtractAudio extracts audio stream to a separate file
func (e *Executor) ExtractAudio(ctx context.Context, input, output string, format AudioFormat, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("codec", format.Codec).
		Int("sample_rate", format.SampleRate).
		Msg("extracting audio")

	args := []string{
		"-i", input,
		"-vn", // no video
		"-acodec", format.Codec,
		"-ar", fmt.Sprintf("%d", format.SampleRate),
		"-ac", fmt.Sprintf("%d", format.Channels),
	}

	if format.Bitrate != "" {
		args = append(args, "-b:a", format.Bitrate)
	}

	args = append(args, output)

	opts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("audio extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}
