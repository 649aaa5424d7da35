package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// WhisperCPPOptions configures the whisper.cpp command line
type WhisperCPPOptions struct {
	Binary    string // default "whisper-cli"
	ModelPath string
	Language  string
	Threads   int
}

// WhisperCPP runs whisper.cpp and reads the SRT it writes
type WhisperCPP struct {
	logger zerolog.Logger
	opts   WhisperCPPOptions
	run    runFunc
}

// NewWhisperCPP creates a whisper.cpp transcriber
func NewWhisperCPP(logger zerolog.Logger, opts WhisperCPPOptions) (*WhisperCPP, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("whisper.cpp requires transcriber.model_path")
	}
	return &WhisperCPP{
		logger: logger.With().Str("component", "whisper-cpp").Logger(),
		opts:   opts,
		run:    execRun,
	}, nil
}

// Transcribe implements Transcriber
func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	outDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whispercpp-")
	if err != nil {
		return nil, fmt.Errorf("create whisper.cpp output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	// whisper.cpp appends .srt to the output prefix
	outputPrefix := filepath.Join(outDir, "transcript")

	name, prefix := splitCommand(w.opts.Binary, "whisper-cli")
	args := append(prefix,
		"-m", w.opts.ModelPath,
		"-f", audioPath,
		"-osrt",
		"--output-file", outputPrefix,
	)
	if w.opts.Language != "" {
		args = append(args, "-l", w.opts.Language)
	}
	if w.opts.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.opts.Threads))
	}

	w.logger.Info().
		Str("audio", audioPath).
		Str("model", w.opts.ModelPath).
		Int("threads", w.opts.Threads).
		Msg("starting transcription")

	if out, err := w.run(ctx, name, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper.cpp transcription failed: %w: %s", err, lastLine(out))
	}

	segments, err := ReadSRT(outputPrefix + ".srt")
	if err != nil {
		return nil, err
	}

	w.logger.Info().Int("segments", len(segments)).Msg("transcription complete")
	return segments, nil
}
