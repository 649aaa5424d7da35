package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kikiluvv/bytesize/pkg/util"
	"github.com/rs/zerolog"
)

// runFunc executes an external command and returns its combined output
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// splitCommand allows binaries like "python -m whisper"
func splitCommand(cmd, fallback string) (string, []string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return fallback, nil
	}
	return fields[0], fields[1:]
}

// WhisperOptions configures the openai-whisper command line
type WhisperOptions struct {
	Binary   string // default "whisper"
	Model    string // tiny, base, small, medium, large
	Language string
	Threads  int
}

// Whisper runs the openai-whisper CLI and reads its JSON output
type Whisper struct {
	logger zerolog.Logger
	opts   WhisperOptions
	run    runFunc
}

// NewWhisper creates a Whisper transcriber
func NewWhisper(logger zerolog.Logger, opts WhisperOptions) *Whisper {
	if opts.Model == "" {
		opts.Model = "base"
	}
	return &Whisper{
		logger: logger.With().Str("component", "whisper").Logger(),
		opts:   opts,
		run:    execRun,
	}
}

// whisperOutput matches the JSON written by --output_format json
type whisperOutput struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Transcribe implements Transcriber
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	absAudio, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	outDir, err := os.MkdirTemp(filepath.Dir(absAudio), "whisper-")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	name, prefix := splitCommand(w.opts.Binary, "whisper")
	args := append(prefix,
		absAudio,
		"--model", w.opts.Model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False",
		"--verbose", "False",
	)
	if w.opts.Language != "" {
		args = append(args, "--language", w.opts.Language)
	}
	if w.opts.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(w.opts.Threads))
	}

	w.logger.Info().
		Str("audio", absAudio).
		Str("model", w.opts.Model).
		Msg("starting transcription")

	if out, err := w.run(ctx, name, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper transcription failed: %w: %s", err, lastLine(out))
	}

	jsonPath := filepath.Join(outDir, util.Stem(absAudio)+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var result whisperOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	w.logger.Info().
		Int("segments", len(result.Segments)).
		Str("language", result.Language).
		Msg("transcription complete")

	return result.Segments, nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
