package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// stderrTail is how many trailing stderr lines are kept for error reports
const stderrTail = 8

// Options locates the ffmpeg binaries and sets shared encoder settings
type Options struct {
	BinaryPath string
	ProbePath  string
	Threads    int
	Preset     string
	CRF        int
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	preset      string
	crf         int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	ffmpegBin := opts.BinaryPath
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	ffprobeBin := opts.ProbePath
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpegBin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (%s): %w", ffmpegBin, err)
	}

	ffprobePath, err := exec.LookPath(ffprobeBin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found (%s): %w", ffprobeBin, err)
	}

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
		preset:      preset,
		crf:         crf,
	}, nil
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	// Build args with threads BEFORE other arguments
	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "info"}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", fmt.Sprintf("%d", e.threads))
	}

	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := &lineTail{max: stderrTail}

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts.ProgressHandler, func(line string) {
			tail.add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
		})
	}()

	// Stream stdout
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ExecError{Err: err, Stderr: tail.String()}
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// ExecError is a failed ffmpeg invocation with the end of its stderr
type ExecError struct {
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg execution failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg execution failed: %v: %s", e.Err, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.Err }

// IsExecError reports whether err came from a non-zero ffmpeg exit
func IsExecError(err error) bool {
	var ee *ExecError
	return errors.As(err, &ee)
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		if logHandler != nil {
			logHandler(line)
		}

		// Parse progress lines
		if strings.HasPrefix(line, "frame=") {
			fmt.Sscanf(line, "frame=%d", &progressData.Frame)
		} else if strings.HasPrefix(line, "fps=") {
			fmt.Sscanf(line, "fps=%f", &progressData.FPS)
		} else if strings.HasPrefix(line, "bitrate=") {
			progressData.Bitrate = valueOf(line)
		} else if strings.HasPrefix(line, "out_time=") {
			progressData.Time = valueOf(line)
		} else if strings.HasPrefix(line, "speed=") {
			progressData.Speed = valueOf(line)
		} else if strings.HasPrefix(line, "progress=") {
			// End of progress block
			if progressHandler != nil && progressData.Frame > 0 {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		}
	}
}

func valueOf(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// lineTail keeps the last max non-progress lines written to it
type lineTail struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func (t *lineTail) add(line string) {
	if line == "" || isProgressLine(line) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, " | ")
}

var progressKeys = []string{
	"frame=", "fps=", "stream_", "bitrate=", "total_size=", "out_time", "dup_frames=",
	"drop_frames=", "speed=", "progress=",
}

func isProgressLine(line string) bool {
	for _, k := range progressKeys {
		if strings.HasPrefix(line, k) {
			return true
		}
	}
	return false
}
