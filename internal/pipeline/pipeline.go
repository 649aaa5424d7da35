// Package pipeline runs highlight selection over a recording and renders a
// set of reels, one per relevant segment.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/kikiluvv/bytesize/internal/audio"
	"github.com/kikiluvv/bytesize/internal/captions"
	"github.com/kikiluvv/bytesize/internal/config"
	"github.com/kikiluvv/bytesize/internal/ffmpeg"
	"github.com/kikiluvv/bytesize/internal/transcript"
	"github.com/kikiluvv/bytesize/pkg/util"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	manifestName = "manifest.json"
	lockName     = ".bytesize.lock"
	audioName    = "audio.wav"
)

// Pipeline orchestrates analysis and per-window rendering
type Pipeline struct {
	logger      zerolog.Logger
	codec       MediaCodec
	transcriber transcript.Transcriber
	opts        Options
}

// New creates a pipeline. Zero options fall back to built-in defaults.
func New(logger zerolog.Logger, codec MediaCodec, tr transcript.Transcriber, opts Options) *Pipeline {
	def := config.Default()
	if opts.Highlights == (config.HighlightConfig{}) {
		opts.Highlights = def.Highlights
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = def.Timeouts.Transcribe.Std()
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = def.Timeouts.Render.Std()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = def.OutputDir
	}
	if opts.Style.FontSize == 0 {
		opts.Style = captions.DefaultStyle()
	}

	return &Pipeline{
		logger:      logger.With().Str("component", "pipeline").Logger(),
		codec:       codec,
		transcriber: tr,
		opts:        opts,
	}
}

// Analyze runs the sequential fusion stage only: probe, audio extraction,
// peak detection, transcription and matching.
func (p *Pipeline) Analyze(ctx context.Context, input string) (*Analysis, error) {
	ws, err := p.workspace()
	if err != nil {
		return nil, err
	}
	defer p.removeWorkspace(ws)

	return p.analyze(ctx, input, ws)
}

func (p *Pipeline) analyze(ctx context.Context, input, ws string) (*Analysis, error) {
	if input == "" {
		return nil, newError(KindInput, "open input", fmt.Errorf("input path cannot be empty"))
	}

	p.logger.Info().Str("input", input).Msg("starting analysis")

	info, err := p.codec.ProbeVideo(ctx, input)
	if err != nil {
		return nil, newError(KindInput, "probe input", err)
	}
	if !info.HasAudio {
		return nil, newError(KindInput, "probe input", ErrNoAudio)
	}
	if info.Duration <= 0 {
		return nil, newError(KindInput, "probe input", fmt.Errorf("media has no duration"))
	}

	p.logger.Info().
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Msg("media metadata extracted")

	audioPath := filepath.Join(ws, audioName)
	if err := p.codec.ExtractAudio(ctx, input, audioPath, ffmpeg.DefaultWhisperFormat(), nil); err != nil {
		return nil, newError(KindInput, "extract audio", err)
	}

	samples, err := audio.LoadWAV(audioPath)
	if err != nil {
		return nil, newError(KindInput, "decode audio", err)
	}

	h := p.opts.Highlights
	peaks, err := audio.DetectPeaks(samples, audio.PeakConfig{
		TopK:        h.TopK,
		MinGap:      h.MinGap,
		FrameLength: h.FrameLength,
		HopLength:   h.HopLength,
	})
	if err != nil {
		return nil, fmt.Errorf("detect peaks: %w", err)
	}

	p.logger.Info().
		Int("peaks", len(peaks)).
		Floats64("at", peaks).
		Msg("loudness peaks detected")

	tctx, cancel := context.WithTimeout(ctx, p.opts.TranscribeTimeout)
	raw, err := p.transcriber.Transcribe(tctx, audioPath)
	cancel()
	if err != nil {
		return nil, newError(KindTranscription, "transcribe", err)
	}

	segments := transcript.Normalize(raw)
	if len(segments) == 0 {
		return nil, newError(KindTranscription, "transcribe", transcript.ErrNoSegments)
	}

	relevant := transcript.Match(segments, peaks, h.Window, h.MinWords)

	p.logger.Info().
		Int("segments", len(segments)).
		Int("relevant", len(relevant)).
		Msg("analysis complete")

	return &Analysis{
		Input:         input,
		MediaDuration: info.Duration.Seconds(),
		Width:         info.Width,
		Height:        info.Height,
		HasVideo:      info.HasVideo,
		Peaks:         peaks,
		Segments:      segments,
		Relevant:      relevant,
	}, nil
}

// Run analyses input and renders one reel per relevant segment into
// <output_dir>/<input stem>/. A recording with no highlights is not an
// error: the result carries StatusNoHighlights and no reels.
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Input:     input,
		StartedAt: time.Now(),
		Reels:     []Reel{},
	}
	log := p.logger.With().Str("run", res.RunID).Logger()

	ws, err := p.workspace()
	if err != nil {
		return nil, err
	}
	defer p.removeWorkspace(ws)

	analysis, err := p.analyze(ctx, input, ws)
	if err != nil {
		return nil, err
	}
	res.MediaDuration = analysis.MediaDuration
	res.Peaks = analysis.Peaks
	res.Relevant = analysis.Relevant

	if len(analysis.Relevant) == 0 {
		res.Status = StatusNoHighlights
		res.FinishedAt = time.Now()
		log.Info().Msg("no highlights found")
		return res, nil
	}
	if !analysis.HasVideo || analysis.Width <= 0 || analysis.Height <= 0 {
		return nil, newError(KindInput, "probe input", ErrNoVideo)
	}

	outDir := filepath.Join(p.opts.OutputDir, util.Stem(input))
	if err := util.EnsureDir(outDir); err != nil {
		return nil, newError(KindResource, "create output dir", err)
	}
	res.OutputDir = outDir

	lock := flock.New(filepath.Join(outDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, newError(KindResource, "lock output dir", err)
	}
	if !ok {
		return nil, newError(KindResource, "lock output dir", ErrOutputLocked)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("failed to release output lock")
		}
		_ = os.Remove(filepath.Join(outDir, lockName))
	}()

	captionSource := analysis.Segments
	if p.opts.CaptionSource != config.CaptionsFromTranscript {
		captionSource = make([]transcript.Segment, len(analysis.Relevant))
		for i, r := range analysis.Relevant {
			captionSource[i] = r.Segment
		}
	}

	log.Info().
		Int("reels", len(analysis.Relevant)).
		Int("workers", p.opts.Concurrency).
		Str("output", outDir).
		Msg("rendering reels")

	reels := make([]Reel, len(analysis.Relevant))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, rel := range analysis.Relevant {
		g.Go(func() error {
			job := reelJob{
				index:    i + 1,
				input:    input,
				segment:  rel.Segment,
				analysis: analysis,
				captions: captionSource,
				ws:       ws,
				outDir:   outDir,
			}
			reels[i] = p.renderReel(gctx, job)
			if KindOf(reels[i].Err) == KindResource {
				return reels[i].Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("run aborted, removing partial output")
		removeArtifacts(reels)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		removeArtifacts(reels)
		return nil, err
	}

	res.Reels = reels
	res.Status = StatusOK
	if failures := res.Failures(); len(failures) > 0 {
		res.Status = StatusPartial
		log.Warn().Int("failed", len(failures)).Msg("some reels failed")
	}
	res.FinishedAt = time.Now()

	if err := writeManifest(filepath.Join(outDir, manifestName), res); err != nil {
		return res, newError(KindResource, "write manifest", err)
	}

	log.Info().
		Str("status", string(res.Status)).
		Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
		Msg("run complete")

	return res, nil
}

func (p *Pipeline) workspace() (string, error) {
	ws, err := os.MkdirTemp(p.opts.TempDir, "bytesize-")
	if err != nil {
		return "", newError(KindResource, "create workspace", err)
	}
	return ws, nil
}

func (p *Pipeline) removeWorkspace(ws string) {
	if err := os.RemoveAll(ws); err != nil {
		p.logger.Warn().Err(err).Str("workspace", ws).Msg("failed to remove workspace")
	}
}

// removeArtifacts deletes whatever reels were already moved to the output dir
func removeArtifacts(reels []Reel) {
	for _, r := range reels {
		util.CleanupFiles(r.Horizontal, r.Vertical, r.Captioned, r.Poster)
	}
}
