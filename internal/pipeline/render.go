package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kikiluvv/bytesize/internal/captions"
	"github.com/kikiluvv/bytesize/internal/clips"
	"github.com/kikiluvv/bytesize/internal/ffmpeg"
	"github.com/kikiluvv/bytesize/internal/reframe"
	"github.com/kikiluvv/bytesize/internal/transcript"
	"github.com/kikiluvv/bytesize/pkg/util"
)

type reelJob struct {
	index    int
	input    string
	segment  transcript.Segment
	analysis *Analysis
	captions []transcript.Segment
	ws       string
	outDir   string
}

// artifact names inside both the workspace and the output dir
func horizontalName(i int) string { return fmt.Sprintf("reel_%d.mp4", i) }
func verticalName(i int) string   { return fmt.Sprintf("reel_%d_vertical.mp4", i) }
func captionedName(i int) string  { return fmt.Sprintf("reel_%d_vertical_captioned.mp4", i) }
func posterName(i int) string     { return fmt.Sprintf("reel_%d_poster.jpg", i) }

// renderReel builds one window and its three framings. Failures are recorded
// on the returned reel rather than returned, so siblings keep going.
func (p *Pipeline) renderReel(ctx context.Context, job reelJob) Reel {
	a := job.analysis
	window, local := clips.BuildWindow(job.segment, p.opts.Highlights.ClipDuration, a.MediaDuration, job.captions)
	geometry := reframe.Compute(a.Width, a.Height, p.opts.Aspect, p.opts.Zoom)

	reel := Reel{
		Index:    job.index,
		Window:   window,
		Geometry: geometry,
		Cues:     captions.BuildCues(local),
	}

	log := p.logger.With().Int("reel", job.index).Logger()
	log.Info().
		Float64("start", window.Start).
		Float64("end", window.End).
		Int("cues", len(reel.Cues)).
		Msg("rendering reel")

	if err := ctx.Err(); err != nil {
		return p.fail(reel, "render reel", err)
	}
	if window.Duration() <= 0 {
		return p.fail(reel, "build window", fmt.Errorf("empty window at %.2fs", window.Start))
	}

	rctx, cancel := context.WithTimeout(ctx, p.opts.RenderTimeout)
	defer cancel()

	stage := func(name string) string { return filepath.Join(job.ws, name) }
	horizontal := stage(horizontalName(job.index))
	vertical := stage(verticalName(job.index))
	captioned := stage(captionedName(job.index))

	err := p.codec.ExtractClip(rctx, job.input, ffmpeg.ClipOptions{
		Start:  util.Seconds(window.Start),
		End:    util.Seconds(window.End),
		Output: horizontal,
	})
	if err != nil {
		return p.fail(reel, "render horizontal", err)
	}

	err = p.codec.Render(rctx, ffmpeg.RenderOptions{
		Input:   horizontal,
		Output:  vertical,
		Filters: geometry.Filters(),
	})
	if err != nil {
		return p.fail(reel, "render vertical", err)
	}

	if len(reel.Cues) > 0 {
		out := geometry.Output()
		assPath := stage(fmt.Sprintf("reel_%d.ass", job.index))
		if err := captions.WriteASSFile(assPath, reel.Cues, p.opts.Style, out.W&^1, out.H&^1); err != nil {
			return p.fail(reel, "write captions", err)
		}
		err = p.codec.ApplySubtitles(rctx, vertical, assPath, captioned, nil)
	} else {
		err = p.codec.Render(rctx, ffmpeg.RenderOptions{Input: vertical, Output: captioned})
	}
	if err != nil {
		return p.fail(reel, "render captioned", err)
	}

	var poster string
	if p.opts.Poster {
		poster, err = p.renderPoster(rctx, job, window, geometry)
		if err != nil {
			if util.IsOutOfSpace(err) {
				return p.fail(reel, "render poster", err)
			}
			log.Warn().Err(err).Msg("poster skipped")
		}
	}

	// move into place only once every framing rendered
	type move struct {
		src string
		dst *string
	}
	moves := []move{
		{horizontal, &reel.Horizontal},
		{vertical, &reel.Vertical},
		{captioned, &reel.Captioned},
	}
	if poster != "" {
		moves = append(moves, move{poster, &reel.Poster})
	}
	for _, m := range moves {
		dst := filepath.Join(job.outDir, filepath.Base(m.src))
		if err := util.MoveFile(m.src, dst); err != nil {
			util.CleanupFiles(reel.Horizontal, reel.Vertical, reel.Captioned, reel.Poster)
			reel.Horizontal, reel.Vertical, reel.Captioned, reel.Poster = "", "", "", ""
			return p.fail(reel, "publish reel", err)
		}
		*m.dst = dst
	}

	log.Info().Str("captioned", reel.Captioned).Msg("reel complete")
	return reel
}

// renderPoster grabs the frame at the window midpoint and reframes it in-process
func (p *Pipeline) renderPoster(ctx context.Context, job reelJob, w clips.Window, g reframe.Geometry) (string, error) {
	framePath := filepath.Join(job.ws, fmt.Sprintf("reel_%d_frame.png", job.index))
	mid := w.Start + w.Duration()/2
	if err := p.codec.ExtractFrame(ctx, job.input, framePath, util.Seconds(mid)); err != nil {
		return "", err
	}

	frame, err := reframe.LoadFrame(framePath)
	if err != nil {
		return "", err
	}
	img, err := reframe.Poster(frame, g)
	if err != nil {
		return "", err
	}

	out := filepath.Join(job.ws, posterName(job.index))
	if err := reframe.SavePoster(out, img); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Pipeline) fail(reel Reel, op string, err error) Reel {
	reel.Err = newError(KindRender, fmt.Sprintf("reel %d: %s", reel.Index, op), err)
	reel.Error = reel.Err.Error()
	p.logger.Error().Err(err).Int("reel", reel.Index).Str("op", op).Msg("reel failed")
	return reel
}
