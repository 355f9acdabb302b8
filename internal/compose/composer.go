// Package compose renders the template video with the user's cutout overlaid
// and the fixed audio track mixed in. The renderer itself is ffmpeg; this
// package only builds the filter graph and owns the output-file lifecycle.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"server/internal/domain"
)

// Options is the fixed output geometry and layering configuration. It changes
// by redeploying configuration, never per request.
type Options struct {
	Width        int
	Height       int
	FPS          int
	Duration     float64
	OverlayStart float64
	OverlayX     float64 // normalized, 0 = left edge, 1 = right edge
	OverlayY     float64 // normalized, 0 = top edge, 1 = bottom edge
	OverlayWidth float64 // fraction of output width
	AudioVolume  float64
}

// DefaultOptions is the portrait 480x854 profile the demo ships with.
func DefaultOptions() Options {
	return Options{
		Width:        480,
		Height:       854,
		FPS:          30,
		Duration:     9,
		OverlayStart: 3,
		OverlayX:     0.5,
		OverlayY:     0.35,
		OverlayWidth: 0.55,
		AudioVolume:  0.3,
	}
}

// Composer turns RenderRequests into video files.
type Composer struct {
	opts Options
	log  zerolog.Logger
	run  func(ctx context.Context, cmd *exec.Cmd) error
}

func New(opts Options, log zerolog.Logger) *Composer {
	return &Composer{opts: opts, log: log, run: runCmd}
}

// Render composes one video. Missing inputs fail before the renderer starts;
// renderer failures never leave a partial output file behind.
func (c *Composer) Render(ctx context.Context, req domain.RenderRequest) (domain.RenderedVideo, error) {
	for _, in := range []struct{ label, path string }{
		{"template video", req.TemplatePath},
		{"audio track", req.AudioPath},
		{"foreground image", req.ImagePath},
	} {
		if _, err := os.Stat(in.path); err != nil {
			return domain.RenderedVideo{}, domain.Ef(domain.KindAssetMissing, "%s not found at %s", in.label, in.path)
		}
	}

	cmd := c.compile(req)
	c.log.Debug().Str("render_id", req.ID).Strs("args", cmd.Args).Msg("starting render")

	if err := c.run(ctx, cmd); err != nil {
		c.removePartial(req.OutputPath)
		return domain.RenderedVideo{}, domain.Wrap(domain.KindRenderFailed, "render "+req.ID, err)
	}
	if _, err := os.Stat(req.OutputPath); err != nil {
		return domain.RenderedVideo{}, domain.Wrap(domain.KindRenderFailed, "renderer produced no output", err)
	}
	return domain.RenderedVideo{ID: req.ID, Path: req.OutputPath}, nil
}

// compile builds the ffmpeg invocation: background scaled and cropped to
// cover the output frame, overlay scaled to the configured width and enabled
// from the configured offset, audio at the configured volume.
func (c *Composer) compile(req domain.RenderRequest) *exec.Cmd {
	o := c.opts

	background := ffmpeg.Input(req.TemplatePath).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d:force_original_aspect_ratio=increase", o.Width, o.Height)}).
		Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d", o.Width, o.Height)})

	overlayWidth := int(float64(o.Width) * o.OverlayWidth)
	foreground := ffmpeg.Input(req.ImagePath).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:-1", overlayWidth)})

	video := background.Overlay(foreground, "", ffmpeg.KwArgs{
		"x":      fmt.Sprintf("(W-w)*%.3f", o.OverlayX),
		"y":      fmt.Sprintf("(H-h)*%.3f", o.OverlayY),
		"enable": fmt.Sprintf("gte(t,%g)", o.OverlayStart),
	})

	audio := ffmpeg.Input(req.AudioPath).
		Filter("volume", ffmpeg.Args{fmt.Sprintf("%g", o.AudioVolume)})

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, req.OutputPath, ffmpeg.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
		"c:a":     "aac",
		"b:a":     "128k",
		"r":       o.FPS,
		"t":       o.Duration,
	}).OverWriteOutput().Compile()
}

func (c *Composer) removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Cleanup failures are logged, never escalated over the render error.
		c.log.Warn().Err(err).Str("path", path).Msg("failed to remove partial render output")
	}
}

// runCmd executes the compiled command under the caller's context so renders
// are bounded by the configured timeout.
func runCmd(ctx context.Context, cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	bound := exec.CommandContext(ctx, cmd.Path, cmd.Args[1:]...)
	bound.Stderr = &stderr
	if err := bound.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 512 {
			tail = tail[len(tail)-512:]
		}
		return fmt.Errorf("%w: %s", err, tail)
	}
	return nil
}
