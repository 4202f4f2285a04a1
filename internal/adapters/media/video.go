package media

import (
	"context"
	"fmt"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ImagePattern is the printf-style file name the pipeline uses for enhanced
// images. The slideshow renderer consumes the same sequence, which is what
// preserves input order in the video.
const ImagePattern = "img%03d.jpg"

const pixelFormat = "yuv420p"

// SlideshowRenderer renders a slideshow video from an ordered image sequence
// by shelling out to ffmpeg.
type SlideshowRenderer struct {
	secondsPerImage int
	frameRate       int
	maxHeight       int
}

// SlideshowOptions groups tuning for NewSlideshowRenderer.
type SlideshowOptions struct {
	SecondsPerImage int
	FrameRate       int
	MaxHeight       int
}

// NewSlideshowRenderer creates a SlideshowRenderer.
func NewSlideshowRenderer(opts SlideshowOptions) *SlideshowRenderer {
	return &SlideshowRenderer{
		secondsPerImage: opts.SecondsPerImage,
		frameRate:       opts.FrameRate,
		maxHeight:       opts.MaxHeight,
	}
}

// Render encodes every ImagePattern file under imageDir, in sequence order,
// into an H.264 video at outPath. Each image is shown for the configured
// duration; output is scaled to the bounded height with aspect preserved.
func (r *SlideshowRenderer) Render(ctx context.Context, imageDir, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := filepath.Join(imageDir, ImagePattern)
	err := ffmpeg.Input(input, ffmpeg.KwArgs{
		"framerate": fmt.Sprintf("1/%d", r.secondsPerImage),
	}).
		Output(outPath, ffmpeg.KwArgs{
			"c:v":     "libx264",
			"r":       r.frameRate,
			"pix_fmt": pixelFormat,
			"vf":      fmt.Sprintf("scale=-2:%d", r.maxHeight),
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("encode slideshow %s: %w", outPath, err)
	}
	return nil
}
