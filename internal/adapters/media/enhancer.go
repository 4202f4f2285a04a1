// Package media implements image enhancement and slideshow rendering.
package media

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// brightnessLift and saturationLift are small fixed adjustments that make
	// phone photos pop without looking processed.
	brightnessLift = 4
	saturationLift = 10

	jpegQuality = 88
)

// Enhancer applies the deterministic per-image enhancement: EXIF orientation
// normalization, fit into a bounded box, brightness/saturation lift, JPEG
// re-encode.
type Enhancer struct {
	maxDim int
}

// NewEnhancer creates an Enhancer with the given bounding dimension.
func NewEnhancer(maxDim int) *Enhancer {
	return &Enhancer{maxDim: maxDim}
}

// Enhance reads srcPath, enhances it, and writes a JPEG to dstPath.
func (e *Enhancer) Enhance(ctx context.Context, srcPath, dstPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image %s: %w", srcPath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > e.maxDim || bounds.Dy() > e.maxDim {
		img = imaging.Fit(img, e.maxDim, e.maxDim, imaging.Lanczos)
	}
	img = imaging.AdjustBrightness(img, brightnessLift)
	img = imaging.AdjustSaturation(img, saturationLift)

	if err := imaging.Save(img, dstPath, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save enhanced image %s: %w", dstPath, err)
	}
	return nil
}
