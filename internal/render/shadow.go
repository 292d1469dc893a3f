package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ShadowOptions configures the drop shadow placed under a cut-out product.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// ShadowResult captures the output of ApplyShadow.
type ShadowResult struct {
	Image *image.NRGBA
	// Offset is where the original content's top-left corner landed inside
	// the expanded canvas.
	Offset image.Point
}

// DefaultShadowOptions returns a soft shadow suited to product cut-outs.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  24,
		Offset:  image.Pt(16, 16),
		Opacity: 0.55,
	}
}

// ApplyShadow composites img over a blurred copy of its alpha channel. The
// result has a zero origin and grows to fit the blurred, offset shadow.
func ApplyShadow(img image.Image, opts ShadowOptions) ShadowResult {
	if img == nil {
		return ShadowResult{}
	}
	src := imaging.Clone(img)
	if src.Bounds().Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: src}
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	srcBounds := src.Bounds()
	padded := srcBounds.Inset(-radius)
	shadowBounds := padded.Add(opts.Offset)
	composite := srcBounds.Union(shadowBounds)
	shift := srcBounds.Min.Sub(composite.Min)
	shadowOrigin := shadowBounds.Min.Sub(composite.Min)

	silhouette := image.NewNRGBA(padded.Sub(padded.Min))
	for y := srcBounds.Min.Y; y < srcBounds.Max.Y; y++ {
		for x := srcBounds.Min.X; x < srcBounds.Max.X; x++ {
			a := src.NRGBAAt(x, y).A
			if a == 0 {
				continue
			}
			silhouette.SetNRGBA(x-padded.Min.X, y-padded.Min.Y, color.NRGBA{A: uint8(float64(a)*opacity + 0.5)})
		}
	}
	shadow := silhouette
	if radius > 0 {
		shadow = imaging.Blur(silhouette, float64(radius)/2)
	}

	dst := image.NewNRGBA(composite.Sub(composite.Min))
	draw.Draw(dst, shadow.Bounds().Add(shadowOrigin), shadow, image.Point{}, draw.Over)
	draw.Draw(dst, srcBounds.Add(shift), src, srcBounds.Min, draw.Over)
	return ShadowResult{Image: dst, Offset: shift}
}
