package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/math/f64"

	"github.com/example/maskpaint/internal/stroke"
)

// Overlay is the operator-facing preview of a stroke history. Its backing
// buffer holds display size × device pixel ratio pixels while strokes are
// replayed in logical units, so brush widths look the same on any density.
type Overlay struct {
	width, height int
	dpr           float64
	buf           *image.RGBA
	brush         brush
}

// NewOverlay returns an overlay with no layout yet.
func NewOverlay() *Overlay { return &Overlay{dpr: 1} }

// Resize sets the logical display size and pixel ratio. A zero or negative
// size leaves the overlay without a buffer.
func (o *Overlay) Resize(width, height int, dpr float64) {
	if !(dpr > 0) || math.IsInf(dpr, 0) {
		dpr = 1
	}
	if width <= 0 || height <= 0 {
		o.width, o.height, o.dpr, o.buf = 0, 0, dpr, nil
		return
	}
	bw := int(math.Round(float64(width) * dpr))
	bh := int(math.Round(float64(height) * dpr))
	if o.buf != nil && o.buf.Bounds().Dx() == bw && o.buf.Bounds().Dy() == bh {
		o.width, o.height, o.dpr = width, height, dpr
		return
	}
	o.width, o.height, o.dpr = width, height, dpr
	o.buf = image.NewRGBA(image.Rect(0, 0, bw, bh))
}

// Ready reports whether the overlay has layout data and a buffer.
func (o *Overlay) Ready() bool { return o != nil && o.buf != nil }

// Size returns the logical size and pixel ratio.
func (o *Overlay) Size() (width, height int, dpr float64) { return o.width, o.height, o.dpr }

// Image returns the device-pixel buffer, or nil before the first Resize.
func (o *Overlay) Image() *image.RGBA { return o.buf }

// Transform maps normalized stroke points to device pixels.
func (o *Overlay) Transform() f64.Aff3 {
	logical := Scale(float64(o.width), float64(o.height))
	return Mul(Scale(o.dpr, o.dpr), logical)
}

// Render repaints active strokes and the optional in-progress stroke from
// scratch. It reports false and does nothing when the overlay has no buffer.
func (o *Overlay) Render(active []stroke.Stroke, inProgress *stroke.Stroke) bool {
	if !o.Ready() {
		return false
	}
	draw.Draw(o.buf, o.buf.Bounds(), image.Transparent, image.Point{}, draw.Src)
	m := o.Transform()
	for _, s := range active {
		o.paint(s, m)
	}
	if inProgress != nil {
		o.paint(*inProgress, m)
	}
	return true
}

func (o *Overlay) paint(s stroke.Stroke, m f64.Aff3) {
	src := image.NewUniform(stroke.PreviewColorFor(s.Mode))
	o.brush.paint(o.buf, s, m, s.BrushSize*o.dpr, src)
}
