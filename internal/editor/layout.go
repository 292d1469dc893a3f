package editor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/example/maskpaint/internal/input"
)

const (
	tabHeight    = 24
	bottomHeight = 24
	tabWidth     = 96
	buttonHeight = 22
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// layout places the chrome and the image inside a window, in physical
// pixels.
type layout struct {
	toolbarWidth int
	width        int
	height       int
}

// canvas is the area available to the image.
func (l layout) canvas() image.Rectangle {
	return image.Rect(l.toolbarWidth, tabHeight, l.width, l.height-bottomHeight)
}

// fitZoom returns the scale that fits an imgW by imgH image into the
// canvas. Images are never enlarged beyond limit.
func (l layout) fitZoom(imgW, imgH int, limit float64) float64 {
	c := l.canvas()
	if imgW <= 0 || imgH <= 0 || c.Dx() <= 0 || c.Dy() <= 0 {
		return 0
	}
	zx := float64(c.Dx()) / float64(imgW)
	zy := float64(c.Dy()) / float64(imgH)
	z := min(zx, zy)
	if limit > 0 && z > limit {
		z = limit
	}
	return z
}

// imageRect centres the zoomed image on the canvas.
func (l layout) imageRect(imgW, imgH int, zoom float64) image.Rectangle {
	c := l.canvas()
	w := int(float64(imgW) * zoom)
	h := int(float64(imgH) * zoom)
	x0 := c.Min.X + (c.Dx()-w)/2
	y0 := c.Min.Y + (c.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// logicalRect converts a physical rectangle to the logical coordinates
// strokes are recorded in.
func logicalRect(r image.Rectangle, dpr float64) input.Rect {
	if dpr <= 0 {
		dpr = 1
	}
	return input.Rect{
		Left:   float64(r.Min.X) / dpr,
		Top:    float64(r.Min.Y) / dpr,
		Width:  float64(r.Dx()) / dpr,
		Height: float64(r.Dy()) / dpr,
	}
}

// drawCheckerboard fills rect of dst with squares of the given size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	l, d := &image.Uniform{light}, &image.Uniform{dark}
	for y := rect.Min.Y; y < rect.Max.Y; y += size {
		for x := rect.Min.X; x < rect.Max.X; x += size {
			src := l
			if ((x-rect.Min.X)/size+(y-rect.Min.Y)/size)%2 != 0 {
				src = d
			}
			cell := image.Rect(x, y, x+size, y+size).Intersect(rect)
			draw.Draw(dst, cell, src, image.Point{}, draw.Src)
		}
	}
}
