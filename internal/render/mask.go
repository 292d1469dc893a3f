package render

import (
	"errors"
	"image"
	"image/draw"

	"github.com/example/maskpaint/internal/stroke"
)

// ErrNoDisplayWidth is returned by Compile when strokes exist but the width
// they were drawn at is unknown, so brush sizes cannot be rescaled.
var ErrNoDisplayWidth = errors.New("display width unknown")

// MaskBuffer is a single-channel raster at the source image's native
// resolution. White is keep and black is discard.
type MaskBuffer struct {
	img   *image.Gray
	brush brush
}

// NewMaskBuffer returns an all-discard buffer of the given size. A zero or
// negative size yields a buffer that is not Ready.
func NewMaskBuffer(width, height int) *MaskBuffer {
	m := &MaskBuffer{}
	if width > 0 && height > 0 {
		m.img = image.NewGray(image.Rect(0, 0, width, height))
	}
	return m
}

// Ready reports whether the buffer has pixels.
func (m *MaskBuffer) Ready() bool { return m != nil && m.img != nil }

// Image returns the underlying raster.
func (m *MaskBuffer) Image() *image.Gray { return m.img }

// Bounds returns the raster bounds, empty when not Ready.
func (m *MaskBuffer) Bounds() image.Rectangle {
	if !m.Ready() {
		return image.Rectangle{}
	}
	return m.img.Bounds()
}

// Reset fills the buffer with the discard color.
func (m *MaskBuffer) Reset() {
	if !m.Ready() {
		return
	}
	draw.Draw(m.img, m.img.Bounds(), image.NewUniform(stroke.MaskColorFor(stroke.Remove)), image.Point{}, draw.Src)
}

// Paint writes s into the buffer with an opaque mask color, so later
// strokes overwrite earlier ones wherever they fully cover a pixel. scale
// converts the stroke's screen-space brush size to native pixels.
func (m *MaskBuffer) Paint(s stroke.Stroke, scale float64) {
	if !m.Ready() {
		return
	}
	b := m.img.Bounds()
	xf := Scale(float64(b.Dx()), float64(b.Dy()))
	src := image.NewUniform(stroke.MaskColorFor(s.Mode))
	m.brush.paint(m.img, s, xf, s.BrushSize*scale, src)
}

// Clone returns an independent copy.
func (m *MaskBuffer) Clone() *MaskBuffer {
	if !m.Ready() {
		return &MaskBuffer{}
	}
	c := image.NewGray(m.img.Bounds())
	copy(c.Pix, m.img.Pix)
	return &MaskBuffer{img: c}
}

// Compile resets buf and replays strokes in commit order. Brush sizes are
// rescaled by the buffer width over displayWidth. An empty stroke list
// leaves an all-discard mask.
func Compile(buf *MaskBuffer, strokes []stroke.Stroke, displayWidth float64) error {
	if !buf.Ready() {
		return nil
	}
	buf.Reset()
	if len(strokes) == 0 {
		return nil
	}
	if !(displayWidth > 0) {
		return ErrNoDisplayWidth
	}
	scale := float64(buf.img.Bounds().Dx()) / displayWidth
	for _, s := range strokes {
		buf.Paint(s, scale)
	}
	return nil
}

// Threshold snaps every pixel to keep or discard around the midpoint.
func Threshold(img *image.Gray) {
	if img == nil {
		return
	}
	for i, v := range img.Pix {
		if v >= 0x80 {
			img.Pix[i] = 0xFF
		} else {
			img.Pix[i] = 0
		}
	}
}

// Coverage returns the keep fraction of img weighted by intensity.
func Coverage(img *image.Gray) float64 {
	if img == nil {
		return 0
	}
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for _, v := range row {
			sum += uint64(v)
		}
	}
	return float64(sum) / (255 * float64(b.Dx()*b.Dy()))
}
