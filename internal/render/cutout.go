package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Cutout applies mask as an alpha matte to src. A mask of a different size
// is stretched to src first.
func Cutout(src image.Image, mask *image.Gray) *image.NRGBA {
	out := imaging.Clone(src)
	if mask == nil {
		return out
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	var m image.Image = mask
	if mask.Bounds().Dx() != w || mask.Bounds().Dy() != h {
		m = imaging.Resize(mask, w, h, imaging.Linear)
	}
	mb := m.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := color.GrayModel.Convert(m.At(mb.Min.X+x, mb.Min.Y+y)).(color.Gray).Y
			i := out.PixOffset(x, y) + 3
			out.Pix[i] = uint8(uint16(out.Pix[i]) * uint16(keep) / 255)
		}
	}
	return out
}

// Flatten places img over a solid background.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	dst := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(dst, img, image.Point{}, 1)
}
