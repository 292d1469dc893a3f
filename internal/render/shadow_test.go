package render

import (
	"image"
	"image/color"
	"testing"
)

func TestApplyShadowExpandsBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	subject := image.Pt(5, 5)
	img.Set(subject.X, subject.Y, color.NRGBA{R: 255, A: 255})

	opts := ShadowOptions{Radius: 4, Offset: image.Pt(8, 6), Opacity: 0.5}
	out := ApplyShadow(img, opts)
	if out.Image == nil {
		t.Fatal("expected output image")
	}
	expected := image.Rect(0, 0, 22, 20)
	if !out.Image.Bounds().Eq(expected) {
		t.Fatalf("unexpected bounds %v, want %v", out.Image.Bounds(), expected)
	}
	shadowPt := subject.Add(out.Offset).Add(opts.Offset)
	if out.Image.NRGBAAt(shadowPt.X, shadowPt.Y).A == 0 {
		t.Fatalf("expected shadow alpha at %v", shadowPt)
	}
}

func TestApplyShadowNoShadowWhenOpacityZero(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	fill := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	out := ApplyShadow(img, ShadowOptions{Radius: 12, Offset: image.Pt(20, 10), Opacity: 0})
	if out.Image == nil {
		t.Fatal("expected output image")
	}
	if !out.Image.Bounds().Eq(img.Bounds()) {
		t.Fatalf("bounds changed unexpectedly: %v vs %v", out.Image.Bounds(), img.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := out.Image.NRGBAAt(x, y); got != fill {
				t.Fatalf("pixel mismatch at (%d,%d): got %+v want %+v", x, y, got, fill)
			}
		}
	}
}

func TestApplyShadowBlurredAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{A: 255})
	opts := ShadowOptions{Radius: 2, Offset: image.Pt(3, 0), Opacity: 1}

	out := ApplyShadow(img, opts)
	if out.Image.Bounds().Dx() <= img.Bounds().Dx() {
		t.Fatalf("expected wider output bounds")
	}
	base := out.Offset.Add(opts.Offset)
	baseAlpha := out.Image.NRGBAAt(base.X, base.Y).A
	if baseAlpha == 0 {
		t.Fatal("expected alpha at base shadow location")
	}
	if out.Image.NRGBAAt(base.X+1, base.Y).A == 0 {
		t.Fatalf("expected blurred alpha to reach neighbor, base alpha=%d", baseAlpha)
	}
}

func TestCutoutAppliesMask(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	mask := image.NewGray(image.Rect(0, 0, 4, 2))
	mask.SetGray(1, 0, color.Gray{Y: 0xFF})
	mask.SetGray(2, 1, color.Gray{Y: 0x80})

	out := Cutout(src, mask)
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Fatalf("discarded pixel alpha = %d", a)
	}
	if a := out.NRGBAAt(1, 0).A; a != 0xFF {
		t.Fatalf("kept pixel alpha = %d", a)
	}
	if a := out.NRGBAAt(2, 1).A; a != 0x80 {
		t.Fatalf("partial pixel alpha = %d", a)
	}
	if src.NRGBAAt(0, 0).A != 0xFF {
		t.Fatal("source was modified")
	}
}

func TestCutoutStretchesMask(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range mask.Pix {
		mask.Pix[i] = 0xFF
	}
	out := Cutout(src, mask)
	if !out.Bounds().Eq(src.Bounds()) {
		t.Fatalf("bounds %v", out.Bounds())
	}
	if a := out.NRGBAAt(7, 7).A; a != 0xFF {
		t.Fatalf("alpha = %d", a)
	}
}
