package editor

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"

	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/theme"
)

func TestFitZoomAndImageRect(t *testing.T) {
	l := layout{toolbarWidth: 100, width: 500, height: 448}
	// canvas is 400x400
	if z := l.fitZoom(800, 400, 0); z != 0.5 {
		t.Fatalf("fitZoom = %v, want 0.5", z)
	}
	if z := l.fitZoom(100, 100, 2); z != 2 {
		t.Fatalf("fitZoom limited = %v, want 2", z)
	}
	if z := l.fitZoom(0, 100, 1); z != 0 {
		t.Fatalf("fitZoom empty = %v", z)
	}
	r := l.imageRect(800, 400, 0.5)
	want := image.Rect(100, 124, 500, 324)
	if r != want {
		t.Fatalf("imageRect = %v, want %v", r, want)
	}
}

func TestLogicalRect(t *testing.T) {
	got := logicalRect(image.Rect(20, 40, 220, 140), 2)
	want := input.Rect{Left: 10, Top: 20, Width: 100, Height: 50}
	if got != want {
		t.Fatalf("logicalRect = %+v, want %+v", got, want)
	}
	if got := logicalRect(image.Rect(0, 0, 10, 10), 0); got.Width != 10 {
		t.Fatalf("zero dpr should be treated as 1, got %+v", got)
	}
}

func TestActionFor(t *testing.T) {
	cases := []struct {
		ev   key.Event
		want string
	}{
		{key.Event{Rune: 'e'}, actEdit},
		{key.Event{Rune: 'E', Modifiers: key.ModShift}, ""},
		{key.Event{Rune: 'z', Modifiers: key.ModControl}, actUndo},
		{key.Event{Rune: 'Z', Modifiers: key.ModControl | key.ModShift}, actRedo},
		{key.Event{Rune: 'c'}, actClear},
		{key.Event{Rune: 'c', Modifiers: key.ModControl}, actCopy},
		{key.Event{Code: key.CodeReturnEnter}, actApply},
		{key.Event{Code: key.CodeKeypadEnter}, actApply},
		{key.Event{Code: key.CodeEscape}, actCancel},
		{key.Event{Code: key.CodeLeftSquareBracket}, actSmaller},
		{key.Event{Rune: 'x'}, ""},
	}
	for _, c := range cases {
		if got := actionFor(c.ev); got != c.want {
			t.Errorf("actionFor(%+v) = %q, want %q", c.ev, got, c.want)
		}
	}
	if labelFor(actApply) != "Enter:apply" {
		t.Errorf("labelFor(apply) = %q", labelFor(actApply))
	}
}

type countingButton struct {
	rect  image.Rectangle
	draws int
}

func (b *countingButton) Draw(dst *image.RGBA, state ButtonState) {
	b.draws++
	dst.Set(b.rect.Min.X, b.rect.Min.Y, color.RGBA{R: 0xFF, A: 0xFF})
}
func (b *countingButton) Rect() image.Rectangle { return b.rect }
func (b *countingButton) SetRect(r image.Rectangle) { b.rect = r }
func (b *countingButton) Activate() {}

func TestCacheButtonCachesPerState(t *testing.T) {
	inner := &countingButton{rect: image.Rect(2, 2, 10, 10)}
	cb := &CacheButton{Button: inner}
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	cb.Draw(dst, StateDefault)
	cb.Draw(dst, StateDefault)
	if inner.draws != 1 {
		t.Fatalf("draws = %d, want 1", inner.draws)
	}
	if got := dst.RGBAAt(2, 2); got.R != 0xFF {
		t.Fatalf("cached rendering not blitted: %v", got)
	}
	cb.Draw(dst, StateHover)
	if inner.draws != 2 {
		t.Fatalf("draws = %d, want 2", inner.draws)
	}
	cb.SetRect(image.Rect(4, 4, 12, 12))
	cb.Draw(dst, StateDefault)
	if inner.draws != 3 {
		t.Fatalf("SetRect should invalidate cache, draws = %d", inner.draws)
	}
}

func TestActionButtonActivate(t *testing.T) {
	var got string
	b := &ActionButton{label: "A:Keep", action: actKeep, theme: theme.Default(), onSelect: func(a string) { got = a }}
	b.SetRect(image.Rect(0, 0, 80, buttonHeight))
	dst := image.NewRGBA(image.Rect(0, 0, 80, buttonHeight))
	b.Draw(dst, StateActive)
	if dst.RGBAAt(40, 1) != theme.Default().ButtonActive {
		t.Errorf("active background not drawn")
	}
	b.Activate()
	if got != actKeep {
		t.Fatalf("onSelect got %q", got)
	}
}

func TestDrawCheckerboard(t *testing.T) {
	light := color.RGBA{0xEE, 0xEE, 0xEE, 0xFF}
	dark := color.RGBA{0x99, 0x99, 0x99, 0xFF}
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	drawCheckerboard(dst, image.Rect(2, 2, 18, 18), 4, light, dark)
	if dst.RGBAAt(2, 2) != light || dst.RGBAAt(6, 2) != dark || dst.RGBAAt(6, 6) != light {
		t.Fatalf("unexpected checker pattern")
	}
	if dst.RGBAAt(0, 0) != (color.RGBA{}) || dst.RGBAAt(18, 18) != (color.RGBA{}) {
		t.Fatalf("checkerboard drawn outside rect")
	}
}

func TestDrawCircleOutline(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 21, 21))
	c := color.RGBA{A: 0xFF, G: 0xFF}
	drawCircleOutline(dst, 10, 10, 5, c)
	for _, p := range []image.Point{{15, 10}, {5, 10}, {10, 15}, {10, 5}} {
		if dst.RGBAAt(p.X, p.Y) != c {
			t.Errorf("ring missing at %v", p)
		}
	}
	if dst.RGBAAt(10, 10) == c {
		t.Errorf("centre should be empty")
	}
}

func TestMouseToInput(t *testing.T) {
	ev, ok := mouseToInput(mouse.Event{X: 200, Y: 100, Button: mouse.ButtonLeft, Direction: mouse.DirPress}, 2)
	if !ok || ev.Kind != input.PointerDown || ev.ClientX != 100 || ev.ClientY != 50 {
		t.Fatalf("press = %+v %v", ev, ok)
	}
	if ev, ok := mouseToInput(mouse.Event{X: 4, Y: 4}, 1); !ok || ev.Kind != input.PointerMove {
		t.Fatalf("move = %+v %v", ev, ok)
	}
	if ev, ok := mouseToInput(mouse.Event{Button: mouse.ButtonLeft, Direction: mouse.DirRelease}, 1); !ok || ev.Kind != input.PointerUp {
		t.Fatalf("release = %+v %v", ev, ok)
	}
	if _, ok := mouseToInput(mouse.Event{Button: mouse.ButtonRight, Direction: mouse.DirPress}, 1); ok {
		t.Fatalf("right button should not draw")
	}
	if _, ok := mouseToInput(mouse.Event{Button: mouse.ButtonWheelUp, Direction: mouse.DirStep}, 1); ok {
		t.Fatalf("wheel should not draw")
	}
}

func TestTouchToInput(t *testing.T) {
	ev, ok := touchToInput(touch.Event{X: 30, Y: 60, Type: touch.TypeBegin}, 1.5)
	if !ok || ev.Kind != input.TouchStart || len(ev.Touches) != 1 {
		t.Fatalf("begin = %+v %v", ev, ok)
	}
	if ev.Touches[0] != (input.Touch{ClientX: 20, ClientY: 40}) {
		t.Fatalf("touch position = %+v", ev.Touches[0])
	}
	if ev, _ := touchToInput(touch.Event{Type: touch.TypeEnd}, 1); ev.Kind != input.TouchEnd {
		t.Fatalf("end kind = %v", ev.Kind)
	}
	if _, ok := touchToInput(touch.Event{Sequence: 1, Type: touch.TypeBegin}, 1); ok {
		t.Fatalf("second finger should be ignored")
	}
}

func TestHitTest(t *testing.T) {
	a := &CacheButton{Button: &countingButton{rect: image.Rect(0, 0, 10, 10)}}
	b := &CacheButton{Button: &countingButton{rect: image.Rect(20, 0, 30, 10)}}
	if hitTest(image.Point{25, 5}, []*CacheButton{a}, []*CacheButton{b}) != b {
		t.Fatalf("expected second button")
	}
	if hitTest(image.Point{15, 5}, []*CacheButton{a, b}) != nil {
		t.Fatalf("expected no hit")
	}
}

func TestInitialWindowSize(t *testing.T) {
	if w, h := initialWindowSize(nil, 100); w != defaultWindowWidth || h != defaultWindowHeight {
		t.Fatalf("unloaded size = %dx%d", w, h)
	}
	img := &session.Image{Ref: "a", Pixels: image.NewRGBA(image.Rect(0, 0, 300, 200))}
	if w, h := initialWindowSize(img, 100); w != 400 || h != 200+tabHeight+bottomHeight {
		t.Fatalf("size = %dx%d", w, h)
	}
	big := &session.Image{Ref: "b", Pixels: image.NewRGBA(image.Rect(0, 0, 5000, 5000))}
	if w, h := initialWindowSize(big, 100); w != maxWindowWidth || h != maxWindowHeight {
		t.Fatalf("big size = %dx%d", w, h)
	}
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		dir, ref, suffix string
		want             string
	}{
		{"/tmp", "products/7.jpg", "mask", filepath.Join("/tmp", "7-mask.png")},
		{"", "https://cdn.example.com/a/shoe.webp", "result", "shoe-result.png"},
		{"out", "", "original", filepath.Join("out", "image-original.png")},
		{"out", "https://cdn.example.com/x.png?v=2", "mask", filepath.Join("out", "x-mask.png")},
	}
	for _, c := range cases {
		if got := outputPath(c.dir, c.ref, c.suffix); got != c.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", c.dir, c.ref, got, c.want)
		}
	}
}
