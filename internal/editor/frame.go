package editor

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/stroke"
	"github.com/example/maskpaint/internal/theme"
)

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 28, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

type paintState struct {
	layout       layout
	theme        *theme.Theme
	snap         session.Snapshot
	imageRect    image.Rectangle
	scaled       *image.RGBA
	overlay      *image.RGBA
	toolbar      []*CacheButton
	tabs         []*CacheButton
	shortcuts    []*CacheButton
	hover        Button
	cursor       image.Point
	cursorRadius int
	message      string
	messageUntil time.Time
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.layout.width, st.layout.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()
	th := st.theme

	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return
	}

	if st.scaled != nil {
		drawCheckerboard(dst, st.imageRect, 8, th.CheckerLight, th.CheckerDark)
		draw.Draw(dst, st.imageRect, st.scaled, st.scaled.Bounds().Min, draw.Over)
	}
	if ctx.Err() != nil {
		return
	}
	if st.overlay != nil {
		draw.Draw(dst, st.imageRect, st.overlay, image.Point{}, draw.Over)
	}
	if st.snap.State == session.Editing && st.cursorRadius > 0 && st.cursor.In(st.imageRect) {
		drawCircleOutline(dst, st.cursor.X, st.cursor.Y, st.cursorRadius, stroke.PreviewColorFor(st.snap.Mode))
	}
	if st.snap.Busy {
		draw.Draw(dst, st.layout.canvas(), &image.Uniform{th.BusyShade}, image.Point{}, draw.Over)
	}
	if ctx.Err() != nil {
		return
	}

	drawChrome(dst, st)
	if ctx.Err() != nil {
		return
	}

	msg := st.message
	if !time.Now().Before(st.messageUntil) {
		msg = ""
	}
	if st.snap.Busy {
		msg = "Applying mask..."
	}
	if msg != "" {
		drawMessage(dst, msg, th)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawChrome(dst *image.RGBA, st paintState) {
	th := st.theme
	l := st.layout
	draw.Draw(dst, image.Rect(0, 0, l.width, tabHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, tabHeight, l.toolbarWidth, l.height-bottomHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, l.height-bottomHeight, l.width, l.height), &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)

	title := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13, Dot: fixed.P(4, 16)}
	title.DrawString("MaskPaint")

	for i, tb := range st.tabs {
		state := stateOf(tb, st.hover)
		if session.View(i) == st.snap.View {
			state = StateActive
		}
		tb.Draw(dst, state)
	}
	for _, cb := range st.toolbar {
		state := stateOf(cb, st.hover)
		if ab, ok := cb.Button.(*ActionButton); ok && st.snap.State == session.Editing {
			if (ab.action == actKeep && st.snap.Mode == stroke.Add) || (ab.action == actDiscard && st.snap.Mode == stroke.Remove) {
				state = StateActive
			}
		}
		cb.Draw(dst, state)
	}
	for _, sc := range st.shortcuts {
		sc.Draw(dst, stateOf(sc, st.hover))
	}

	status := statusLine(st.snap)
	col := th.StatusText
	if st.snap.Err != nil {
		col = th.ErrorText
	}
	meas := &font.Drawer{Face: basicfont.Face7x13}
	x := l.width - meas.MeasureString(status).Ceil() - 6
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, l.height-bottomHeight+16)}
	d.DrawString(status)
}

func stateOf(b Button, hover Button) ButtonState {
	if hover != nil && b == hover {
		return StateHover
	}
	return StateDefault
}

func statusLine(s session.Snapshot) string {
	if s.Err != nil {
		return "error: " + s.Err.Error()
	}
	if s.State == session.Editing {
		return fmt.Sprintf("%s  brush %.0f  strokes %d", s.Mode, s.Brush, s.Strokes)
	}
	if s.Image == nil || !s.Image.Loaded() {
		return "loading image"
	}
	w, h := s.Image.Size()
	return fmt.Sprintf("%s  %dx%d", s.View, w, h)
}

func drawMessage(dst *image.RGBA, msg string, th *theme.Theme) {
	b := dst.Bounds()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := (b.Dx() - wmsg) / 2
	py := (b.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	bg := th.StatusBackground
	bg.A = 230
	draw.Draw(dst, rect, &image.Uniform{bg}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.ButtonBorder, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

// scaleImage renders src into a zoomed RGBA the size of r.
func scaleImage(src image.Image, r image.Rectangle) *image.RGBA {
	if src == nil || r.Empty() {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)
	return out
}
