// Package editor is the interactive window for authoring a mask on top of
// an image and previewing the applied result.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/maskpaint/internal/clipboard"
	"github.com/example/maskpaint/internal/display"
	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/notify"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/stroke"
	"github.com/example/maskpaint/internal/theme"
)

const (
	defaultWindowWidth  = 1024
	defaultWindowHeight = 768
	maxWindowWidth      = 1600
	maxWindowHeight     = 1000
	brushStep           = 5
	messageDuration     = 2 * time.Second
)

// Editor drives a session.Controller from a shiny window.
type Editor struct {
	ctrl     *session.Controller
	theme    *theme.Theme
	notifier *notify.Notifier
	saveDir  string
	dpr      float64

	updateCh chan struct{}

	onClose   func()
	closeOnce sync.Once
}

// Option configures an Editor.
type Option func(*Editor)

// WithTheme sets the colours used for the window chrome.
func WithTheme(t *theme.Theme) Option { return func(e *Editor) { e.theme = t } }

// WithNotifier enables desktop notifications for apply, save and copy.
func WithNotifier(n *notify.Notifier) Option { return func(e *Editor) { e.notifier = n } }

// WithSaveDir sets where Ctrl+S writes files.
func WithSaveDir(dir string) Option { return func(e *Editor) { e.saveDir = dir } }

// WithDevicePixelRatio fixes the device pixel ratio instead of probing the
// display.
func WithDevicePixelRatio(r float64) Option { return func(e *Editor) { e.dpr = r } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(e *Editor) { e.onClose = fn } }

// New returns an editor for ctrl. It takes over ctrl's change callback.
func New(ctrl *session.Controller, opts ...Option) *Editor {
	ed := &Editor{
		ctrl:     ctrl,
		theme:    theme.Default(),
		saveDir:  ".",
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(ed)
	}
	ctrl.SetOnChange(ed.NotifyChanged)
	return ed
}

// NotifyChanged requests a repaint.
func (ed *Editor) NotifyChanged() {
	select {
	case ed.updateCh <- struct{}{}:
	default:
	}
}

func (ed *Editor) notifyClose() {
	ed.closeOnce.Do(func() {
		if ed.onClose != nil {
			ed.onClose()
		}
	})
}

// Run opens the window and blocks until it is closed.
func (ed *Editor) Run() { driver.Main(ed.Main) }

// applyDone is sent to the window when a submission finishes.
type applyDone struct{ err error }

// Main runs the event loop on s.
func (ed *Editor) Main(s screen.Screen) {
	th := ed.theme
	toolbarWidth := toolbarWidthFor(toolbarLabels())

	width, height := initialWindowSize(ed.ctrl.Snapshot().Image, toolbarWidth)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "MaskPaint"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer ed.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ed.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	dpr := ed.dpr
	if dpr <= 0 {
		dpr = display.Probe()
	}

	var (
		message      string
		messageUntil time.Time
		hover        Button
		cursor       image.Point
		imgRect      image.Rectangle
		lastBounds   input.Rect
		lastDPR      float64
		scaled       *image.RGBA
		scaledSrc    image.Image
		scaledRect   image.Rectangle
		toolbar      []*CacheButton
		tabs         []*CacheButton
		shortcuts    []*CacheButton
		configured   = session.State(-1)
	)
	lay := layout{toolbarWidth: toolbarWidth, width: width, height: height}

	say := func(msg string) {
		message = msg
		messageUntil = time.Now().Add(messageDuration)
		log.Print(msg)
	}

	var trigger func(action string)

	makeButtons := func(actions []string) []*CacheButton {
		out := make([]*CacheButton, 0, len(actions))
		for _, a := range actions {
			out = append(out, &CacheButton{Button: &ActionButton{label: labelFor(a), action: a, theme: th, onSelect: func(a string) { trigger(a) }}})
		}
		return out
	}

	configure := func(state session.State) {
		configured = state
		hover = nil
		tabs = nil
		for i, v := range []session.View{session.Original, session.Result} {
			tb := &CacheButton{Button: &ActionButton{label: v.String(), action: actView, theme: th, onSelect: func(string) {
				ed.ctrl.ShowView(v)
			}}}
			tb.SetRect(image.Rect(lay.toolbarWidth+i*tabWidth, 0, lay.toolbarWidth+(i+1)*tabWidth, tabHeight))
			tabs = append(tabs, tb)
		}
		if state == session.Editing {
			toolbar = []*CacheButton{
				{Button: &ActionButton{label: "A:Keep", action: actKeep, swatch: th.KeepIndicator, theme: th, onSelect: func(a string) { trigger(a) }}},
				{Button: &ActionButton{label: "R:Discard", action: actDiscard, swatch: th.DiscardIndicator, theme: th, onSelect: func(a string) { trigger(a) }}},
				{Button: &ActionButton{label: "[:Smaller", action: actSmaller, theme: th, onSelect: func(a string) { trigger(a) }}},
				{Button: &ActionButton{label: "]:Larger", action: actLarger, theme: th, onSelect: func(a string) { trigger(a) }}},
			}
			shortcuts = makeButtons(editingActions)
		} else {
			toolbar = []*CacheButton{
				{Button: &ActionButton{label: "E:Edit mask", action: actEdit, theme: th, onSelect: func(a string) { trigger(a) }}},
			}
			shortcuts = makeButtons(viewingActions)
		}
		placeToolbar(toolbar, lay)
		placeShortcuts(shortcuts, lay)
	}

	relayout := func() {
		lay.width, lay.height = width, height
		placeToolbar(toolbar, lay)
		placeShortcuts(shortcuts, lay)
		snap := ed.ctrl.Snapshot()
		imgRect = image.Rectangle{}
		if snap.Image != nil && snap.Image.Loaded() {
			iw, ih := snap.Image.Size()
			imgRect = lay.imageRect(iw, ih, lay.fitZoom(iw, ih, dpr))
		}
		b := logicalRect(imgRect, dpr)
		if b != lastBounds || dpr != lastDPR {
			lastBounds, lastDPR = b, dpr
			ed.ctrl.SetLayout(b, dpr)
		}
	}

	startApply := func() {
		go func() {
			err := ed.ctrl.ApplyEdit(context.Background())
			w.Send(applyDone{err: err})
		}()
	}

	save := func() {
		snap := ed.ctrl.Snapshot()
		if snap.Image == nil {
			return
		}
		var img image.Image
		var path string
		if snap.State == session.Editing {
			m, err := ed.ctrl.CompileMask()
			if err != nil {
				say(fmt.Sprintf("save: %v", err))
				return
			}
			img, path = m, outputPath(ed.saveDir, snap.Image.Ref, "mask")
		} else {
			img, path = snap.Image.Pixels, outputPath(ed.saveDir, snap.Image.Ref, strings.ToLower(snap.View.String()))
		}
		if img == nil {
			return
		}
		if err := imageio.Save(img, path); err != nil {
			say(fmt.Sprintf("save: %v", err))
			return
		}
		say(fmt.Sprintf("saved %s", path))
		if ed.notifier != nil {
			ed.notifier.Saved(path)
		}
	}

	copyImage := func() {
		snap := ed.ctrl.Snapshot()
		var img image.Image
		detail := "image"
		if snap.State == session.Editing {
			m, err := ed.ctrl.CompileMask()
			if err != nil {
				say(fmt.Sprintf("copy: %v", err))
				return
			}
			img, detail = m, "mask"
		} else if snap.Image != nil {
			img = snap.Image.Pixels
		}
		if img == nil {
			return
		}
		if err := clipboard.WriteImage(img); err != nil {
			say(fmt.Sprintf("copy: %v", err))
			return
		}
		say(detail + " copied to clipboard")
		if ed.notifier != nil {
			ed.notifier.Copied(detail)
		}
	}

	trigger = func(action string) {
		c := ed.ctrl
		switch action {
		case actEdit:
			c.EnterEdit()
		case actKeep:
			c.SetMode(stroke.Add)
		case actDiscard:
			c.SetMode(stroke.Remove)
		case actSmaller:
			c.AdjustBrushSize(-brushStep)
		case actLarger:
			c.AdjustBrushSize(brushStep)
		case actUndo:
			c.Undo()
		case actRedo:
			c.Redo()
		case actClear:
			c.Clear()
		case actApply:
			if c.State() == session.Editing && !c.Busy() {
				startApply()
			}
		case actCancel:
			if err := c.CancelEdit(); err != nil {
				say(fmt.Sprintf("cancel: %v", err))
			}
		case actView:
			c.ToggleView()
		case actSave:
			save()
		case actCopy:
			copyImage()
		case actQuit:
			if c.State() != session.Editing {
				w.Send(lifecycle.Event{To: lifecycle.StageDead})
			}
		}
		w.Send(paint.Event{})
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	configure(session.Viewing)
	relayout()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			if ed.dpr <= 0 && e.PixelsPerPt > 0 {
				dpr = display.FromPixelsPerPt(e.PixelsPerPt)
			}
			relayout()
			w.Send(paint.Event{})
		case applyDone:
			if e.err != nil {
				if !errors.Is(e.err, session.ErrBusy) && ed.notifier != nil {
					ed.notifier.ApplyFailed(e.err)
				}
				say(fmt.Sprintf("apply failed: %v", e.err))
			} else {
				say("mask applied")
				if r := ed.ctrl.Result(); r != nil && ed.notifier != nil {
					ed.notifier.Applied(r.Ref, r.Pixels)
				}
			}
			w.Send(paint.Event{})
		case paint.Event:
			snap := ed.ctrl.Snapshot()
			if snap.State != configured {
				configure(snap.State)
			}
			relayout()
			if snap.Image != nil && snap.Image.Loaded() {
				if snap.Image.Pixels != scaledSrc || imgRect != scaledRect {
					scaled = scaleImage(snap.Image.Pixels, imgRect)
					scaledSrc, scaledRect = snap.Image.Pixels, imgRect
				}
			} else {
				scaled, scaledSrc = nil, nil
			}
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{
				layout:       lay,
				theme:        th,
				snap:         snap,
				imageRect:    imgRect,
				scaled:       scaled,
				overlay:      ed.ctrl.Overlay(),
				toolbar:      toolbar,
				tabs:         tabs,
				shortcuts:    shortcuts,
				hover:        hover,
				cursor:       cursor,
				cursorRadius: int(snap.Brush * dpr / 2),
				message:      message,
				messageUntil: messageUntil,
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			p := image.Point{int(e.X), int(e.Y)}
			if message != "" && time.Now().Before(messageUntil) && e.Direction == mouse.DirPress {
				messageUntil = time.Time{}
			}
			cursor = p
			prev := hover
			hover = hitTest(p, tabs, toolbar, shortcuts)
			if hover != nil && e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
				hover.Activate()
				continue
			}
			if ev, ok := mouseToInput(e, dpr); ok && (hover == nil || ev.Kind != input.PointerDown) {
				ed.ctrl.HandleInputEvent(ev, lastBounds)
			}
			if hover != prev || (e.Direction == mouse.DirNone && ed.ctrl.State() == session.Editing) {
				w.Send(paint.Event{})
			}
		case touch.Event:
			if ev, ok := touchToInput(e, dpr); ok {
				cursor = image.Point{int(e.X), int(e.Y)}
				ed.ctrl.HandleInputEvent(ev, lastBounds)
			}
		case key.Event:
			if e.Direction == key.DirRelease {
				continue
			}
			if a := actionFor(e); a != "" {
				trigger(a)
			}
		case error:
			log.Print(e)
		}
	}
}

// mouseToInput converts a shiny mouse event in physical pixels to a
// logical pointer event. Only the left button draws.
func mouseToInput(e mouse.Event, dpr float64) (input.Event, bool) {
	if dpr <= 0 {
		dpr = 1
	}
	ev := input.Event{ClientX: float64(e.X) / dpr, ClientY: float64(e.Y) / dpr}
	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft {
			return input.Event{}, false
		}
		ev.Kind = input.PointerDown
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft {
			return input.Event{}, false
		}
		ev.Kind = input.PointerUp
	case mouse.DirNone:
		ev.Kind = input.PointerMove
	default:
		return input.Event{}, false
	}
	return ev, true
}

// touchToInput converts a shiny touch event. Only the first contact of a
// gesture is tracked.
func touchToInput(e touch.Event, dpr float64) (input.Event, bool) {
	if e.Sequence != 0 {
		return input.Event{}, false
	}
	if dpr <= 0 {
		dpr = 1
	}
	ev := input.Event{Touches: []input.Touch{{ClientX: float64(e.X) / dpr, ClientY: float64(e.Y) / dpr}}}
	switch e.Type {
	case touch.TypeBegin:
		ev.Kind = input.TouchStart
	case touch.TypeMove:
		ev.Kind = input.TouchMove
	case touch.TypeEnd:
		ev.Kind = input.TouchEnd
	default:
		return input.Event{}, false
	}
	return ev, true
}

func hitTest(p image.Point, groups ...[]*CacheButton) Button {
	for _, g := range groups {
		for _, b := range g {
			if p.In(b.Rect()) {
				return b
			}
		}
	}
	return nil
}

func toolbarLabels() []string {
	return []string{"MaskPaint", "A:Keep", "R:Discard", "[:Smaller", "]:Larger", "E:Edit mask"}
}

// toolbarWidthFor is wide enough for every label.
func toolbarWidthFor(labels []string) int {
	widest := 0
	for _, l := range labels {
		widest = max(widest, labelWidth(l)+16)
	}
	return widest
}

func placeToolbar(buttons []*CacheButton, l layout) {
	for i, b := range buttons {
		y := tabHeight + 4 + i*(buttonHeight+2)
		b.SetRect(image.Rect(2, y, l.toolbarWidth-2, y+buttonHeight))
	}
}

func placeShortcuts(buttons []*CacheButton, l layout) {
	x := 2
	y := l.height - bottomHeight + 1
	for _, b := range buttons {
		ab := b.Button.(*ActionButton)
		wd := labelWidth(ab.label)
		b.SetRect(image.Rect(x, y, x+wd, y+buttonHeight))
		x += wd + 2
	}
}

// initialWindowSize fits img plus the chrome, bounded to a sane maximum.
func initialWindowSize(img *session.Image, toolbarWidth int) (int, int) {
	if img == nil || !img.Loaded() {
		return defaultWindowWidth, defaultWindowHeight
	}
	iw, ih := img.Size()
	return min(iw+toolbarWidth, maxWindowWidth), min(ih+tabHeight+bottomHeight, maxWindowHeight)
}

// outputPath names a file next to ref's base name inside dir.
func outputPath(dir, ref, suffix string) string {
	base := filepath.Base(ref)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.png", base, suffix))
}
