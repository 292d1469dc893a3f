package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/stroke"
)

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("mask submission already in progress")
	// ErrTimeout is returned when the watchdog gives up on a submission.
	ErrTimeout = service.ErrTimeout
	// ErrNotEditing is returned by edit operations outside edit mode.
	ErrNotEditing = errors.New("not editing")
	// ErrNoResult is returned when the service answered without pixels.
	ErrNoResult = errors.New("service returned no image")
)

const (
	DefaultWatchdog  = 90 * time.Second
	DefaultBrushSize = 30
	MinBrushSize     = 10
	MaxBrushSize     = 80
)

// Controller owns the viewing/editing state for one product image.
type Controller struct {
	mu sync.Mutex

	applier   service.MaskApplier
	watchdog  time.Duration
	format    imageio.Format
	threshold bool
	brushMin  float64
	brushMax  float64
	brush     float64
	onChange  func()

	original *Image
	result   *Image
	view     View
	edit     *Edit
	busy     bool
	inflight *semaphore.Weighted
	lastErr  error

	bounds input.Rect
	dpr    float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithWatchdog bounds how long ApplyEdit waits for the service.
func WithWatchdog(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.watchdog = d
		}
	}
}

// WithMaskFormat selects the mask upload encoding.
func WithMaskFormat(f imageio.Format) Option { return func(c *Controller) { c.format = f } }

// WithThreshold snaps the compiled mask to pure black and white before upload.
func WithThreshold(on bool) Option { return func(c *Controller) { c.threshold = on } }

// WithBrushRange sets the brush limits and the initial size.
func WithBrushRange(lo, hi, initial float64) Option {
	return func(c *Controller) {
		if lo > 0 && hi >= lo {
			c.brushMin, c.brushMax = lo, hi
		}
		if initial > 0 {
			c.brush = initial
		}
	}
}

// WithOnChange registers a callback run after every state change. It is
// called without the controller lock held.
func WithOnChange(fn func()) Option { return func(c *Controller) { c.onChange = fn } }

// New returns a controller viewing original.
func New(applier service.MaskApplier, original *Image, opts ...Option) *Controller {
	c := &Controller{
		applier:  applier,
		watchdog: DefaultWatchdog,
		format:   imageio.PNG,
		brushMin: MinBrushSize,
		brushMax: MaxBrushSize,
		brush:    DefaultBrushSize,
		original: original,
		view:     Original,
		inflight: semaphore.NewWeighted(1),
		dpr:      1,
	}
	for _, o := range opts {
		o(c)
	}
	c.brush = c.clampBrush(c.brush)
	return c
}

// SetOnChange replaces the change callback.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) clampBrush(v float64) float64 {
	return math.Max(c.brushMin, math.Min(c.brushMax, v))
}

func (c *Controller) imageFor(v View) *Image {
	if v == Result {
		return c.result
	}
	return c.original
}

// SetOriginal replaces the original image, for example once it finished
// loading.
func (c *Controller) SetOriginal(img *Image) {
	c.mu.Lock()
	c.original = img
	c.mu.Unlock()
	c.changed()
}

// SetResult records an already processed image.
func (c *Controller) SetResult(img *Image) {
	c.mu.Lock()
	c.result = img
	c.mu.Unlock()
	c.changed()
}

// ShowView switches the displayed image while viewing. Switching to a
// result that does not exist is refused.
func (c *Controller) ShowView(v View) bool {
	c.mu.Lock()
	if c.edit != nil || (v == Result && c.result == nil) || c.view == v {
		c.mu.Unlock()
		return false
	}
	c.view = v
	c.mu.Unlock()
	c.changed()
	return true
}

// ToggleView flips between original and result.
func (c *Controller) ToggleView() bool {
	c.mu.Lock()
	next := Result
	if c.view == Result {
		next = Original
	}
	c.mu.Unlock()
	return c.ShowView(next)
}

// SetLayout records where the image is displayed, in logical pixels, and
// the device pixel ratio. The overlay is resized to match.
func (c *Controller) SetLayout(bounds input.Rect, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	c.mu.Lock()
	c.bounds = bounds
	c.dpr = dpr
	if c.edit != nil {
		c.edit.overlay.Resize(int(math.Round(bounds.Width)), int(math.Round(bounds.Height)), dpr)
		c.edit.redraw()
	}
	c.mu.Unlock()
	c.changed()
}

// EnterEdit starts a fresh edit session on the displayed image. It is a
// no-op when already editing or when that image has not loaded.
func (c *Controller) EnterEdit() bool {
	c.mu.Lock()
	if c.edit != nil {
		c.mu.Unlock()
		return false
	}
	img := c.imageFor(c.view)
	if !img.Loaded() {
		c.mu.Unlock()
		return false
	}
	w, h := img.Size()
	ov := render.NewOverlay()
	ov.Resize(int(math.Round(c.bounds.Width)), int(math.Round(c.bounds.Height)), c.dpr)
	e := NewEdit(c.view, img, stroke.NewHistory(), render.NewMaskBuffer(w, h), ov)
	e.Brush = c.brush
	e.redraw()
	c.edit = e
	c.lastErr = nil
	c.mu.Unlock()
	c.changed()
	return true
}

// CancelEdit leaves edit mode without submitting. Refused while a
// submission is in flight.
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	if c.edit == nil {
		c.mu.Unlock()
		return nil
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.edit.history.Discard()
	c.edit = nil
	c.lastErr = nil
	c.mu.Unlock()
	c.changed()
	return nil
}

// HandleInputEvent routes a raw event into the current edit session. bounds
// is the image's displayed rectangle. It reports whether the overlay
// changed.
func (c *Controller) HandleInputEvent(ev input.Event, bounds input.Rect) bool {
	c.mu.Lock()
	if c.edit == nil || c.busy {
		c.mu.Unlock()
		return false
	}
	if !bounds.Empty() && bounds != c.bounds {
		c.bounds = bounds
		c.edit.overlay.Resize(int(math.Round(bounds.Width)), int(math.Round(bounds.Height)), c.dpr)
		c.edit.redraw()
	}
	ok := c.edit.handle(ev, bounds)
	c.mu.Unlock()
	if ok {
		c.changed()
	}
	return ok
}

func (c *Controller) withEdit(fn func(e *Edit) bool) bool {
	c.mu.Lock()
	if c.edit == nil || c.busy {
		c.mu.Unlock()
		return false
	}
	ok := fn(c.edit)
	if ok {
		c.edit.redraw()
	}
	c.mu.Unlock()
	if ok {
		c.changed()
	}
	return ok
}

// Undo hides the most recent active stroke.
func (c *Controller) Undo() bool {
	return c.withEdit(func(e *Edit) bool {
		e.history.Discard()
		return e.history.Undo()
	})
}

// Redo restores the next undone stroke.
func (c *Controller) Redo() bool {
	return c.withEdit(func(e *Edit) bool { return e.history.Redo() })
}

// Clear empties the stroke history.
func (c *Controller) Clear() bool {
	return c.withEdit(func(e *Edit) bool {
		if e.history.IsEmpty() {
			return false
		}
		e.history.Clear()
		return true
	})
}

// SetMode selects whether new strokes keep or discard.
func (c *Controller) SetMode(m stroke.Mode) bool {
	return c.withEdit(func(e *Edit) bool {
		if e.Mode == m {
			return false
		}
		e.Mode = m
		return true
	})
}

// ToggleMode flips between keep and discard.
func (c *Controller) ToggleMode() bool {
	return c.withEdit(func(e *Edit) bool {
		e.Mode = e.Mode.Toggle()
		return true
	})
}

// SetBrushSize sets the brush diameter in logical pixels, clamped to the
// configured range. It applies to strokes started afterwards.
func (c *Controller) SetBrushSize(size float64) float64 {
	c.mu.Lock()
	c.brush = c.clampBrush(size)
	if c.edit != nil {
		c.edit.Brush = c.brush
	}
	v := c.brush
	c.mu.Unlock()
	c.changed()
	return v
}

// AdjustBrushSize changes the brush diameter by delta.
func (c *Controller) AdjustBrushSize(delta float64) float64 {
	c.mu.Lock()
	v := c.brush + delta
	c.mu.Unlock()
	return c.SetBrushSize(v)
}

// CompileMask renders the active strokes into the edit session's mask
// buffer and returns a copy of it.
func (c *Controller) CompileMask() (*image.Gray, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return nil, ErrNotEditing
	}
	return c.compileLocked()
}

func (c *Controller) compileLocked() (*image.Gray, error) {
	e := c.edit
	if err := render.Compile(e.mask, e.history.Active(), c.bounds.Width); err != nil {
		return nil, err
	}
	out := e.mask.Clone().Image()
	if c.threshold {
		render.Threshold(out)
	}
	return out, nil
}

// ApplyEdit compiles the mask and submits it. Only one submission runs at
// a time; concurrent calls get ErrBusy. If the service does not answer
// before the watchdog fires, ErrTimeout is returned and any late answer
// is ignored. On success the returned image becomes the result, the view
// switches to it and the edit session ends. On failure the session and
// its strokes are kept so the user can retry.
func (c *Controller) ApplyEdit(ctx context.Context) error {
	if !c.inflight.TryAcquire(1) {
		return ErrBusy
	}
	defer c.inflight.Release(1)

	c.mu.Lock()
	e := c.edit
	if e == nil {
		c.mu.Unlock()
		return ErrNotEditing
	}
	e.history.Commit()
	mask, err := c.compileLocked()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("compile mask: %w", err)
	}
	payload, err := imageio.EncodeMask(mask, c.format)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	req := service.MaskRequest{
		SourceRef:   e.Image.Ref,
		Mask:        payload,
		ContentType: c.format.ContentType(),
		SessionID:   e.ID,
	}
	c.busy = true
	c.lastErr = nil
	watchdog := c.watchdog
	c.mu.Unlock()
	c.changed()

	res, err := service.ApplyWithin(ctx, c.applier, req, watchdog)

	c.mu.Lock()
	c.busy = false
	if err == nil && (res == nil || res.Image == nil) {
		err = ErrNoResult
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		log.Printf("apply mask for %s: %v", req.SourceRef, err)
		c.changed()
		return err
	}
	c.result = &Image{Ref: res.Ref, Pixels: res.Image}
	c.view = Result
	c.edit = nil
	c.mu.Unlock()
	c.changed()
	return nil
}

// Snapshot is a consistent read of the controller for drawing.
type Snapshot struct {
	State     State
	View      View
	Image     *Image
	HasResult bool
	Mode      stroke.Mode
	Brush     float64
	Busy      bool
	CanUndo   bool
	CanRedo   bool
	Strokes   int
	SessionID string
	Err       error
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		View:      c.view,
		Image:     c.imageFor(c.view),
		HasResult: c.result != nil,
		Brush:     c.brush,
		Busy:      c.busy,
		Err:       c.lastErr,
	}
	if e := c.edit; e != nil {
		s.State = Editing
		s.View = e.Target
		s.Image = e.Image
		s.Mode = e.Mode
		s.CanUndo = e.history.CanUndo()
		s.CanRedo = e.history.CanRedo()
		s.Strokes = e.history.Cursor()
		s.SessionID = e.ID
	}
	return s
}

// State reports viewing or editing.
func (c *Controller) State() State { return c.Snapshot().State }

// View reports the displayed image.
func (c *Controller) View() View { return c.Snapshot().View }

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Result returns the processed image, if any.
func (c *Controller) Result() *Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Strokes returns the active strokes of the edit session.
func (c *Controller) Strokes() []stroke.Stroke {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return nil
	}
	return c.edit.history.Active()
}

// Overlay returns a copy of the live stroke preview, or nil outside edit
// mode or before a layout is known.
func (c *Controller) Overlay() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil || !c.edit.overlay.Ready() {
		return nil
	}
	src := c.edit.overlay.Image()
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
