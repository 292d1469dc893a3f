// Package session drives mask editing for one product photograph: switching
// between the original and the processed result, collecting strokes while
// editing, and submitting the compiled mask.
package session

import (
	"image"

	"github.com/google/uuid"

	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/render"
	"github.com/example/maskpaint/internal/stroke"
)

// View selects which image is shown while not editing.
type View int

const (
	Original View = iota
	Result
)

func (v View) String() string {
	if v == Result {
		return "result"
	}
	return "original"
}

// State is the controller's top-level mode.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Image pairs a service-side reference with decoded pixels.
type Image struct {
	Ref    string
	Pixels image.Image
}

// Loaded reports whether the pixels are available.
func (i *Image) Loaded() bool {
	return i != nil && i.Pixels != nil && !i.Pixels.Bounds().Empty()
}

// Size returns the native pixel size.
func (i *Image) Size() (int, int) {
	if !i.Loaded() {
		return 0, 0
	}
	b := i.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Edit is one activation of edit mode. It owns its history, mask buffer
// and overlay and is dropped on apply or cancel.
type Edit struct {
	ID      string
	Target  View
	Image   *Image
	Mode    stroke.Mode
	Brush   float64
	history *stroke.History
	mask    *render.MaskBuffer
	overlay *render.Overlay
}

// NewEdit assembles an edit session from the objects it will own.
func NewEdit(target View, img *Image, h *stroke.History, mask *render.MaskBuffer, overlay *render.Overlay) *Edit {
	return &Edit{
		ID:      uuid.NewString(),
		Target:  target,
		Image:   img,
		Mode:    stroke.Add,
		history: h,
		mask:    mask,
		overlay: overlay,
	}
}

// History exposes the stroke log.
func (e *Edit) History() *stroke.History { return e.history }

// Mask exposes the mask buffer.
func (e *Edit) Mask() *render.MaskBuffer { return e.mask }

func (e *Edit) redraw() {
	var open *stroke.Stroke
	if s, ok := e.history.InProgress(); ok {
		open = &s
	}
	e.overlay.Render(e.history.Active(), open)
}

// handle feeds one input event through the mapper into the history. It
// reports whether anything visible changed.
func (e *Edit) handle(ev input.Event, bounds input.Rect) bool {
	h := e.history
	switch ev.Kind.Phase() {
	case input.PhaseStart:
		wasDrawing := h.Drawing()
		h.Commit()
		p, ok := input.Map(ev, bounds)
		if !ok {
			if wasDrawing {
				e.redraw()
			}
			return wasDrawing
		}
		if err := h.Begin(e.Mode, e.Brush); err != nil {
			return false
		}
		h.Append(p)
	case input.PhaseMove:
		if !h.Drawing() {
			return false
		}
		p, ok := input.Map(ev, bounds)
		if !ok || !e.appendDistinct(p) {
			return false
		}
	case input.PhaseEnd:
		if !h.Drawing() {
			return false
		}
		if p, ok := input.Map(ev, bounds); ok {
			e.appendDistinct(p)
		}
		h.Commit()
	default:
		return false
	}
	e.redraw()
	return true
}

func (e *Edit) appendDistinct(p stroke.Point) bool {
	if s, ok := e.history.InProgress(); ok && len(s.Points) > 0 && s.Points[len(s.Points)-1] == p {
		return false
	}
	return e.history.Append(p)
}
