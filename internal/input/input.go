// Package input maps raw pointer and touch events from any UI toolkit onto
// image-normalized stroke coordinates.
package input

import (
	"math"

	"github.com/example/maskpaint/internal/stroke"
)

// Kind identifies the raw event type.
type Kind int

const (
	PointerDown Kind = iota
	PointerMove
	PointerUp
	PointerCancel
	TouchStart
	TouchMove
	TouchEnd
	TouchCancel
)

// Phase groups event kinds by their role in a gesture.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseStart
	PhaseMove
	PhaseEnd
)

// Phase reports the gesture phase of k. Cancels end the gesture.
func (k Kind) Phase() Phase {
	switch k {
	case PointerDown, TouchStart:
		return PhaseStart
	case PointerMove, TouchMove:
		return PhaseMove
	case PointerUp, PointerCancel, TouchEnd, TouchCancel:
		return PhaseEnd
	}
	return PhaseNone
}

// IsTouch reports whether k originates from a touch surface.
func (k Kind) IsTouch() bool { return k >= TouchStart && k <= TouchCancel }

// Touch is one contact point of a touch event in client coordinates.
type Touch struct {
	ClientX, ClientY float64
}

// Event is a toolkit-independent input event. Pointer events use ClientX
// and ClientY; touch events use Touches, of which only the first counts.
type Event struct {
	Kind    Kind
	ClientX float64
	ClientY float64
	Touches []Touch
}

// Rect is the client-space bounding box of the displayed image.
type Rect struct {
	Left, Top, Width, Height float64
}

// Empty reports whether r has no usable area.
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// Client returns the position the event refers to.
func (e Event) Client() (x, y float64, ok bool) {
	if e.Kind.IsTouch() {
		if len(e.Touches) == 0 {
			return 0, 0, false
		}
		return e.Touches[0].ClientX, e.Touches[0].ClientY, true
	}
	return e.ClientX, e.ClientY, true
}

// Map converts ev into a point normalized to r and clamped to [0,1]. It
// reports false when the event carries no position, the coordinates are
// not finite or r has no area.
func Map(ev Event, r Rect) (stroke.Point, bool) {
	if r.Empty() {
		return stroke.Point{}, false
	}
	x, y, ok := ev.Client()
	if !ok || !finite(x) || !finite(y) {
		return stroke.Point{}, false
	}
	return stroke.Point{
		X: clamp01((x - r.Left) / r.Width),
		Y: clamp01((y - r.Top) / r.Height),
	}, true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
