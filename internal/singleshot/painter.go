// Package singleshot is a minimal mask painter without stroke history. It
// paints straight into a persistent mask buffer and submits that buffer as
// is.
package singleshot

import (
	"context"
	"errors"
	"image"
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
	// ErrNoImage is returned by Apply when the source image has no pixels.
	ErrNoImage = errors.New("image not loaded")
)

// State of the painter.
type State int

const (
	Idle State = iota
	Painting
)

func (s State) String() string {
	if s == Painting {
		return "painting"
	}
	return "idle"
}

// Painter keeps a single keep-only mask.
type Painter struct {
	mu       sync.Mutex
	applier  service.MaskApplier
	ref      string
	mask     *render.MaskBuffer
	width    float64
	state    State
	last     stroke.Point
	hasLast  bool
	watchdog time.Duration
	format   imageio.Format
	inflight *semaphore.Weighted
}

// New returns a painter for the source image ref with a native size of
// width by height. The mask starts all discard.
func New(applier service.MaskApplier, ref string, width, height int) *Painter {
	p := &Painter{
		applier:  applier,
		ref:      ref,
		mask:     render.NewMaskBuffer(width, height),
		watchdog: 90 * time.Second,
		format:   imageio.PNG,
		inflight: semaphore.NewWeighted(1),
	}
	p.mask.Reset()
	return p
}

// SetWatchdog bounds how long Apply waits.
func (p *Painter) SetWatchdog(d time.Duration) {
	if d > 0 {
		p.watchdog = d
	}
}

// SetFormat selects the upload encoding.
func (p *Painter) SetFormat(f imageio.Format) { p.format = f }

// SetDisplayWidth records the logical width the image is shown at, which
// converts brush sizes to native pixels.
func (p *Painter) SetDisplayWidth(w float64) {
	p.mu.Lock()
	p.width = w
	p.mu.Unlock()
}

// State returns the current state.
func (p *Painter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// PointerDown starts painting.
func (p *Painter) PointerDown() {
	p.mu.Lock()
	p.state = Painting
	p.hasLast = false
	p.mu.Unlock()
}

// PointerUp stops painting.
func (p *Painter) PointerUp() {
	p.mu.Lock()
	p.state = Idle
	p.hasLast = false
	p.mu.Unlock()
}

// Paint draws a keep dab at pt, joined to the previous dab of the same
// drag. It does nothing while idle or before the display width is known.
func (p *Painter) Paint(pt stroke.Point, brushSize float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Painting || !(p.width > 0) || !p.mask.Ready() {
		return false
	}
	s := stroke.Stroke{Mode: stroke.Add, BrushSize: brushSize, Points: []stroke.Point{pt}}
	if p.hasLast {
		s.Points = []stroke.Point{p.last, pt}
	}
	p.mask.Paint(s, float64(p.mask.Bounds().Dx())/p.width)
	p.last, p.hasLast = pt, true
	return true
}

// HandleInputEvent drives the painter from raw events on an image shown
// inside bounds.
func (p *Painter) HandleInputEvent(ev input.Event, bounds input.Rect, brushSize float64) bool {
	switch ev.Kind.Phase() {
	case input.PhaseStart:
		p.SetDisplayWidth(bounds.Width)
		p.PointerDown()
	case input.PhaseEnd:
		p.PointerUp()
		return false
	case input.PhaseNone:
		return false
	}
	pt, ok := input.Map(ev, bounds)
	if !ok {
		return false
	}
	return p.Paint(pt, brushSize)
}

// Clear resets the mask to all discard.
func (p *Painter) Clear() {
	p.mu.Lock()
	p.mask.Reset()
	p.hasLast = false
	p.mu.Unlock()
}

// Mask returns a copy of the current mask, or nil when the image is not
// loaded.
func (p *Painter) Mask() *image.Gray {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mask.Ready() {
		return nil
	}
	return p.mask.Clone().Image()
}

// Apply submits the mask. Concurrent calls get ErrBusy.
func (p *Painter) Apply(ctx context.Context) (*service.PreparedImage, error) {
	if !p.inflight.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer p.inflight.Release(1)

	p.mu.Lock()
	if !p.mask.Ready() {
		p.mu.Unlock()
		return nil, ErrNoImage
	}
	payload, err := imageio.EncodeMask(p.mask.Image(), p.format)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return service.ApplyWithin(ctx, p.applier, service.MaskRequest{
		SourceRef:   p.ref,
		Mask:        payload,
		ContentType: p.format.ContentType(),
	}, p.watchdog)
}
