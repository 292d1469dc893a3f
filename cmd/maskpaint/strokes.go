package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/session"
	"github.com/example/maskpaint/internal/stroke"
)

// displaySize is the logical size the strokes were drawn at.
type displaySize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// strokeScript is a recorded editing session.
type strokeScript struct {
	Display displaySize     `json:"display"`
	Strokes []stroke.Stroke `json:"strokes"`
}

// pointScript is a single keep drag for the refine command.
type pointScript struct {
	Display displaySize    `json:"display"`
	Points  []stroke.Point `json:"points"`
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (d displaySize) validate() error {
	if !(d.Width > 0) || !(d.Height > 0) {
		return errors.New("display width and height must be positive")
	}
	return nil
}

func (d displaySize) bounds() input.Rect {
	return input.Rect{Width: d.Width, Height: d.Height}
}

func loadStrokeScript(path string) (*strokeScript, error) {
	var s strokeScript
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if err := s.Display.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

func loadPointScript(path string) (*pointScript, error) {
	var s pointScript
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if err := s.Display.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// brushRange widens lo..hi so every scripted brush size survives clamping.
func (s *strokeScript) brushRange(lo, hi float64) (float64, float64) {
	for _, st := range s.Strokes {
		lo = min(lo, st.BrushSize)
		hi = max(hi, st.BrushSize)
	}
	return lo, hi
}

// replay feeds the script through ctrl as pointer events, exactly as the
// editor window would.
func replay(ctrl *session.Controller, s *strokeScript) error {
	bounds := s.Display.bounds()
	ctrl.SetLayout(bounds, 1)
	if ctrl.State() != session.Editing && !ctrl.EnterEdit() {
		return errors.New("cannot start editing: image not loaded")
	}
	for _, st := range s.Strokes {
		if len(st.Points) == 0 {
			continue
		}
		ctrl.SetMode(st.Mode)
		ctrl.SetBrushSize(st.BrushSize)
		for i, p := range st.Points {
			kind := input.PointerMove
			if i == 0 {
				kind = input.PointerDown
			}
			ctrl.HandleInputEvent(pointerAt(kind, p, bounds), bounds)
		}
		last := st.Points[len(st.Points)-1]
		ctrl.HandleInputEvent(pointerAt(input.PointerUp, last, bounds), bounds)
	}
	return nil
}

func pointerAt(kind input.Kind, p stroke.Point, r input.Rect) input.Event {
	return input.Event{Kind: kind, ClientX: r.Left + p.X*r.Width, ClientY: r.Top + p.Y*r.Height}
}

// newSession loads the source image and wraps it in a controller configured
// from r. ref defaults to the file name.
func (r *root) newSession(file, ref string, applier service.MaskApplier, extra ...session.Option) (*session.Controller, error) {
	img, err := loadImage(file)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		ref = file
	}
	opts, err := r.controllerOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)
	return session.New(applier, &session.Image{Ref: ref, Pixels: img}, opts...), nil
}

func loadImage(source string) (image.Image, error) {
	img, err := imageio.LoadSource(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	return img, nil
}
