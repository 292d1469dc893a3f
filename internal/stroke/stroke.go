// Package stroke holds the vector model of a mask edit: brush modes, strokes
// in image-normalized coordinates and the undo/redo history that orders them.
package stroke

import (
	"fmt"
	"image/color"
	"strings"
)

// Mode selects whether a stroke marks pixels as keep or discard.
type Mode int

const (
	// Add marks painted pixels as keep.
	Add Mode = iota
	// Remove marks painted pixels as discard.
	Remove
)

func (m Mode) String() string {
	switch m {
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "add"/"keep" and "remove"/"erase"/"discard".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "keep", "+":
		return Add, nil
	case "remove", "erase", "discard", "-":
		return Remove, nil
	}
	return Add, fmt.Errorf("unknown brush mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Add && m != Remove {
		return nil, fmt.Errorf("unknown brush mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Add {
		return Remove
	}
	return Add
}

// Point is a position normalized to the displayed image box, (0,0) top-left
// and (1,1) bottom-right.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous paint gesture. BrushSize is in screen pixels at
// the time the stroke was drawn.
type Stroke struct {
	Mode      Mode    `json:"mode"`
	BrushSize float64 `json:"brush_size"`
	Points    []Point `json:"points"`
}

// Clone returns a deep copy of s.
func (s Stroke) Clone() Stroke {
	pts := make([]Point, len(s.Points))
	copy(pts, s.Points)
	s.Points = pts
	return s
}

var (
	previewAdd    = color.NRGBA{R: 0x22, G: 0xC5, B: 0x5E, A: 0x8C}
	previewRemove = color.NRGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0x8C}
)

// PreviewColorFor is the translucent overlay color shown to the operator.
// It never affects compiled mask values.
func PreviewColorFor(m Mode) color.NRGBA {
	if m == Add {
		return previewAdd
	}
	return previewRemove
}

// MaskColorFor is the opaque color a stroke writes into the compiled mask:
// white for keep and black for discard.
func MaskColorFor(m Mode) color.Gray {
	if m == Add {
		return color.Gray{Y: 0xFF}
	}
	return color.Gray{Y: 0x00}
}
