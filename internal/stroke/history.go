package stroke

import "errors"

// ErrStrokeOpen is returned by Begin when the previous stroke was neither
// committed nor discarded.
var ErrStrokeOpen = errors.New("stroke already in progress")

// MinPoints is the number of points a stroke needs to survive Commit.
const MinPoints = 2

// History is an ordered log of committed strokes with an undo cursor.
// Strokes before the cursor are active; the rest can be redone until the
// next commit truncates them. A History is not safe for concurrent use.
type History struct {
	strokes []Stroke
	cursor  int
	open    *Stroke
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{} }

// Begin opens a new in-progress stroke.
func (h *History) Begin(mode Mode, brushSize float64) error {
	if h.open != nil {
		return ErrStrokeOpen
	}
	h.open = &Stroke{Mode: mode, BrushSize: brushSize}
	return nil
}

// Append adds p to the in-progress stroke. It reports false when no stroke
// is open.
func (h *History) Append(p Point) bool {
	if h.open == nil {
		return false
	}
	h.open.Points = append(h.open.Points, p)
	return true
}

// Commit moves the in-progress stroke into the history. Strokes with fewer
// than MinPoints points are dropped. Any redo branch past the cursor is
// discarded. It reports whether the active subset changed.
func (h *History) Commit() bool {
	open := h.open
	h.open = nil
	if open == nil || len(open.Points) < MinPoints {
		return false
	}
	h.strokes = append(h.strokes[:h.cursor], *open)
	h.cursor = len(h.strokes)
	return true
}

// Discard drops the in-progress stroke, if any.
func (h *History) Discard() { h.open = nil }

// Undo moves the cursor back by one.
func (h *History) Undo() bool {
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// Redo moves the cursor forward by one.
func (h *History) Redo() bool {
	if h.cursor >= len(h.strokes) {
		return false
	}
	h.cursor++
	return true
}

// Clear empties the history and drops any in-progress stroke.
func (h *History) Clear() {
	h.strokes = nil
	h.cursor = 0
	h.open = nil
}

// Active returns a copy of the strokes before the cursor in commit order.
func (h *History) Active() []Stroke {
	out := make([]Stroke, h.cursor)
	for i := range out {
		out[i] = h.strokes[i].Clone()
	}
	return out
}

// InProgress returns a copy of the open stroke.
func (h *History) InProgress() (Stroke, bool) {
	if h.open == nil {
		return Stroke{}, false
	}
	return h.open.Clone(), true
}

// Drawing reports whether a stroke is open.
func (h *History) Drawing() bool { return h.open != nil }

func (h *History) Cursor() int { return h.cursor }
func (h *History) Len() int { return len(h.strokes) }
func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.strokes) }
func (h *History) IsEmpty() bool { return len(h.strokes) == 0 && h.open == nil }
