package input

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/maskpaint/internal/stroke"
)

func TestMap(t *testing.T) {
	r := Rect{Left: 100, Top: 50, Width: 400, Height: 200}
	tests := []struct {
		name string
		ev   Event
		want stroke.Point
		ok   bool
	}{
		{"center", Event{Kind: PointerMove, ClientX: 300, ClientY: 150}, stroke.Point{X: 0.5, Y: 0.5}, true},
		{"top left", Event{Kind: PointerDown, ClientX: 100, ClientY: 50}, stroke.Point{}, true},
		{"clamped low", Event{Kind: PointerMove, ClientX: 0, ClientY: -20}, stroke.Point{}, true},
		{"clamped high", Event{Kind: PointerUp, ClientX: 900, ClientY: 900}, stroke.Point{X: 1, Y: 1}, true},
		{"first touch wins", Event{Kind: TouchMove, Touches: []Touch{{ClientX: 200, ClientY: 100}, {ClientX: 500, ClientY: 250}}}, stroke.Point{X: 0.25, Y: 0.25}, true},
		{"touch without contacts", Event{Kind: TouchEnd, ClientX: 300, ClientY: 150}, stroke.Point{}, false},
		{"nan", Event{Kind: PointerMove, ClientX: math.NaN(), ClientY: 1}, stroke.Point{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Map(tt.ev, r)
			require.Equal(t, tt.ok, ok)
			require.InDelta(t, tt.want.X, got.X, 1e-9)
			require.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestMapEmptyRect(t *testing.T) {
	_, ok := Map(Event{Kind: PointerDown, ClientX: 1, ClientY: 1}, Rect{Width: 0, Height: 10})
	require.False(t, ok)
	_, ok = Map(Event{Kind: PointerDown}, Rect{Width: 10, Height: math.NaN()})
	require.False(t, ok)
}

func TestPhase(t *testing.T) {
	require.Equal(t, PhaseStart, TouchStart.Phase())
	require.Equal(t, PhaseMove, PointerMove.Phase())
	require.Equal(t, PhaseEnd, TouchCancel.Phase())
	require.Equal(t, PhaseEnd, PointerUp.Phase())
	require.Equal(t, PhaseNone, Kind(99).Phase())
	require.True(t, TouchEnd.IsTouch())
	require.False(t, PointerCancel.IsTouch())
}
