package session

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/maskpaint/internal/imageio"
	"github.com/example/maskpaint/internal/input"
	"github.com/example/maskpaint/internal/service"
	"github.com/example/maskpaint/internal/stroke"
)

type fakeApplier struct {
	calls   atomic.Int32
	mu      sync.Mutex
	reqs    []service.MaskRequest
	release chan struct{}
	img     *service.PreparedImage
	err     error
}

func (f *fakeApplier) ApplyMask(ctx context.Context, req service.MaskRequest) (*service.PreparedImage, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.img, f.err
}

func solid(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img
}

var bounds = input.Rect{Left: 100, Top: 50, Width: 500, Height: 500}

func newEditing(t *testing.T, f *fakeApplier, opts ...Option) *Controller {
	t.Helper()
	c := New(f, &Image{Ref: "products/1.jpg", Pixels: solid(1000, 1000)}, opts...)
	c.SetLayout(bounds, 1)
	require.True(t, c.EnterEdit())
	return c
}

func drag(c *Controller, pts ...[2]float64) {
	for i, p := range pts {
		kind := input.PointerMove
		switch i {
		case 0:
			kind = input.PointerDown
		case len(pts) - 1:
			kind = input.PointerUp
		}
		c.HandleInputEvent(input.Event{Kind: kind, ClientX: p[0], ClientY: p[1]}, bounds)
	}
}

func prepared() *service.PreparedImage {
	return &service.PreparedImage{Ref: "prepared/1.png", Image: solid(1000, 1000)}
}

func TestEnterEditRequiresLoadedImage(t *testing.T) {
	c := New(&fakeApplier{}, &Image{Ref: "products/1.jpg"})
	require.False(t, c.EnterEdit())
	require.Equal(t, Viewing, c.State())

	c.SetOriginal(&Image{Ref: "products/1.jpg", Pixels: solid(10, 10)})
	require.True(t, c.EnterEdit())
	require.Equal(t, Editing, c.State())
	require.False(t, c.EnterEdit())
}

func TestEnterEditTargetsDisplayedView(t *testing.T) {
	c := New(&fakeApplier{}, &Image{Ref: "o", Pixels: solid(10, 10)})
	require.False(t, c.ShowView(Result))
	c.SetResult(&Image{Ref: "r", Pixels: solid(20, 20)})
	require.True(t, c.ToggleView())
	require.True(t, c.EnterEdit())
	snap := c.Snapshot()
	require.Equal(t, Result, snap.View)
	require.Equal(t, "r", snap.Image.Ref)
	require.NotEmpty(t, snap.SessionID)
	require.False(t, c.ToggleView())
}

func TestStrokesFromPointerEvents(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	drag(c, [2]float64{150, 100}, [2]float64{300, 300}, [2]float64{400, 300})

	strokes := c.Strokes()
	require.Len(t, strokes, 1)
	require.Equal(t, stroke.Add, strokes[0].Mode)
	require.Equal(t, float64(DefaultBrushSize), strokes[0].BrushSize)
	require.Equal(t, stroke.Point{X: 0.1, Y: 0.1}, strokes[0].Points[0])
	require.Equal(t, stroke.Point{X: 0.6, Y: 0.5}, strokes[0].Points[2])
	require.NotNil(t, c.Overlay())
}

func TestTapLeavesNoStroke(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	drag(c, [2]float64{200, 200}, [2]float64{200, 200})
	require.Empty(t, c.Strokes())
}

func TestPointerDownCommitsOpenStroke(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	c.HandleInputEvent(input.Event{Kind: input.PointerDown, ClientX: 150, ClientY: 150}, bounds)
	c.HandleInputEvent(input.Event{Kind: input.PointerMove, ClientX: 250, ClientY: 150}, bounds)
	c.HandleInputEvent(input.Event{Kind: input.PointerDown, ClientX: 300, ClientY: 300}, bounds)
	require.Len(t, c.Strokes(), 1)
}

func TestTouchEventsUseFirstContact(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	c.HandleInputEvent(input.Event{Kind: input.TouchStart, Touches: []input.Touch{{ClientX: 100, ClientY: 50}, {ClientX: 1, ClientY: 1}}}, bounds)
	c.HandleInputEvent(input.Event{Kind: input.TouchMove, Touches: []input.Touch{{ClientX: 600, ClientY: 550}}}, bounds)
	c.HandleInputEvent(input.Event{Kind: input.TouchEnd}, bounds)
	strokes := c.Strokes()
	require.Len(t, strokes, 1)
	require.Equal(t, []stroke.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, strokes[0].Points)
}

func TestModeAndBrushApplyToNewStrokes(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	require.True(t, c.SetMode(stroke.Remove))
	require.False(t, c.SetMode(stroke.Remove))
	require.Equal(t, float64(MaxBrushSize), c.SetBrushSize(500))
	require.Equal(t, float64(MaxBrushSize-10), c.AdjustBrushSize(-10))
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})
	s := c.Strokes()[0]
	require.Equal(t, stroke.Remove, s.Mode)
	require.Equal(t, float64(MaxBrushSize-10), s.BrushSize)
	require.True(t, c.ToggleMode())
	require.Equal(t, stroke.Add, c.Snapshot().Mode)
}

func TestUndoRedoClear(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	require.False(t, c.Undo())
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})
	drag(c, [2]float64{160, 100}, [2]float64{310, 300})
	require.True(t, c.Undo())
	require.Len(t, c.Strokes(), 1)
	require.True(t, c.Snapshot().CanRedo)
	require.True(t, c.Redo())
	require.Len(t, c.Strokes(), 2)
	require.True(t, c.Clear())
	require.Empty(t, c.Strokes())
	require.False(t, c.Clear())
}

func TestCancelEditDiscardsSession(t *testing.T) {
	f := &fakeApplier{}
	c := newEditing(t, f)
	c.HandleInputEvent(input.Event{Kind: input.PointerDown, ClientX: 150, ClientY: 150}, bounds)
	c.HandleInputEvent(input.Event{Kind: input.PointerMove, ClientX: 250, ClientY: 150}, bounds)
	require.NoError(t, c.CancelEdit())
	require.Equal(t, Viewing, c.State())
	require.Equal(t, Original, c.View())
	require.Nil(t, c.Overlay())
	require.Zero(t, f.calls.Load())
	require.Equal(t, "products/1.jpg", c.Snapshot().Image.Ref)
	require.Nil(t, c.Result())

	require.True(t, c.EnterEdit())
	require.Empty(t, c.Strokes())
}

func TestEventBoundsResizeOverlay(t *testing.T) {
	c := newEditing(t, &fakeApplier{})
	require.Equal(t, image.Rect(0, 0, 500, 500), c.Overlay().Bounds())

	wide := input.Rect{Left: 0, Top: 0, Width: 800, Height: 800}
	c.HandleInputEvent(input.Event{Kind: input.PointerDown, ClientX: 400, ClientY: 400}, wide)
	c.HandleInputEvent(input.Event{Kind: input.PointerUp, ClientX: 600, ClientY: 400}, wide)
	require.Equal(t, image.Rect(0, 0, 800, 800), c.Overlay().Bounds())

	mask, err := c.CompileMask()
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), mask.GrayAt(625, 500).Y)
}

func TestApplySuccessShowsResult(t *testing.T) {
	f := &fakeApplier{img: prepared()}
	c := newEditing(t, f, WithMaskFormat(imageio.WebP))
	id := c.Snapshot().SessionID
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})

	require.NoError(t, c.ApplyEdit(context.Background()))
	require.Equal(t, Viewing, c.State())
	require.Equal(t, Result, c.View())
	require.Equal(t, "prepared/1.png", c.Result().Ref)
	require.Nil(t, c.Strokes())

	require.Len(t, f.reqs, 1)
	req := f.reqs[0]
	require.Equal(t, "products/1.jpg", req.SourceRef)
	require.Equal(t, id, req.SessionID)
	require.Equal(t, "image/webp", req.ContentType)
	mask, err := imageio.Decode(req.Mask)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 1000, 1000), mask.Bounds())
	g := color.GrayModel.Convert(mask.At(100, 100)).(color.Gray)
	require.Equal(t, uint8(0xFF), g.Y)
}

func TestApplyFailureKeepsHistory(t *testing.T) {
	f := &fakeApplier{err: &service.RejectedError{Message: "empty mask"}}
	c := newEditing(t, f)
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})

	err := c.ApplyEdit(context.Background())
	require.ErrorIs(t, err, service.ErrRejected)
	require.Equal(t, Editing, c.State())
	require.Len(t, c.Strokes(), 1)
	require.False(t, c.Busy())
	require.ErrorIs(t, c.Snapshot().Err, service.ErrRejected)

	f.err, f.img = nil, prepared()
	require.NoError(t, c.ApplyEdit(context.Background()))
	require.Equal(t, int32(2), f.calls.Load())
}

func TestApplyWithoutPixelsFails(t *testing.T) {
	c := newEditing(t, &fakeApplier{img: &service.PreparedImage{Ref: "x"}})
	require.ErrorIs(t, c.ApplyEdit(context.Background()), ErrNoResult)
	require.Equal(t, Editing, c.State())
}

func TestApplyOutsideEditMode(t *testing.T) {
	c := New(&fakeApplier{}, &Image{Ref: "o", Pixels: solid(10, 10)})
	require.ErrorIs(t, c.ApplyEdit(context.Background()), ErrNotEditing)
	_, err := c.CompileMask()
	require.ErrorIs(t, err, ErrNotEditing)
}

func TestConcurrentApplySubmitsOnce(t *testing.T) {
	f := &fakeApplier{img: prepared(), release: make(chan struct{})}
	c := newEditing(t, f)
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})

	first := make(chan error, 1)
	go func() { first <- c.ApplyEdit(context.Background()) }()
	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	require.ErrorIs(t, c.ApplyEdit(context.Background()), ErrBusy)
	require.ErrorIs(t, c.CancelEdit(), ErrBusy)
	require.False(t, c.Undo())
	require.False(t, c.HandleInputEvent(input.Event{Kind: input.PointerDown, ClientX: 200, ClientY: 200}, bounds))

	close(f.release)
	require.NoError(t, <-first)
	require.Equal(t, int32(1), f.calls.Load())
	require.Equal(t, Result, c.View())
}

func TestApplyWatchdogTimeout(t *testing.T) {
	f := &fakeApplier{img: prepared(), release: make(chan struct{})}
	defer close(f.release)
	c := newEditing(t, f, WithWatchdog(20*time.Millisecond))
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})

	err := c.ApplyEdit(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	require.False(t, c.Busy())
	require.Equal(t, Editing, c.State())
	require.Len(t, c.Strokes(), 1)
	require.Nil(t, c.Result())
}

func TestCompileMaskUsesLayoutWidth(t *testing.T) {
	c := newEditing(t, &fakeApplier{}, WithThreshold(true))
	drag(c, [2]float64{150, 100}, [2]float64{300, 300})
	mask, err := c.CompileMask()
	require.NoError(t, err)
	require.Equal(t, 1000, mask.Bounds().Dx())
	require.Equal(t, uint8(0xFF), mask.GrayAt(100, 100).Y)
	require.Equal(t, uint8(0), mask.GrayAt(900, 900).Y)
	for _, v := range mask.Pix {
		if v != 0 && v != 0xFF {
			t.Fatalf("thresholded mask has grey value %d", v)
		}
	}
}

func TestOnChangeCalled(t *testing.T) {
	var n atomic.Int32
	c := New(&fakeApplier{}, &Image{Ref: "o", Pixels: solid(10, 10)}, WithOnChange(func() { n.Add(1) }))
	c.EnterEdit()
	c.SetBrushSize(20)
	require.NoError(t, c.CancelEdit())
	require.Equal(t, int32(3), n.Load())
}

func TestBrushRangeOption(t *testing.T) {
	c := New(&fakeApplier{}, nil, WithBrushRange(5, 15, 100))
	require.Equal(t, 15.0, c.Snapshot().Brush)
	require.Equal(t, 5.0, c.SetBrushSize(1))
}
