package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type applierFunc func(ctx context.Context, req MaskRequest) (*PreparedImage, error)

func (f applierFunc) ApplyMask(ctx context.Context, req MaskRequest) (*PreparedImage, error) {
	return f(ctx, req)
}

func TestApplyWithinReturnsAnswer(t *testing.T) {
	want := errors.New("boom")
	_, err := ApplyWithin(context.Background(), applierFunc(func(context.Context, MaskRequest) (*PreparedImage, error) {
		return nil, want
	}), MaskRequest{}, time.Second)
	require.ErrorIs(t, err, want)

	out, err := ApplyWithin(context.Background(), applierFunc(func(_ context.Context, req MaskRequest) (*PreparedImage, error) {
		return &PreparedImage{Ref: req.SourceRef + "-done"}, nil
	}), MaskRequest{SourceRef: "a"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "a-done", out.Ref)
}

func TestApplyWithinTimesOut(t *testing.T) {
	cancelled := make(chan struct{})
	start := time.Now()
	_, err := ApplyWithin(context.Background(), applierFunc(func(ctx context.Context, _ MaskRequest) (*PreparedImage, error) {
		<-ctx.Done()
		close(cancelled)
		return &PreparedImage{Ref: "late"}, nil
	}), MaskRequest{}, 20*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), time.Second)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("request context was not cancelled")
	}
}
