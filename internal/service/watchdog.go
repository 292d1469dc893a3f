package service

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by ApplyWithin when the watchdog fires first.
var ErrTimeout = errors.New("mask submission timed out")

// ApplyWithin runs a.ApplyMask and waits at most d for it. When d elapses
// the request context is cancelled, ErrTimeout is returned and whatever the
// applier returns later is dropped.
func ApplyWithin(ctx context.Context, a MaskApplier, req MaskRequest, d time.Duration) (*PreparedImage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type answer struct {
		img *PreparedImage
		err error
	}
	done := make(chan answer, 1)
	go func() {
		img, err := a.ApplyMask(ctx, req)
		done <- answer{img, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.img, r.err
	case <-timer.C:
		return nil, ErrTimeout
	}
}
