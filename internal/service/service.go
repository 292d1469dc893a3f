// Package service talks to the remote background removal and apply-mask
// endpoints. The editor only ever sees the small interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// MaskRequest carries a compiled mask for a source image.
type MaskRequest struct {
	SourceRef   string
	Mask        []byte
	ContentType string
	SessionID   string
}

// PreparedImage is an image produced by the service.
type PreparedImage struct {
	Ref   string
	URL   string
	Image image.Image
}

// MaskApplier submits compiled masks.
type MaskApplier interface {
	ApplyMask(ctx context.Context, req MaskRequest) (*PreparedImage, error)
}

// BackgroundRemover asks the service to segment a source image on its own.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, sourceRef string) (*PreparedImage, error)
}

// ErrRejected matches every RejectedError.
var ErrRejected = errors.New("request rejected by service")

// RejectedError is a well-formed refusal from the service.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("service rejected request (status %d): %s", e.Status, e.Message)
	}
	return "service rejected request: " + e.Message
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }
