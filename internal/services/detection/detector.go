package detection

import (
	"context"
	"errors"
	"image"

	"distancing-worker-go/internal/models"
)

var (
	// ErrModelNotLoaded is returned when the detector network could not be initialized
	ErrModelNotLoaded = errors.New("detection model not loaded")
	// ErrEmptyFrame is returned for frames with no pixels
	ErrEmptyFrame = errors.New("frame is empty")
)

// Detector finds people in a single frame
type Detector interface {
	Detect(ctx context.Context, frame image.Image) (models.DetectionSet, error)
	Close() error
}

// DetectorFunc adapts a plain function to the Detector interface
type DetectorFunc func(ctx context.Context, frame image.Image) (models.DetectionSet, error)

// Detect calls f
func (f DetectorFunc) Detect(ctx context.Context, frame image.Image) (models.DetectionSet, error) {
	return f(ctx, frame)
}

// Close is a no-op
func (f DetectorFunc) Close() error {
	return nil
}
