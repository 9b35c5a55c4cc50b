package detection

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/models"
)

// Service wraps a Detector with health tracking
type Service struct {
	detector  Detector
	mu        sync.RWMutex
	isHealthy bool
}

func NewService(detector Detector) *Service {
	log.Info().Bool("available", detector != nil).Msg("Initializing person detection service")
	return &Service{
		detector:  detector,
		isHealthy: detector != nil,
	}
}

// Detect runs the detector on frame
func (s *Service) Detect(ctx context.Context, frame image.Image) (models.DetectionSet, error) {
	if s.detector == nil {
		return nil, fmt.Errorf("detection service unavailable: %w", ErrModelNotLoaded)
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}

	dets, err := s.detector.Detect(ctx, frame)
	s.mu.Lock()
	s.isHealthy = err == nil
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	log.Debug().Int("detections", len(dets)).Msg("Detection response")
	return dets, nil
}

func (s *Service) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isHealthy
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.detector != nil {
		log.Info().Msg("Shutting down person detector")
		return s.detector.Close()
	}
	return nil
}
