package pipeline

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/helpers"
	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/models"
	"distancing-worker-go/internal/services/detection"
	"distancing-worker-go/internal/services/overlay"
	"distancing-worker-go/internal/services/proximity"
)

// PersonDetector finds people in a frame
type PersonDetector interface {
	Detect(ctx context.Context, frame image.Image) (models.DetectionSet, error)
}

// ReportPublisher receives one report per processed frame
type ReportPublisher interface {
	PublishReport(report models.FrameReport) error
}

// FrameSink receives every annotated frame, e.g. a live preview
type FrameSink interface {
	PublishFrame(source string, frame image.Image) error
}

// Result is everything produced for a single frame
type Result struct {
	Frame      *image.NRGBA
	Detections models.DetectionSet
	Violations models.ViolationSet
	Report     models.FrameReport
}

// Processor runs detect -> evaluate -> annotate -> report for one frame at a
// time. Frames share no state beyond the frame counter.
type Processor struct {
	cfg        *config.Config
	detector   PersonDetector
	publishers []ReportPublisher
	sinks      []FrameSink
	style      overlay.Style
	frameID    *atomic.Int64
	logger     zerolog.Logger
}

// NewProcessor builds a processor. detector may be nil for callers that only
// supply their own detections; publisher may be nil to skip reporting.
func NewProcessor(cfg *config.Config, detector PersonDetector, publisher ReportPublisher) *Processor {
	style := overlay.DefaultStyle()
	style.Opacity = cfg.OverlayOpacity

	p := &Processor{
		cfg:      cfg,
		detector: detector,
		style:    style,
		frameID:  new(atomic.Int64),
		logger:   logging.NewServiceLogger(cfg, "pipeline"),
	}
	if publisher != nil {
		p.publishers = append(p.publishers, publisher)
	}
	return p
}

// Detached returns a processor that shares the detector and frame counter
// but has no report publishers or frame sinks. One-off uploads go through it
// so they stay out of the per-source history, live feed and preview.
func (p *Processor) Detached() *Processor {
	return &Processor{
		cfg:      p.cfg,
		detector: p.detector,
		style:    p.style,
		frameID:  p.frameID,
		logger:   p.logger,
	}
}

// AddReportPublisher registers another report consumer. Not safe to call
// while frames are being processed.
func (p *Processor) AddReportPublisher(publisher ReportPublisher) {
	p.publishers = append(p.publishers, publisher)
}

// AddFrameSink registers sink for annotated frames. Not safe to call while
// frames are being processed.
func (p *Processor) AddFrameSink(sink FrameSink) {
	p.sinks = append(p.sinks, sink)
}

// ProcessFrame resizes frame to the configured width, detects people and
// renders the violation overlay.
func (p *Processor) ProcessFrame(ctx context.Context, source string, frame image.Image) (*Result, error) {
	if p.detector == nil {
		return nil, fmt.Errorf("no person detector configured: %w", detection.ErrModelNotLoaded)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	frame = helpers.ResizeToWidth(frame, p.cfg.FrameWidth)

	detections, err := p.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("person detection failed: %w", err)
	}

	return p.analyze(source, frame, detections, p.cfg.MinDistance, start)
}

// Analyze evaluates and renders caller supplied detections without running
// the detector. minDistance overrides the configured threshold when positive.
func (p *Processor) Analyze(source string, frame image.Image, detections models.DetectionSet, minDistance float64) (*Result, error) {
	if minDistance <= 0 {
		minDistance = p.cfg.MinDistance
	}
	return p.analyze(source, frame, detections, minDistance, time.Now())
}

func (p *Processor) analyze(source string, frame image.Image, detections models.DetectionSet, minDistance float64, start time.Time) (*Result, error) {
	frameID := p.frameID.Add(1)
	logger := logging.WithFrame(logging.WithSource(p.logger, source), frameID)

	violations := proximity.Evaluate(detections, minDistance)

	annotated, err := overlay.Annotate(frame, detections, violations, p.style)
	if err != nil {
		return nil, fmt.Errorf("failed to render overlay: %w", err)
	}

	bounds := annotated.Bounds()
	report := models.FrameReport{
		WorkerID:            p.cfg.WorkerID,
		Source:              source,
		FrameID:             frameID,
		Timestamp:           start.UTC(),
		Width:               bounds.Dx(),
		Height:              bounds.Dy(),
		MinDistance:         minDistance,
		DetectionCount:      len(detections),
		ViolationCount:      violations.Len(),
		Violations:          violations.Sorted(),
		ViolationPercentage: models.ViolationPercentage(len(detections), violations.Len()),
		ProcessingTime:      time.Since(start).String(),
	}

	logger.Debug().
		Int("detections", report.DetectionCount).
		Int("violations", report.ViolationCount).
		Int("violating_pairs", len(proximity.Pairs(detections, minDistance))).
		Float64("violation_pct", report.ViolationPercentage).
		Msg("Frame processed")

	for _, publisher := range p.publishers {
		if err := publisher.PublishReport(report); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish frame report")
		}
	}
	for _, sink := range p.sinks {
		if err := sink.PublishFrame(source, annotated); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish annotated frame")
		}
	}

	return &Result{
		Frame:      annotated,
		Detections: detections,
		Violations: violations,
		Report:     report,
	}, nil
}
