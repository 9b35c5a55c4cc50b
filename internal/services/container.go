package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/services/detection"
	"distancing-worker-go/internal/services/messaging"
	"distancing-worker-go/internal/services/pipeline"
	"distancing-worker-go/internal/services/publisher/mjpeg"
	"distancing-worker-go/internal/services/reports"
	"distancing-worker-go/internal/worker"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config       *config.Config
	DetectionSvc *detection.Service
	MessagingSvc *messaging.Service
	Processor    *pipeline.Processor
	Preview      *mjpeg.Publisher
	ReportStore  *reports.Store
	ReportHub    *reports.Hub
	Worker       *worker.Worker
}

// NewServiceContainer wires the services around detector. detector may be
// nil, in which case only caller supplied detections can be evaluated.
// open may be nil to disable background sources.
func NewServiceContainer(cfg *config.Config, detector detection.Detector, open worker.Opener) (*ServiceContainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	detectionSvc := detection.NewService(detector)

	var messagingSvc *messaging.Service
	var publisher pipeline.ReportPublisher
	if cfg.NatsEnabled {
		svc, err := messaging.NewService(cfg)
		if err != nil {
			// Reporting is optional, keep serving without it
			log.Warn().Err(err).Msg("NATS not available, frame reports will not be published")
		} else {
			messagingSvc = svc
			publisher = svc
		}
	}

	processor := pipeline.NewProcessor(cfg, detectionSvc, publisher)

	var store *reports.Store
	if cfg.ReportsDB != "" {
		st, err := reports.Open(cfg.ReportsDB)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.ReportsDB).Msg("Report store not available, history is disabled")
		} else {
			store = st
			processor.AddReportPublisher(st)
		}
	}

	var hub *reports.Hub
	if cfg.LiveReportsEnabled {
		hub = reports.NewHub()
		processor.AddReportPublisher(hub)
	}

	var preview *mjpeg.Publisher
	if cfg.PreviewEnabled {
		preview = mjpeg.NewPublisher()
		processor.AddFrameSink(preview)
	}

	sc := &ServiceContainer{
		Config:       cfg,
		DetectionSvc: detectionSvc,
		MessagingSvc: messagingSvc,
		Processor:    processor,
		Preview:      preview,
		ReportStore:  store,
		ReportHub:    hub,
	}

	if open != nil {
		sc.Worker = worker.New(cfg, processor, open)
		if preview != nil {
			sc.Worker.OnSourceStopped(preview.Remove)
		}
		for id, url := range worker.ParseSources(cfg.Sources) {
			if err := sc.Worker.StartSource(id, url); err != nil {
				log.Error().Err(err).Str("source", id).Msg("Failed to start configured source")
			}
		}
	}

	return sc, nil
}

// Shutdown stops every service, even when an earlier one fails or ctx has
// already expired, and returns the combined errors.
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.Worker != nil {
		if err := sc.Worker.Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("Sources did not stop in time")
			errs = append(errs, fmt.Errorf("worker: %w", err))
		}
	}

	if sc.Preview != nil {
		sc.Preview.Close()
	}
	if sc.ReportHub != nil {
		sc.ReportHub.Close()
	}
	if sc.ReportStore != nil {
		if err := sc.ReportStore.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close report store")
			errs = append(errs, fmt.Errorf("report store: %w", err))
		}
	}

	if sc.MessagingSvc != nil {
		if err := sc.MessagingSvc.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("messaging: %w", err))
		}
	}

	if sc.DetectionSvc != nil {
		if err := sc.DetectionSvc.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("detection: %w", err))
		}
	}

	return errors.Join(errs...)
}
