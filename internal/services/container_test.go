package services

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.viam.com/test"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/models"
	"distancing-worker-go/internal/services/reports"
	"distancing-worker-go/internal/worker"
)

type stuckSource struct {
	release chan struct{}
}

func (s *stuckSource) Next() (image.Image, bool, error) {
	<-s.release
	return nil, false, nil
}

func (s *stuckSource) Close() error { return nil }

type closingDetector struct {
	closed atomic.Bool
}

func (d *closingDetector) Detect(ctx context.Context, frame image.Image) (models.DetectionSet, error) {
	return nil, nil
}

func (d *closingDetector) Close() error {
	d.closed.Store(true)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		WorkerID:           "worker-test",
		MinDistance:        50,
		OverlayOpacity:     0.5,
		ReportsDB:          filepath.Join(t.TempDir(), "reports.db"),
		LiveReportsEnabled: true,
		PreviewEnabled:     true,
		Sources:            "cam-1=rtsp://camera/live",
	}
}

func TestNewServiceContainerRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.OverlayOpacity = 3
	_, err := NewServiceContainer(cfg, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestShutdownClosesEverythingAfterTimeout(t *testing.T) {
	src := &stuckSource{release: make(chan struct{})}
	t.Cleanup(func() { close(src.release) })

	det := &closingDetector{}
	sc, err := NewServiceContainer(testConfig(t), det, func(url string) (worker.FrameSource, error) {
		return src, nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.ReportStore, test.ShouldNotBeNil)
	test.That(t, sc.Worker.Status(), test.ShouldHaveLength, 1)

	// the source never returns, so the worker cannot stop before ctx ends
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sc.Shutdown(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	test.That(t, det.closed.Load(), test.ShouldBeTrue)
	_, err = sc.ReportStore.List(reports.Filter{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, sc.ReportHub.ClientCount(), test.ShouldEqual, 0)
}
