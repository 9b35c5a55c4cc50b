package detection

import (
	"context"
	"errors"
	"image"
	"testing"

	"go.viam.com/test"

	"distancing-worker-go/internal/models"
)

func TestServiceDetect(t *testing.T) {
	want := models.DetectionSet{models.NewDetection(0.9, models.NewRegion(0, 0, 10, 20))}
	svc := NewService(DetectorFunc(func(ctx context.Context, frame image.Image) (models.DetectionSet, error) {
		return want, nil
	}))

	dets, err := svc.Detect(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldResemble, want)
	test.That(t, svc.IsHealthy(), test.ShouldBeTrue)

	_, err = svc.Detect(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	test.That(t, errors.Is(err, ErrEmptyFrame), test.ShouldBeTrue)
	test.That(t, svc.Shutdown(context.Background()), test.ShouldBeNil)
}

func TestServiceTracksHealth(t *testing.T) {
	fail := true
	svc := NewService(DetectorFunc(func(ctx context.Context, frame image.Image) (models.DetectionSet, error) {
		if fail {
			return nil, errors.New("forward failed")
		}
		return nil, nil
	}))
	frame := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	_, err := svc.Detect(context.Background(), frame)
	test.That(t, err.Error(), test.ShouldEqual, "forward failed")
	test.That(t, svc.IsHealthy(), test.ShouldBeFalse)

	fail = false
	_, err = svc.Detect(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, svc.IsHealthy(), test.ShouldBeTrue)
}

func TestServiceWithoutDetector(t *testing.T) {
	svc := NewService(nil)
	test.That(t, svc.IsHealthy(), test.ShouldBeFalse)
	_, err := svc.Detect(context.Background(), image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	test.That(t, errors.Is(err, ErrModelNotLoaded), test.ShouldBeTrue)
}
