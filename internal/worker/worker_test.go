package worker

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"go.viam.com/test"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/models"
	"distancing-worker-go/internal/services/detection"
	"distancing-worker-go/internal/services/pipeline"
)

type fakeSource struct {
	remaining int // negative yields forever
	readErr   error
	failReads int // reads that fail before frames flow
	closed    atomic.Bool
	mu        sync.Mutex
}

func (f *fakeSource) Next() (image.Image, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	if f.failReads > 0 {
		f.failReads--
		return nil, false, errors.New("connection reset")
	}
	if f.remaining == 0 {
		return nil, false, nil
	}
	if f.remaining > 0 {
		f.remaining--
	} else {
		time.Sleep(time.Millisecond)
	}
	return imaging.New(8, 8, color.Black), true, nil
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeProcessor struct {
	err   error
	calls atomic.Int64
}

func (f *fakeProcessor) ProcessFrame(ctx context.Context, source string, frame image.Image) (*pipeline.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Report: models.FrameReport{Source: source, ViolationCount: 2}}, nil
}

func newWorker(proc FrameProcessor, src *fakeSource) *Worker {
	return New(&config.Config{WorkerID: "worker-test"}, proc, func(url string) (FrameSource, error) {
		if url == "missing" {
			return nil, errors.New("no such file")
		}
		return src, nil
	})
}

func waitInactive(t *testing.T, w *Worker, id string) SourceStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, st := range w.Status() {
			if st.ID == id && !st.Active {
				return st
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("source %s did not finish", id)
	return SourceStatus{}
}

func TestSourceRunsToExhaustion(t *testing.T) {
	src := &fakeSource{remaining: 3}
	proc := &fakeProcessor{}
	w := newWorker(proc, src)

	test.That(t, w.StartSource("cam-1", "video.mp4"), test.ShouldBeNil)
	st := waitInactive(t, w, "cam-1")

	test.That(t, st.Frames, test.ShouldEqual, int64(3))
	test.That(t, st.LastViolations, test.ShouldEqual, 2)
	test.That(t, st.URL, test.ShouldEqual, "video.mp4")
	test.That(t, st.Error, test.ShouldBeEmpty)
	test.That(t, proc.calls.Load(), test.ShouldEqual, int64(3))

	test.That(t, w.Stop(context.Background()), test.ShouldBeNil)
	test.That(t, src.closed.Load(), test.ShouldBeTrue)
}

func TestStartStopSource(t *testing.T) {
	src := &fakeSource{remaining: -1}
	w := newWorker(&fakeProcessor{}, src)

	test.That(t, w.StartSource("cam-1", "rtsp://camera/live"), test.ShouldBeNil)
	err := w.StartSource("cam-1", "rtsp://camera/live")
	test.That(t, errors.Is(err, ErrSourceActive), test.ShouldBeTrue)

	test.That(t, w.StopSource("cam-1"), test.ShouldBeNil)
	test.That(t, src.closed.Load(), test.ShouldBeTrue)
	test.That(t, w.Status(), test.ShouldBeEmpty)

	err = w.StopSource("cam-1")
	test.That(t, errors.Is(err, ErrSourceNotFound), test.ShouldBeTrue)
}

func TestStartSourceErrors(t *testing.T) {
	w := newWorker(&fakeProcessor{}, &fakeSource{})

	test.That(t, w.StartSource("", "video.mp4"), test.ShouldNotBeNil)
	test.That(t, w.StartSource("cam-1", "missing").Error(), test.ShouldContainSubstring, "no such file")
	test.That(t, w.Status(), test.ShouldBeEmpty)

	test.That(t, w.Stop(context.Background()), test.ShouldBeNil)
	test.That(t, errors.Is(w.StartSource("cam-1", "video.mp4"), ErrStopped), test.ShouldBeTrue)
}

func TestSourceStopsWithoutDetector(t *testing.T) {
	proc := &fakeProcessor{err: detection.ErrModelNotLoaded}
	w := newWorker(proc, &fakeSource{remaining: -1})

	test.That(t, w.StartSource("cam-1", "video.mp4"), test.ShouldBeNil)
	st := waitInactive(t, w, "cam-1")
	test.That(t, st.Error, test.ShouldContainSubstring, "not loaded")
	test.That(t, proc.calls.Load(), test.ShouldEqual, int64(1))
}

func TestSourceGivesUpOnReadErrors(t *testing.T) {
	w := newWorker(&fakeProcessor{}, &fakeSource{readErr: errors.New("stream lost")})

	test.That(t, w.StartSource("cam-1", "rtsp://camera/live"), test.ShouldBeNil)
	st := waitInactive(t, w, "cam-1")
	test.That(t, st.Error, test.ShouldEqual, "stream lost")
	test.That(t, st.Frames, test.ShouldEqual, int64(0))
}

func TestSourceRecoversFromReadErrors(t *testing.T) {
	proc := &fakeProcessor{}
	w := newWorker(proc, &fakeSource{failReads: 3, remaining: 2})

	test.That(t, w.StartSource("cam-1", "rtsp://camera/live"), test.ShouldBeNil)
	st := waitInactive(t, w, "cam-1")
	test.That(t, st.Error, test.ShouldBeEmpty)
	test.That(t, st.Frames, test.ShouldEqual, int64(2))
	test.That(t, proc.calls.Load(), test.ShouldEqual, int64(2))
}

func TestSlowOpenDoesNotBlockStatus(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{remaining: 1}
	w := New(&config.Config{WorkerID: "worker-test"}, &fakeProcessor{}, func(url string) (FrameSource, error) {
		<-release
		return src, nil
	})

	started := make(chan error, 1)
	go func() { started <- w.StartSource("cam-1", "rtsp://slow/live") }()

	deadline := time.Now().Add(5 * time.Second)
	for len(w.Status()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	status := w.Status()
	test.That(t, status, test.ShouldHaveLength, 1)
	test.That(t, status[0].Active, test.ShouldBeTrue)
	test.That(t, errors.Is(w.StartSource("cam-1", "rtsp://slow/live"), ErrSourceActive), test.ShouldBeTrue)

	close(release)
	test.That(t, <-started, test.ShouldBeNil)
	test.That(t, waitInactive(t, w, "cam-1").Frames, test.ShouldEqual, int64(1))
}

func TestOnSourceStopped(t *testing.T) {
	stopped := make(chan string, 1)
	w := newWorker(&fakeProcessor{}, &fakeSource{remaining: 1})
	w.OnSourceStopped(func(id string) { stopped <- id })

	test.That(t, w.StartSource("cam-1", "video.mp4"), test.ShouldBeNil)
	select {
	case id := <-stopped:
		test.That(t, id, test.ShouldEqual, "cam-1")
	case <-time.After(5 * time.Second):
		t.Fatal("stop hook not called")
	}
}

func TestStopCancelsSources(t *testing.T) {
	src := &fakeSource{remaining: -1}
	w := newWorker(&fakeProcessor{}, src)
	test.That(t, w.StartSource("cam-1", "0"), test.ShouldBeNil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	test.That(t, w.Stop(ctx), test.ShouldBeNil)
	test.That(t, src.closed.Load(), test.ShouldBeTrue)
	test.That(t, w.Status()[0].Active, test.ShouldBeFalse)
}

func TestParseSources(t *testing.T) {
	got := ParseSources(" lobby=rtsp://10.0.0.5/stream?a=b , 0,  ,video.mp4")
	test.That(t, got, test.ShouldResemble, map[string]string{
		"lobby":     "rtsp://10.0.0.5/stream?a=b",
		"0":         "0",
		"video.mp4": "video.mp4",
	})

	got = ParseSources("rtsp://cam/live?token=x")
	test.That(t, got, test.ShouldResemble, map[string]string{"rtsp://cam/live?token=x": "rtsp://cam/live?token=x"})
}
