package mjpeg

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"go.viam.com/test"
)

func TestPublishFrame(t *testing.T) {
	p := NewPublisher()
	_, ok := p.LatestJPEG("cam-1")
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, p.PublishFrame("cam-1", imaging.New(64, 48, color.White)), test.ShouldBeNil)
	test.That(t, p.PublishFrame("cam-0", imaging.New(64, 48, color.White)), test.ShouldBeNil)

	data, ok := p.LatestJPEG("cam-1")
	test.That(t, ok, test.ShouldBeTrue)
	// JPEG SOI marker
	test.That(t, data[:2], test.ShouldResemble, []byte{0xFF, 0xD8})
	test.That(t, p.Sources(), test.ShouldResemble, []string{"cam-0", "cam-1"})
}

// streamWriter is a ResponseWriter that signals every flush
type streamWriter struct {
	header  http.Header
	mu      sync.Mutex
	body    strings.Builder
	flushed chan struct{}
}

func newStreamWriter() *streamWriter {
	return &streamWriter{header: http.Header{}, flushed: make(chan struct{}, 16)}
}

func (w *streamWriter) Header() http.Header { return w.header }
func (w *streamWriter) WriteHeader(int)     {}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.Write(p)
}

func (w *streamWriter) Flush() {
	select {
	case w.flushed <- struct{}{}:
	default:
	}
}

func (w *streamWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.String()
}

func waitFlush(t *testing.T, w *streamWriter) {
	t.Helper()
	select {
	case <-w.flushed:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame written")
	}
}

func TestStreamMJPEGHTTP(t *testing.T) {
	p := NewPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream/cam-1", nil).WithContext(ctx)
	w := newStreamWriter()

	done := make(chan struct{})
	go func() {
		p.StreamMJPEGHTTP(w, req, "cam-1")
		close(done)
	}()

	// placeholder first, then every published frame
	waitFlush(t, w)
	test.That(t, p.PublishFrame("cam-1", imaging.New(32, 32, color.Black)), test.ShouldBeNil)
	waitFlush(t, w)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	test.That(t, w.Header().Get("Content-Type"), test.ShouldEqual, "multipart/x-mixed-replace; boundary=frame")
	test.That(t, strings.Count(w.String(), "--frame\r\n"), test.ShouldBeGreaterThanOrEqualTo, 2)

	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	test.That(t, p.frameNotify, test.ShouldBeEmpty)
}

func TestCloseEndsStreams(t *testing.T) {
	p := NewPublisher()
	req := httptest.NewRequest(http.MethodGet, "/v1/stream/cam-1", nil)
	w := newStreamWriter()

	done := make(chan struct{})
	go func() {
		p.StreamMJPEGHTTP(w, req, "cam-1")
		close(done)
	}()
	waitFlush(t, w)

	p.Close()
	p.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after Close")
	}

	rec := httptest.NewRecorder()
	p.StreamMJPEGHTTP(rec, req, "cam-1")
	test.That(t, rec.Code, test.ShouldEqual, http.StatusServiceUnavailable)
}

func TestRemove(t *testing.T) {
	p := NewPublisher()
	test.That(t, p.PublishFrame("cam-1", imaging.New(8, 8, color.White)), test.ShouldBeNil)
	p.Remove("cam-1")
	p.Remove("never-published")

	_, ok := p.LatestJPEG("cam-1")
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, p.Sources(), test.ShouldBeEmpty)
}
