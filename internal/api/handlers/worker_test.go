package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"go.viam.com/test"

	"distancing-worker-go/internal/services/pipeline"
	"distancing-worker-go/internal/worker"
)

// endlessSource yields the same frame until closed
type endlessSource struct{}

func (endlessSource) Next() (image.Image, bool, error) {
	return imaging.New(8, 8, color.Black), true, nil
}

func (endlessSource) Close() error { return nil }

func newSourceRouter(t *testing.T) (*gin.Engine, *worker.Worker) {
	t.Helper()
	proc := pipeline.NewProcessor(testConfig(), fakeDetector(), nil)
	w := worker.New(testConfig(), proc, func(url string) (worker.FrameSource, error) {
		if url == "missing" {
			return nil, errors.New("no such file")
		}
		return endlessSource{}, nil
	})
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	h := NewSourceHandler(w)
	r := gin.New()
	r.GET("/v1/sources", h.List)
	r.POST("/v1/sources", h.Start)
	r.DELETE("/v1/sources/:id", h.Stop)
	return r, w
}

func postSource(r http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sources", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

func TestSourceLifecycle(t *testing.T) {
	r, _ := newSourceRouter(t)

	rec := postSource(r, `{"id": "lobby", "url": "lobby.mp4"}`)
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)

	rec = postSource(r, `{"id": "lobby", "url": "lobby.mp4"}`)
	test.That(t, rec.Code, test.ShouldEqual, http.StatusConflict)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))
	var list []worker.SourceStatus
	test.That(t, json.Unmarshal(rec.Body.Bytes(), &list), test.ShouldBeNil)
	test.That(t, list, test.ShouldHaveLength, 1)
	test.That(t, list[0].ID, test.ShouldEqual, "lobby")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/sources/lobby", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/sources/lobby", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusNotFound)
}

func TestStartSourceValidation(t *testing.T) {
	r, _ := newSourceRouter(t)

	test.That(t, postSource(r, `{"id": "lobby"}`).Code, test.ShouldEqual, http.StatusBadRequest)
	test.That(t, postSource(r, `{"id": "lobby", "url": "missing"}`).Code, test.ShouldEqual, http.StatusBadRequest)
}

func TestSourcesDisabled(t *testing.T) {
	h := NewSourceHandler(nil)
	r := gin.New()
	r.GET("/v1/sources", h.List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusServiceUnavailable)
}
