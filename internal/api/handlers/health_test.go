package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.viam.com/test"

	"distancing-worker-go/internal/services/detection"
)

func TestHealthCheck(t *testing.T) {
	for _, tc := range []struct {
		name     string
		svc      *detection.Service
		detector string
	}{
		{"without model", detection.NewService(nil), "unavailable"},
		{"with model", detection.NewService(fakeDetector()), "ready"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler("worker-test", "1.2.3", tc.svc)
			r := gin.New()
			r.GET("/health", h.HealthCheck)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
			var resp HealthResponse
			test.That(t, json.Unmarshal(rec.Body.Bytes(), &resp), test.ShouldBeNil)
			test.That(t, resp.Status, test.ShouldEqual, "healthy")
			test.That(t, resp.Detector, test.ShouldEqual, tc.detector)
		})
	}
}

func TestWorkerInfo(t *testing.T) {
	h := NewHealthHandler("worker-test", "1.2.3", nil)
	r := gin.New()
	r.GET("/", h.WorkerInfo)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp WorkerInfoResponse
	test.That(t, json.Unmarshal(rec.Body.Bytes(), &resp), test.ShouldBeNil)
	test.That(t, resp.Version, test.ShouldEqual, "1.2.3")
	test.That(t, resp.Capabilities, test.ShouldContain, "distance_evaluation")
}
