package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	IsHealthy() bool
}

type HealthHandler struct {
	WorkerID string
	Version  string
	detector HealthChecker
}

func NewHealthHandler(workerID, version string, detector HealthChecker) *HealthHandler {
	return &HealthHandler{WorkerID: workerID, Version: version, detector: detector}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	WorkerID string `json:"worker_id" example:"worker-1"`
	Detector string `json:"detector" example:"ready"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"worker-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the worker is healthy and responsive. The detector field is "unavailable" when no model is loaded; distance evaluation still works.
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	detector := "unavailable"
	if h.detector != nil && h.detector.IsHealthy() {
		detector = "ready"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		WorkerID: h.WorkerID,
		Detector: detector,
	})
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.WorkerID,
		Status:   "running",
		Version:  h.Version,
		Capabilities: []string{
			"distance_evaluation",
			"overlay_rendering",
			"person_detection",
			"background_sources",
			"mjpeg_preview",
		},
	})
}
