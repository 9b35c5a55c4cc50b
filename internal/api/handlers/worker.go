package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/worker"
)

// SourceHandler manages background video sources
type SourceHandler struct {
	worker *worker.Worker
}

func NewSourceHandler(w *worker.Worker) *SourceHandler {
	return &SourceHandler{worker: w}
}

type StartSourceRequest struct {
	ID  string `json:"id" binding:"required" example:"lobby"`
	URL string `json:"url" binding:"required" example:"rtsp://10.0.0.5/stream"`
}

type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"source started"`
}

func (h *SourceHandler) available(c *gin.Context) bool {
	if h.worker == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "background sources are disabled"})
		return false
	}
	return true
}

// @Summary Start a video source
// @Description Open a video file, stream URL or camera index and process every frame in the background
// @Tags sources
// @Accept json
// @Produce json
// @Param request body StartSourceRequest true "Source"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /v1/sources [post]
func (h *SourceHandler) Start(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req StartSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.worker.StartSource(req.ID, req.URL); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, worker.ErrSourceActive):
			status = http.StatusConflict
		case errors.Is(err, worker.ErrStopped):
			status = http.StatusServiceUnavailable
		}
		logging.Warn(c).Err(err).Str("source", req.ID).Msg("Failed to start source")
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "source started"})
}

// @Summary Stop a video source
// @Tags sources
// @Produce json
// @Param id path string true "Source ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/sources/{id} [delete]
func (h *SourceHandler) Stop(c *gin.Context) {
	if !h.available(c) {
		return
	}

	if err := h.worker.StopSource(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "source stopped"})
}

// @Summary List video sources
// @Tags sources
// @Produce json
// @Success 200 {array} worker.SourceStatus
// @Router /v1/sources [get]
func (h *SourceHandler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}
	c.JSON(http.StatusOK, h.worker.Status())
}
