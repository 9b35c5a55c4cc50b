package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/services/reports"
)

// ReportHandler serves the frame report history and live feed
type ReportHandler struct {
	store *reports.Store
	hub   *reports.Hub
}

func NewReportHandler(store *reports.Store, hub *reports.Hub) *ReportHandler {
	return &ReportHandler{store: store, hub: hub}
}

func (h *ReportHandler) filter(c *gin.Context) (reports.Filter, bool) {
	f := reports.Filter{Source: c.Query("source")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return f, false
		}
		f.Limit = limit
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "since must be an RFC3339 timestamp"})
			return f, false
		}
		f.Since = since
	}
	f.ViolationsOnly, _ = strconv.ParseBool(c.Query("violations_only"))
	return f, true
}

func (h *ReportHandler) storeAvailable(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "report history is disabled"})
		return false
	}
	return true
}

// @Summary List frame reports
// @Description Stored frame reports, newest first
// @Tags reports
// @Produce json
// @Param source query string false "Source name"
// @Param since query string false "RFC3339 lower bound"
// @Param violations_only query bool false "Only frames with violations"
// @Param limit query int false "Maximum number of reports (default 100)"
// @Success 200 {array} models.FrameReport
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /v1/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	if !h.storeAvailable(c) {
		return
	}
	f, ok := h.filter(c)
	if !ok {
		return
	}

	list, err := h.store.List(f)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to list frame reports")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Summarize frame reports
// @Tags reports
// @Produce json
// @Param source query string false "Source name"
// @Param since query string false "RFC3339 lower bound"
// @Success 200 {object} reports.Summary
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /v1/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	if !h.storeAvailable(c) {
		return
	}
	f, ok := h.filter(c)
	if !ok {
		return
	}

	sum, err := h.store.Summarize(f)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to summarize frame reports")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Live frame reports
// @Description Websocket that receives every new frame report as JSON
// @Tags reports
// @Param source query string false "Only reports of this source"
// @Success 101
// @Failure 503 {object} ErrorResponse
// @Router /v1/reports/ws [get]
func (h *ReportHandler) Live(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "live reports are disabled"})
		return
	}
	h.hub.ServeWS(c.Writer, c.Request, c.Query("source"))
}
