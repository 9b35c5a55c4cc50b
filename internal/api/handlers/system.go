package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"distancing-worker-go/internal/config"
)

var startTime = time.Now()

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	cfg *config.Config
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg}
}

// @Summary Get system stats
// @Description Get runtime statistics of the worker process
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":  h.cfg.WorkerID,
			"uptime":     time.Since(startTime).String(),
			"memory_mb":  m.Alloc / 1024 / 1024,
			"cpu_cores":  runtime.NumCPU(),
			"goroutines": runtime.NumGoroutine(),
			"go_version": runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}

// @Summary Get distancing configuration
// @Description Get the effective detector and distancing settings
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/config [get]
func (h *SystemHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"worker_id":       h.cfg.WorkerID,
			"version":         h.cfg.Version,
			"environment":     h.cfg.Environment,
			"min_distance":    h.cfg.MinDistance,
			"frame_width":     h.cfg.FrameWidth,
			"overlay_opacity": h.cfg.OverlayOpacity,
			"model_path":      h.cfg.ModelPath,
			"min_conf":        h.cfg.MinConf,
			"nms_thresh":      h.cfg.NMSThresh,
			"use_gpu":         h.cfg.UseGPU,
			"nats_enabled":    h.cfg.NatsEnabled,
			"reports_subject": h.cfg.ReportsSubject,
			"reports_db":      h.cfg.ReportsDB,
			"preview_enabled": h.cfg.PreviewEnabled,
		},
		"timestamp": time.Now().Unix(),
	})
}
