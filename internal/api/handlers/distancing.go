package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/helpers"
	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/models"
	"distancing-worker-go/internal/services/detection"
	"distancing-worker-go/internal/services/pipeline"
	"distancing-worker-go/internal/services/proximity"
)

type ErrorResponse struct {
	Error string `json:"error" example:"invalid request"`
}

type DistancingHandler struct {
	cfg       *config.Config
	processor *pipeline.Processor
}

// NewDistancingHandler serves one-off uploads. They are processed without
// the processor's publishers and sinks.
func NewDistancingHandler(cfg *config.Config, processor *pipeline.Processor) *DistancingHandler {
	return &DistancingHandler{cfg: cfg, processor: processor.Detached()}
}

// Evaluate computes the violation set for a list of detections
// @Summary Evaluate distancing violations
// @Description Returns the indices of detections whose centroids are closer than min_distance pixels to another detection
// @Tags distancing
// @Accept json
// @Produce json
// @Param request body models.EvaluateRequest true "Detections of one frame"
// @Success 200 {object} models.EvaluateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /v1/evaluate [post]
func (h *DistancingHandler) Evaluate(c *gin.Context) {
	if h.cfg.MaxJSONSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxJSONSize)
	}

	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		logging.Warn(c).Err(err).Msg("Invalid request body")
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	if !h.withinDetectionLimit(c, len(req.Detections)) {
		return
	}

	dets, err := models.ToDetectionSet(req.Detections)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	minDistance := req.MinDistance
	if minDistance < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "min_distance must be positive"})
		return
	}
	if minDistance == 0 {
		minDistance = h.cfg.MinDistance
	}

	violations := proximity.Evaluate(dets, minDistance)
	pairs := proximity.Pairs(dets, minDistance)
	if pairs == nil {
		pairs = [][2]int{}
	}

	logging.Debug(c).
		Int("detections", len(dets)).
		Int("violations", violations.Len()).
		Msg("Evaluated detections")

	c.JSON(http.StatusOK, models.EvaluateResponse{
		MinDistance:         minDistance,
		DetectionCount:      len(dets),
		ViolationCount:      violations.Len(),
		Violations:          violations.Sorted(),
		Pairs:               pairs,
		ViolationPercentage: models.ViolationPercentage(len(dets), violations.Len()),
	})
}

// Annotate renders the distancing overlay for caller supplied detections
// @Summary Annotate an image
// @Description Draws translucent boxes (green safe, red violating), centroid markers and the violation count on the uploaded image
// @Tags distancing
// @Accept multipart/form-data
// @Produce image/png
// @Produce image/jpeg
// @Param image formData file true "Frame"
// @Param detections formData string true "JSON array of detections"
// @Param min_distance formData number false "Pixel threshold"
// @Param format query string false "Output format (png, jpeg)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /v1/annotate [post]
func (h *DistancingHandler) Annotate(c *gin.Context) {
	frame, name, ok := h.readImage(c)
	if !ok {
		return
	}

	var inputs []models.DetectionInput
	if err := json.Unmarshal([]byte(c.PostForm("detections")), &inputs); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid detections: %v", err)})
		return
	}
	if !h.withinDetectionLimit(c, len(inputs)) {
		return
	}
	dets, err := models.ToDetectionSet(inputs)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var minDistance float64
	if raw := c.PostForm("min_distance"); raw != "" {
		minDistance, err = strconv.ParseFloat(raw, 64)
		if err != nil || minDistance <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "min_distance must be a positive number"})
			return
		}
	}

	res, err := h.processor.Analyze(name, frame, dets, minDistance)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to annotate frame")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	h.writeImage(c, res, name)
}

// Process runs person detection and the distancing overlay on an image
// @Summary Detect and annotate
// @Description Runs the person detector on the uploaded image, evaluates distancing and returns the frame report, or the annotated image when render=true
// @Tags distancing
// @Accept multipart/form-data
// @Produce json
// @Produce image/png
// @Param image formData file true "Frame"
// @Param render query bool false "Return the annotated image"
// @Param format query string false "Output format when rendering (png, jpeg)"
// @Success 200 {object} models.ProcessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /v1/process [post]
func (h *DistancingHandler) Process(c *gin.Context) {
	frame, name, ok := h.readImage(c)
	if !ok {
		return
	}

	res, err := h.processor.ProcessFrame(c.Request.Context(), name, frame)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, detection.ErrModelNotLoaded) {
			status = http.StatusServiceUnavailable
		}
		logging.Error(c).Err(err).Msg("Failed to process frame")
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	if render, _ := strconv.ParseBool(c.Query("render")); render {
		h.writeImage(c, res, name)
		return
	}

	c.JSON(http.StatusOK, models.ProcessResponse{
		Report:     res.Report,
		Detections: res.Detections,
	})
}

func (h *DistancingHandler) withinDetectionLimit(c *gin.Context, n int) bool {
	if h.cfg.MaxDetections > 0 && n > h.cfg.MaxDetections {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("too many detections: %d, limit is %d", n, h.cfg.MaxDetections),
		})
		return false
	}
	return true
}

func (h *DistancingHandler) readImage(c *gin.Context) (image.Image, string, bool) {
	if h.cfg.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadSize)
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("image is required: %v", err)})
		return nil, "", false
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, "", false
	}
	defer file.Close()

	frame, err := helpers.DecodeImage(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, "", false
	}
	return frame, filepath.Base(header.Filename), true
}

func (h *DistancingHandler) writeImage(c *gin.Context, res *pipeline.Result, name string) {
	format := helpers.FormatFromName(name)
	if f := c.Query("format"); f != "" {
		format = helpers.FormatFromName(f)
	}

	data, err := helpers.EncodeImage(res.Frame, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.Header("X-Frame-ID", strconv.FormatInt(res.Report.FrameID, 10))
	c.Header("X-Detection-Count", strconv.Itoa(res.Report.DetectionCount))
	c.Header("X-Violation-Count", strconv.Itoa(res.Report.ViolationCount))
	c.Data(http.StatusOK, helpers.ContentType(format), data)
}
