package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"distancing-worker-go/internal/services/publisher/mjpeg"
)

type StreamHandler struct {
	preview *mjpeg.Publisher
}

func NewStreamHandler(preview *mjpeg.Publisher) *StreamHandler {
	return &StreamHandler{preview: preview}
}

type SourcesResponse struct {
	Sources []string `json:"sources"`
}

// @Summary List preview sources
// @Description List every source that has produced an annotated frame
// @Tags stream
// @Produce json
// @Success 200 {object} SourcesResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/stream [get]
func (h *StreamHandler) ListSources(c *gin.Context) {
	if h.preview == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "preview is disabled"})
		return
	}
	c.JSON(http.StatusOK, SourcesResponse{Sources: h.preview.Sources()})
}

// @Summary Live preview
// @Description MJPEG stream of the annotated frames of one source
// @Tags stream
// @Produce multipart/x-mixed-replace
// @Param source path string true "Source name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /v1/stream/{source} [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	if h.preview == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "preview is disabled"})
		return
	}
	h.preview.StreamMJPEGHTTP(c.Writer, c.Request, c.Param("source"))
}

// @Summary Latest preview frame
// @Description The most recent annotated frame of one source as JPEG
// @Tags stream
// @Produce image/jpeg
// @Param source path string true "Source name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /v1/stream/{source}/latest [get]
func (h *StreamHandler) Latest(c *gin.Context) {
	if h.preview == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "preview is disabled"})
		return
	}
	data, ok := h.preview.LatestJPEG(c.Param("source"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no frames for source"})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}
