// Package recorder persists annotated frames to an image or video file.
package recorder

import (
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"distancing-worker-go/internal/services/streamcapture"
)

// DefaultFPS is used when the source does not report a frame rate
const DefaultFPS = 25.0

type Recorder struct {
	path       string
	fps        float64
	writer     *gocv.VideoWriter
	frameCount int64
	startedAt  time.Time
}

func New(path string, fps float64) *Recorder {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Recorder{path: path, fps: fps}
}

// WriteFrame writes frame. Still image paths are overwritten; video paths
// open an MJPG writer sized after the first frame.
func (r *Recorder) WriteFrame(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	if streamcapture.IsStillImage(r.path) {
		if !gocv.IMWrite(r.path, mat) {
			return fmt.Errorf("failed to write image %s", r.path)
		}
		r.frameCount++
		return nil
	}

	if r.writer == nil {
		writer, err := gocv.VideoWriterFile(r.path, "MJPG", r.fps, mat.Cols(), mat.Rows(), true)
		if err != nil {
			return fmt.Errorf("failed to open video writer %s: %w", r.path, err)
		}
		r.writer = writer
		r.startedAt = time.Now()
		log.Info().Str("path", r.path).Float64("fps", r.fps).Int("width", mat.Cols()).Int("height", mat.Rows()).Msg("Recording started")
	}

	if err := r.writer.Write(mat); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	r.frameCount++
	return nil
}

func (r *Recorder) FrameCount() int64 {
	return r.frameCount
}

func (r *Recorder) Close() error {
	if r.writer == nil {
		return nil
	}
	log.Info().
		Str("path", r.path).
		Int64("frames", r.frameCount).
		Dur("elapsed", time.Since(r.startedAt)).
		Msg("Recording finished")
	return r.writer.Close()
}
