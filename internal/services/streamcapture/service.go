// Package streamcapture reads frames from a still image, a video file or a
// camera device.
package streamcapture

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

var stillExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// IsStillImage reports whether path names a single image rather than a video
func IsStillImage(path string) bool {
	return stillExtensions[strings.ToLower(filepath.Ext(path))]
}

const (
	reconnectBackoffMin = 250 * time.Millisecond
	reconnectBackoffMax = 5 * time.Second
	reconnectJitterPct  = 20
)

// ErrReadFailed is returned by Next when a live source drops a frame. The
// source tries to reconnect before the error is returned, so callers may
// keep calling Next.
var ErrReadFailed = errors.New("failed to read frame")

type Source struct {
	path     string
	cap      *gocv.VideoCapture
	still    *gocv.Mat
	done     bool
	live     bool
	attempts int
	fps      float64
	size     image.Point
}

// IsLive reports whether path is a stream URL or camera index, where a
// failed read is a hiccup rather than the end of the video
func IsLive(path string) bool {
	if _, err := strconv.Atoi(path); err == nil {
		return true
	}
	return strings.Contains(path, "://")
}

func openCapture(path string) (*gocv.VideoCapture, error) {
	if device, err := strconv.Atoi(path); err == nil {
		return gocv.OpenVideoCapture(device)
	}
	return gocv.OpenVideoCaptureWithAPI(path, gocv.VideoCaptureFFmpeg)
}

// Open opens path as a still image, video file, stream URL, or camera index
// when path is an integer. An empty path opens camera 0.
func Open(path string) (*Source, error) {
	if path == "" {
		path = "0"
	}

	if IsStillImage(path) {
		mat := gocv.IMRead(path, gocv.IMReadColor)
		if mat.Empty() {
			mat.Close()
			return nil, fmt.Errorf("failed to read image %s", path)
		}
		log.Info().Str("path", path).Int("width", mat.Cols()).Int("height", mat.Rows()).Msg("Loaded still image")
		return &Source{path: path, still: &mat, size: image.Pt(mat.Cols(), mat.Rows())}, nil
	}

	cap, err := openCapture(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", path, err)
	}

	s := &Source{
		path: path,
		cap:  cap,
		live: IsLive(path),
		fps:  cap.Get(gocv.VideoCaptureFPS),
		size: image.Pt(int(cap.Get(gocv.VideoCaptureFrameWidth)), int(cap.Get(gocv.VideoCaptureFrameHeight))),
	}
	log.Info().
		Str("path", path).
		Float64("fps", s.fps).
		Int("width", s.size.X).
		Int("height", s.size.Y).
		Msg("Video source opened")
	return s, nil
}

// IsStill reports whether the source yields exactly one frame
func (s *Source) IsStill() bool {
	return s.still != nil
}

// FPS returns the source frame rate, 0 when unknown
func (s *Source) FPS() float64 {
	return s.fps
}

// Next returns the next frame, or ok=false once the source is exhausted.
// Live sources never run out: a failed read reconnects and returns
// ErrReadFailed.
func (s *Source) Next() (frame image.Image, ok bool, err error) {
	if s.done {
		return nil, false, nil
	}

	if s.still != nil {
		s.done = true
		img, err := s.still.ToImage()
		if err != nil {
			return nil, false, fmt.Errorf("failed to convert image: %w", err)
		}
		return img, true, nil
	}

	if s.cap == nil {
		if err := s.reconnect(); err != nil {
			return nil, false, err
		}
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if !s.cap.Read(&mat) || mat.Empty() {
		if !s.live {
			s.done = true
			return nil, false, nil
		}
		if err := s.reconnect(); err != nil {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w from %s", ErrReadFailed, s.path)
	}
	s.attempts = 0

	img, err := mat.ToImage()
	if err != nil {
		return nil, false, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, true, nil
}

// reconnect reopens a live capture after a jittered exponential backoff
func (s *Source) reconnect() error {
	if s.cap != nil {
		s.cap.Close()
		s.cap = nil
	}

	delay := BackoffDelay(s.attempts)
	s.attempts++
	log.Warn().Str("path", s.path).Int("attempt", s.attempts).Dur("delay", delay).Msg("Reconnecting video source")
	time.Sleep(delay)

	cap, err := openCapture(s.path)
	if err != nil {
		return fmt.Errorf("%w: reconnect to %s: %v", ErrReadFailed, s.path, err)
	}
	s.cap = cap
	log.Info().Str("path", s.path).Msg("Video source reconnected")
	return nil
}

// BackoffDelay returns the wait before reconnect attempt n (0 based):
// doubling from 250ms, capped at 5s, with +/-20% jitter
func BackoffDelay(attempt int) time.Duration {
	delay := reconnectBackoffMin << min(attempt, 8)
	if delay > reconnectBackoffMax {
		delay = reconnectBackoffMax
	}
	jitter := float64(delay) * reconnectJitterPct / 100 * (rand.Float64()*2 - 1)
	return delay + time.Duration(jitter)
}

func (s *Source) Close() error {
	if s.still != nil {
		return s.still.Close()
	}
	if s.cap != nil {
		return s.cap.Close()
	}
	return nil
}
