// Package worker runs long lived video sources through the frame pipeline in
// the background, one goroutine per source.
package worker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/services/detection"
	"distancing-worker-go/internal/services/pipeline"
)

const (
	readRetryDelay       = 100 * time.Millisecond
	maxConsecutiveErrors = 10
)

var (
	ErrSourceActive   = errors.New("source is already active")
	ErrSourceNotFound = errors.New("source not found")
	ErrStopped        = errors.New("worker is stopped")
)

// FrameSource yields frames until exhausted
type FrameSource interface {
	Next() (image.Image, bool, error)
	Close() error
}

// Opener opens a video file, stream URL or camera
type Opener func(url string) (FrameSource, error)

// FrameProcessor is the per-frame pipeline
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, source string, frame image.Image) (*pipeline.Result, error)
}

type Worker struct {
	open      Opener
	processor FrameProcessor
	logger    zerolog.Logger

	sources   map[string]*sourceInstance
	mutex     sync.RWMutex
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	onStopped func(id string)
}

type sourceInstance struct {
	id        string
	url       string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mutex          sync.RWMutex
	active         bool
	frames         int64
	lastViolations int
	lastFrameAt    time.Time
	lastErr        error
}

// SourceStatus is a snapshot of one source
type SourceStatus struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Active         bool      `json:"active"`
	StartedAt      time.Time `json:"started_at"`
	Frames         int64     `json:"frames"`
	LastViolations int       `json:"last_violation_count"`
	LastFrameAt    time.Time `json:"last_frame_at,omitempty"`
	Error          string    `json:"error,omitempty"`
}

func New(cfg *config.Config, processor FrameProcessor, open Opener) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		open:      open,
		processor: processor,
		logger:    logging.NewServiceLogger(cfg, "worker"),
		sources:   make(map[string]*sourceInstance),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// StartSource opens url and processes its frames until it is exhausted,
// stopped, or the worker shuts down. A finished source can be restarted
// under the same id. The id is reserved while url is being opened, so a slow
// connect does not hold the worker lock.
func (w *Worker) StartSource(id, url string) error {
	if id == "" || url == "" {
		return fmt.Errorf("source id and url are required")
	}

	w.mutex.Lock()
	if w.ctx.Err() != nil {
		w.mutex.Unlock()
		return ErrStopped
	}
	if src, exists := w.sources[id]; exists && src.isActive() {
		w.mutex.Unlock()
		return fmt.Errorf("%s: %w", id, ErrSourceActive)
	}

	ctx, cancel := context.WithCancel(w.ctx)
	src := &sourceInstance{
		id:        id,
		url:       url,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		active:    true,
	}
	w.sources[id] = src
	w.wg.Add(1)
	w.mutex.Unlock()

	logger := logging.WithSource(w.logger, id)
	logger.Info().Str("url", url).Msg("Starting source")

	frames, err := w.open(url)
	if err != nil {
		w.mutex.Lock()
		if w.sources[id] == src {
			delete(w.sources, id)
		}
		w.mutex.Unlock()

		cancel()
		close(src.done)
		w.wg.Done()
		return fmt.Errorf("failed to open source %s: %w", id, err)
	}

	go func() {
		defer w.wg.Done()
		defer close(src.done)
		defer w.sourceStopped(id)
		defer frames.Close()
		w.processSource(ctx, src, frames, logger)
	}()

	return nil
}

// OnSourceStopped registers fn to run after a source loop exits, whatever
// the reason. Set it before starting sources.
func (w *Worker) OnSourceStopped(fn func(id string)) {
	w.onStopped = fn
}

func (w *Worker) sourceStopped(id string) {
	if w.onStopped != nil {
		w.onStopped(id)
	}
}

// StopSource stops id and waits for its loop to exit
func (w *Worker) StopSource(id string) error {
	w.mutex.Lock()
	src, exists := w.sources[id]
	if exists {
		delete(w.sources, id)
	}
	w.mutex.Unlock()

	if !exists {
		return fmt.Errorf("%s: %w", id, ErrSourceNotFound)
	}

	src.cancel()
	<-src.done
	w.logger.Info().Str("source", id).Msg("Source stopped")
	return nil
}

// Status returns a snapshot of every known source
func (w *Worker) Status() []SourceStatus {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	out := make([]SourceStatus, 0, len(w.sources))
	for _, src := range w.sources {
		out = append(out, src.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stop cancels every source and waits for them to finish
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info().Msg("Stopping worker")
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) processSource(ctx context.Context, src *sourceInstance, frames FrameSource, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Source processing panic")
			src.finish(fmt.Errorf("panic: %v", r))
		}
	}()

	consecutiveErrors := 0
	for {
		if ctx.Err() != nil {
			logger.Info().Msg("Source processing cancelled")
			src.finish(nil)
			return
		}

		frame, ok, err := frames.Next()
		if err != nil {
			consecutiveErrors++
			logger.Error().Err(err).Int("attempt", consecutiveErrors).Msg("Failed to read frame")
			if consecutiveErrors >= maxConsecutiveErrors {
				src.finish(err)
				return
			}
			select {
			case <-ctx.Done():
			case <-time.After(readRetryDelay):
			}
			continue
		}
		if !ok {
			logger.Info().Int64("frames", src.frameCount()).Msg("Source exhausted")
			src.finish(nil)
			return
		}
		consecutiveErrors = 0

		res, err := w.processor.ProcessFrame(ctx, src.id, frame)
		if err != nil {
			if errors.Is(err, detection.ErrModelNotLoaded) {
				logger.Error().Err(err).Msg("No detector, stopping source")
				src.finish(err)
				return
			}
			if ctx.Err() == nil {
				logger.Warn().Err(err).Msg("Failed to process frame")
			}
			continue
		}
		src.record(res.Report.ViolationCount)
	}
}

func (s *sourceInstance) isActive() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.active
}

func (s *sourceInstance) frameCount() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.frames
}

func (s *sourceInstance) record(violations int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.frames++
	s.lastViolations = violations
	s.lastFrameAt = time.Now()
}

func (s *sourceInstance) finish(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.active = false
	if err != nil {
		s.lastErr = err
	}
}

func (s *sourceInstance) status() SourceStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	st := SourceStatus{
		ID:             s.id,
		URL:            s.url,
		Active:         s.active,
		StartedAt:      s.startedAt,
		Frames:         s.frames,
		LastViolations: s.lastViolations,
		LastFrameAt:    s.lastFrameAt,
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// ParseSources parses "id=url,id=url". Entries without an id use the url
// as their id.
func ParseSources(list string) map[string]string {
	out := make(map[string]string)
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, url, found := strings.Cut(entry, "=")
		if !found || strings.ContainsAny(id, ":/") {
			id, url = entry, entry
		}
		out[strings.TrimSpace(id)] = strings.TrimSpace(url)
	}
	return out
}
