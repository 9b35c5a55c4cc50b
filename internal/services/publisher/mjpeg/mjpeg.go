// Package mjpeg serves the latest annotated frame of each source as a
// multipart/x-mixed-replace stream that browsers render as live video.
package mjpeg

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/helpers"
)

const (
	boundary          = "frame"
	keepaliveInterval = 2 * time.Second
)

type Publisher struct {
	jpegMutex   sync.RWMutex
	latestJPEG  map[string][]byte
	notifyMutex sync.Mutex
	frameNotify map[string][]chan struct{}
	closed      chan struct{}
	closeOnce   sync.Once
}

func NewPublisher() *Publisher {
	return &Publisher{
		latestJPEG:  make(map[string][]byte),
		frameNotify: make(map[string][]chan struct{}),
		closed:      make(chan struct{}),
	}
}

// Close ends every open stream. Frames can still be published afterwards
// but no new viewer is served.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

// Remove forgets the latest frame of source
func (p *Publisher) Remove(source string) {
	p.jpegMutex.Lock()
	delete(p.latestJPEG, source)
	p.jpegMutex.Unlock()
}

// PublishFrame stores frame as the latest JPEG of source and wakes its viewers
func (p *Publisher) PublishFrame(source string, frame image.Image) error {
	data, err := helpers.EncodeImage(frame, imaging.JPEG)
	if err != nil {
		return err
	}

	p.jpegMutex.Lock()
	p.latestJPEG[source] = data
	p.jpegMutex.Unlock()

	p.notifyStreamers(source)
	return nil
}

// LatestJPEG returns the most recent frame of source
func (p *Publisher) LatestJPEG(source string) ([]byte, bool) {
	p.jpegMutex.RLock()
	defer p.jpegMutex.RUnlock()
	data, ok := p.latestJPEG[source]
	return data, ok
}

// Sources lists every source that has published a frame
func (p *Publisher) Sources() []string {
	p.jpegMutex.RLock()
	defer p.jpegMutex.RUnlock()
	out := make([]string, 0, len(p.latestJPEG))
	for s := range p.latestJPEG {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (p *Publisher) notifyStreamers(source string) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	for _, notify := range p.frameNotify[source] {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (p *Publisher) subscribe(source string) chan struct{} {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	notify := make(chan struct{}, 1)
	p.frameNotify[source] = append(p.frameNotify[source], notify)
	return notify
}

func (p *Publisher) unsubscribe(source string, notify chan struct{}) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	subs := p.frameNotify[source]
	for i, ch := range subs {
		if ch == notify {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(p.frameNotify, source)
	} else {
		p.frameNotify[source] = subs
	}
}

// StreamMJPEGHTTP writes frames of source until the client goes away
func (p *Publisher) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request, source string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	select {
	case <-p.closed:
		http.Error(w, "Preview is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	notify := p.subscribe(source)
	defer p.unsubscribe(source, notify)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	first, ok := p.LatestJPEG(source)
	if !ok {
		first = placeholder(source)
	}
	if len(first) > 0 && !writePart(first) {
		return
	}

	log.Debug().Str("source", source).Msg("MJPEG viewer connected")

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("source", source).Msg("MJPEG viewer disconnected")
			return
		case <-p.closed:
			log.Debug().Str("source", source).Msg("MJPEG stream closed")
			return
		case <-notify:
		case <-keepalive.C:
		}
		if buf, ok := p.LatestJPEG(source); ok {
			if !writePart(buf) {
				return
			}
		}
	}
}

func placeholder(source string) []byte {
	dc := gg.NewContext(640, 360)
	dc.SetColor(color.RGBA{R: 64, G: 64, B: 64, A: 255})
	dc.Clear()
	dc.SetColor(color.White)
	dc.DrawString("Source: "+source, 20, 180)
	dc.DrawString("Waiting for frames...", 20, 210)

	data, err := helpers.EncodeImage(dc.Image(), imaging.JPEG)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode placeholder frame")
		return nil
	}
	return data
}
