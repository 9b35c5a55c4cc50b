package logging

import (
	"fmt"
	"io"
	"strconv"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/config"
)

// logdyWriter forwards each log line to the embedded Logdy UI
type logdyWriter struct {
	ui logdy.Logdy
}

func (w *logdyWriter) Write(p []byte) (int, error) {
	w.ui.LogString(string(p))
	return len(p), nil
}

// StartLogdy starts the embedded Logdy web UI when enabled. It returns a
// writer to tee logs into (nil when disabled) and the UI URL.
func StartLogdy(cfg *config.Config) (io.Writer, string) {
	if !cfg.LogdyEnabled {
		return nil, ""
	}

	port := strconv.Itoa(cfg.LogdyPort)
	ui := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   cfg.LogdyHost,
		ServerPort: port,
	}, nil)

	url := fmt.Sprintf("http://%s:%s", cfg.LogdyHost, port)
	log.Info().Str("url", url).Msg("Logdy UI available")
	return &logdyWriter{ui: ui}, url
}
