package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/config"
)

// Setup configures the global console logger and returns the effective level
func Setup(levelName string, extra ...io.Writer) zerolog.Level {
	zerolog.TimeFieldFormat = time.RFC3339

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	writers = append(writers, extra...)
	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))

	level, err := zerolog.ParseLevel(levelName)
	if err != nil || levelName == "" {
		log.Warn().Str("level", levelName).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithFrame(base zerolog.Logger, frameID int64) zerolog.Logger {
	return base.With().Int64("frame_id", frameID).Logger()
}

func WithSource(base zerolog.Logger, source string) zerolog.Logger {
	return base.With().Str("source", source).Logger()
}
