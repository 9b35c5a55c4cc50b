package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"distancing-worker-go/internal/api"
	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/services"
	"distancing-worker-go/internal/services/detection"
	"distancing-worker-go/internal/services/detection/darknet"
	"distancing-worker-go/internal/services/streamcapture"
	"distancing-worker-go/internal/worker"
)

// @title Distancing Worker API
// @version 1.0.0
// @description Detects people in frames and flags pairs standing closer than a pixel threshold.
// @BasePath /
func main() {
	logging.Setup("info")

	cfg := config.Load()

	var extra []io.Writer
	if w, _ := logging.StartLogdy(cfg); w != nil {
		extra = append(extra, w)
	}
	logging.Setup(cfg.LogLevel, extra...)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Float64("min_distance", cfg.MinDistance).
		Bool("use_gpu", cfg.UseGPU).
		Msg("Starting distancing worker")

	var detector detection.Detector
	if d, err := darknet.New(cfg); err != nil {
		log.Warn().Err(err).Str("model_path", cfg.ModelPath).Msg("Person detector unavailable, /v1/process is disabled")
	} else {
		detector = d
	}

	container, err := services.NewServiceContainer(cfg, detector, openSource)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	server := api.NewServer(cfg, container)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

func openSource(url string) (worker.FrameSource, error) {
	src, err := streamcapture.Open(url)
	if err != nil {
		return nil, err
	}
	return src, nil
}
