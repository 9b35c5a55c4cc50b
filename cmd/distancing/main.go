// Command distancing runs person detection and the distancing overlay over an
// image, a video file or a camera and optionally records the result.
package main

import (
	"context"
	"flag"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/logging"
	"distancing-worker-go/internal/services/detection/darknet"
	"distancing-worker-go/internal/services/pipeline"
	"distancing-worker-go/internal/services/recorder"
	"distancing-worker-go/internal/services/streamcapture"
)

const windowName = "Social Distancing"

func main() {
	input := flag.String("i", "", "path to input image or video, camera index, empty for camera 0")
	output := flag.String("o", "", "path to output image or video")
	display := flag.Bool("display", true, "show annotated frames in a window")
	flag.Parse()

	logging.Setup("info")
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	detector, err := darknet.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load person detector")
	}
	defer detector.Close()

	source, err := streamcapture.Open(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open input")
	}
	defer source.Close()

	var rec *recorder.Recorder
	if *output != "" {
		rec = recorder.New(*output, source.FPS())
		defer rec.Close()
	}

	var window *gocv.Window
	if *display {
		window = gocv.NewWindow(windowName)
		defer window.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := pipeline.NewProcessor(cfg, detector, nil)
	name := *input
	if name == "" {
		name = "camera:0"
	}

	for ctx.Err() == nil {
		frame, ok, err := source.Next()
		if err != nil {
			log.Error().Err(err).Msg("Failed to read frame")
			break
		}
		if !ok {
			break
		}

		res, err := processor.ProcessFrame(ctx, name, frame)
		if err != nil {
			log.Error().Err(err).Msg("Failed to process frame")
			break
		}

		if rec != nil {
			if err := rec.WriteFrame(res.Frame); err != nil {
				log.Error().Err(err).Msg("Failed to record frame")
				break
			}
		}

		if window != nil {
			// still images wait for any key, video continues unless q is pressed
			delay := 1
			if source.IsStill() {
				delay = 0
			}
			if show(window, res.Frame, delay) == 'q' {
				break
			}
		}
	}

	log.Info().Msg("Done")
}

func show(window *gocv.Window, frame image.Image, delay int) int {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to convert frame for display")
		return -1
	}
	defer mat.Close()

	window.IMShow(mat)
	return window.WaitKey(delay)
}
