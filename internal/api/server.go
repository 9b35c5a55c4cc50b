package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"distancing-worker-go/internal/api/handlers"
	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/services"
)

type Server struct {
	config    *config.Config
	container *services.ServiceContainer
	router    *gin.Engine
	server    *http.Server

	grpcServer *grpc.Server
	health     *health.Server

	healthHandler     *handlers.HealthHandler
	systemHandler     *handlers.SystemHandler
	distancingHandler *handlers.DistancingHandler
	streamHandler     *handlers.StreamHandler
	sourceHandler     *handlers.SourceHandler
	reportHandler     *handlers.ReportHandler
}

func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:            cfg,
		container:         container,
		router:            gin.New(),
		healthHandler:     handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, container.DetectionSvc),
		systemHandler:     handlers.NewSystemHandler(cfg),
		distancingHandler: handlers.NewDistancingHandler(cfg, container.Processor),
		streamHandler:     handlers.NewStreamHandler(container.Preview),
		sourceHandler:     handlers.NewSourceHandler(container.Worker),
		reportHandler:     handlers.NewReportHandler(container.ReportStore, container.ReportHub),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	// MJPEG viewers never finish on their own and would hold Shutdown
	// until its deadline
	if container.Preview != nil {
		s.server.RegisterOnShutdown(container.Preview.Close)
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if err := s.startGRPC(); err != nil {
		return err
	}

	log.Info().Int("port", s.config.Port).Msg("Starting distancing worker API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping distancing worker API")
	s.stopGRPC()

	err := s.server.Shutdown(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("HTTP server did not shut down cleanly")
	}
	return errors.Join(err, s.container.Shutdown(ctx))
}
