package api

import (
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the service name reported by the gRPC health server
const HealthServiceName = "distancing.Worker"

// startGRPC serves the standard gRPC health protocol for orchestrator probes.
// A zero GRPC port disables it.
func (s *Server) startGRPC() error {
	if s.config.GRPCPort == 0 {
		return nil
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %d: %w", s.config.GRPCPort, err)
	}

	s.grpcServer = grpc.NewServer()
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.Info().Int("port", s.config.GRPCPort).Msg("gRPC health server listening")
		if err := s.grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()
	return nil
}

func (s *Server) stopGRPC() {
	if s.grpcServer == nil {
		return
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
