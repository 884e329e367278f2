// Package rpc exposes the engine's liveness over gRPC health checking
// and server reflection, the only two gRPC services whose wire types
// ship inside google.golang.org/grpc itself, so this package needs no
// hand-authored generated protobuf code.
package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/luxfi/log"
)

// Server wraps a *grpc.Server with the health and reflection services
// registered, and a way to drive the health status from the engine's
// own book-integrity checks.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     log.Logger
}

// New constructs a Server with health and reflection wired in but not
// yet serving.
func New(logger log.Logger) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()

	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	return &Server{grpcServer: grpcServer, health: healthServer, logger: logger}
}

// SetServing flips the overall service health status, e.g. driven by
// engine.Engine.ValidateState in a periodic check.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Serve blocks accepting connections on addr until the listener errors
// or GracefulStop is called.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("rpc: serving health/reflection", "addr", addr)
	}
	return s.grpcServer.Serve(lis)
}

// GracefulStop stops accepting new RPCs and waits for pending ones to
// finish.
func (s *Server) GracefulStop() { s.grpcServer.GracefulStop() }
