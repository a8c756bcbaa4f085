// Package grpc exposes the users service over gRPC as
// eeye.auth.v1.AuthService and guards protected methods with bearer access
// tokens.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/eeye/internal/logging"
	"github.com/dmitrijs2005/eeye/internal/server/users"
)

// UserService is what the gRPC layer needs from users.Service.
type UserService interface {
	Register(ctx context.Context, req users.RegisterRequest) (*users.User, error)
	Login(ctx context.Context, req users.LoginRequest) (*users.TokenResponse, error)
	Authenticate(ctx context.Context, accessToken string) (*users.User, error)
}

type GRPCServer struct {
	address string
	users   UserService
	logger  logging.Logger
	health  *health.Server
}

var _ AuthServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(address string, l logging.Logger, us UserService) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		health:  health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.accessTokenStreamInterceptor),
	)
	srv.RegisterService(&AuthServiceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
