package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/bibbank/profileguard/internal/infrastructure/tlsutil"
)

// HealthServiceName is the service name reported by the gRPC health service.
const HealthServiceName = "profileguard"

// ServerConfig configures the gRPC listener. TLS is on when both files are set.
type ServerConfig struct {
	Address          string
	TLSCertFile      string
	TLSKeyFile       string
	EnableReflection bool
}

// Server hosts the profile risk service next to the standard health service.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	logger *slog.Logger
	addr   string
}

func NewServer(handler *ProfileRiskHandler, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(recoverUnary(logger), logUnary(logger)),
	}
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := tlsutil.ServerCredentials(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("grpc: TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	s := &Server{
		srv:    grpc.NewServer(opts...),
		health: health.NewServer(),
		logger: logger,
		addr:   cfg.Address,
	}
	RegisterProfileRiskServiceServer(s.srv, handler)
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.EnableReflection {
		reflection.Register(s.srv)
	}
	return s, nil
}

// Start listens on the configured address and blocks serving.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc: listen %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "address", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Stop reports NOT_SERVING to health checkers, then drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
	s.logger.Info("gRPC server stopped")
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		if code == codes.Internal || code == codes.Unavailable {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "grpc call",
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

func recoverUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "panic in grpc handler", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return next(ctx, req)
	}
}
