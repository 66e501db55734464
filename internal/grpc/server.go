package grpcserver

import (
	"context"
	"database/sql"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"railbite/internal/auth"
	"railbite/internal/service"
)

const (
	healthCheckMethod = "/grpc.health.v1.Health/Check"
	healthListMethod  = "/grpc.health.v1.Health/List"
)

// Options configures the operations server.
type Options struct {
	JWTSecret string
	Services  *service.Services
	// DB is pinged every HealthInterval; health flips to NOT_SERVING while it fails.
	DB             *sql.DB
	HealthInterval time.Duration
	Logger         *zap.Logger
}

// Server is the gRPC operations endpoint: health, reflection and the admin Ops service.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	opts   Options
	log    *zap.Logger
	stop   chan struct{}
}

// New builds the server without listening.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 15 * time.Second
	}
	srv := grpc.NewServer(grpc.UnaryInterceptor(
		auth.NewUnaryAuthInterceptor(opts.JWTSecret, healthCheckMethod, healthListMethod),
	))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	registerOps(srv, &opsServer{svc: opts.Services})
	reflection.Register(srv)

	return &Server{srv: srv, health: hs, opts: opts, log: opts.Logger.Named("grpc"), stop: make(chan struct{})}
}

// Serve starts the database health check and blocks serving lis.
func (s *Server) Serve(lis net.Listener) error {
	s.checkDatabase(context.Background())
	go s.watchDatabase()
	return s.srv.Serve(lis)
}

// Start listens on addr and serves in the background.
func Start(addr string, opts Options) (*Server, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := New(opts)
	go func() {
		if err := s.Serve(lis); err != nil {
			s.log.Error("grpc server stopped", zap.Error(err))
		}
	}()
	s.log.Info("grpc server listening", zap.String("address", lis.Addr().String()))
	return s, nil
}

// Shutdown stops gracefully, forcing a stop when ctx expires first.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.health.Shutdown()
	done := make(chan struct{})
	go func() { s.srv.GracefulStop(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.srv.Stop()
		return ctx.Err()
	}
}

func (s *Server) watchDatabase() {
	t := time.NewTicker(s.opts.HealthInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.checkDatabase(context.Background())
		}
	}
}

// checkDatabase sets the overall and Ops service status from a database ping.
func (s *Server) checkDatabase(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.opts.DB != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.opts.DB.PingContext(ctx); err != nil {
			s.log.Warn("database health check failed", zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(opsServiceName, st)
}
