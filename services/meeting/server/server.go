package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/services/meeting/handler"
)

const shutdownTimeout = 10 * time.Second

// Server runs the HTTP API next to a gRPC listener that only carries the
// standard health service. Both share one health.Server so the HTTP
// /health route and gRPC probes agree.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	handler *handler.Handler
	health  *health.Server
}

func New(cfg *config.Config, h *handler.Handler, hs *health.Server, log *slog.Logger) *Server {
	log.Info("creating meetings server")
	log.Debug("server config",
		slog.Int("port", cfg.Port),
		slog.Int("grpc_port", cfg.GRPCPort),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.Bool("summarizer_api_key_set", cfg.Summarizer.APIKey != ""))

	return &Server{
		cfg:     cfg,
		log:     log,
		handler: h,
		health:  hs,
	}
}

// Start blocks until ctx is cancelled or one of the listeners fails, then
// drains both servers.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, s.health)

	grpcAddr := fmt.Sprintf(":%d", s.cfg.GRPCPort)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	serverErrors := make(chan error, 2)

	go func() {
		s.log.Info("http server started", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		s.log.Info("grpc health service started", slog.String("address", grpcAddr))
		if err := grpcSrv.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErrors <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		s.log.Error("server error received", slog.String("error", err.Error()))
		runErr = err
	case <-ctx.Done():
		s.log.Info("start shutdown", slog.String("reason", context.Cause(ctx).Error()))
	}

	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("graceful shutdown failed", slog.String("error", err.Error()))
		if closeErr := srv.Close(); closeErr != nil {
			s.log.Error("failed to close http server", slog.String("error", closeErr.Error()))
		}
		runErr = errors.Join(runErr, fmt.Errorf("could not stop server gracefully: %w", err))
	}

	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}

	s.log.Info("server stopped")
	return runErr
}
