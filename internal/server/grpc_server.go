package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/picfeed/internal/config"
	"github.com/oggyb/picfeed/internal/logger"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "picfeed.api"

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// NewGRPCServer returns a gRPC server exposing the standard health
// service and reflection, plus the health server so callers can flip it.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)
	return grpcServer, hs
}

// StartGRPCServer serves health + reflection until ctx is canceled. The
// health status follows ping, checked every interval.
func StartGRPCServer(ctx context.Context, cfg *config.Config, ping Pinger, interval time.Duration) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return serveGRPC(ctx, lis, ping, interval)
}

func serveGRPC(ctx context.Context, lis net.Listener, ping Pinger, interval time.Duration) error {
	grpcServer, hs := NewGRPCServer()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watchHealth(watchCtx, hs, ping, interval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting gRPC server", "addr", lis.Addr().String())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	hs.Shutdown()
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		grpcServer.Stop()
	}
	return nil
}

func watchHealth(ctx context.Context, hs *health.Server, ping Pinger, interval time.Duration) {
	check := func() {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := ping(pctx)
		cancel()
		if err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			logger.Warn("health check failed", "err", err)
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}

	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}
