package observability

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported to gRPC health clients
const ServiceName = "etaca.donations"

// GRPCHealthServer exposes the standard grpc.health.v1 service with its
// status driven by the HealthChecker
type GRPCHealthServer struct {
	Server  *grpc.Server
	health  *health.Server
	checker *HealthChecker
	logger  *zap.Logger
}

// NewGRPCHealthServer creates the gRPC server hosting health and reflection
func NewGRPCHealthServer(checker *HealthChecker, logger *zap.Logger) *GRPCHealthServer {
	server := grpc.NewServer(grpc.UnaryInterceptor(UnaryServerInterceptor()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCHealthServer{
		Server:  server,
		health:  hs,
		checker: checker,
		logger:  logger,
	}
}

// Refresh runs the checks once and publishes the resulting status
func (g *GRPCHealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if g.checker.Ready() && g.checker.Check(ctx).Healthy() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch refreshes the status every interval until ctx is done. Intended to
// run inside a shutdown.PeriodicWorker.
func (g *GRPCHealthServer) Watch(interval time.Duration) func(ctx context.Context) {
	var last healthpb.HealthCheckResponse_ServingStatus
	return func(ctx context.Context) {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		if status := g.Refresh(checkCtx); status != last {
			g.logger.Info("gRPC health status changed", zap.String("status", status.String()))
			last = status
		}
	}
}

// Shutdown marks every service NOT_SERVING and stops the server
func (g *GRPCHealthServer) Shutdown(ctx context.Context) error {
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.Server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		g.Server.Stop()
		return ctx.Err()
	}
}
