// Package server реализует gRPC-сервер health-проверок back-office.
//
// HealthServer периодически проверяет зависимости и публикует статус
// стандартного сервиса grpc.health.v1.Health.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
)

// ServiceName имя сервиса в ответах health-проверки
const ServiceName = "backoffice"

// Pinger проверяемая зависимость
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer gRPC-сервер со статусом зависимостей
type HealthServer struct {
	grpc     *grpc.Server
	health   *health.Server
	checks   map[string]Pinger
	interval time.Duration
	log      *slog.Logger
}

// NewHealthServer создает сервер. До первой проверки статус NOT_SERVING.
func NewHealthServer(checks map[string]Pinger, interval time.Duration, log *slog.Logger) *HealthServer {
	s := &HealthServer{
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
		checks:   checks,
		interval: interval,
		log:      log,
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// Serve принимает соединения на lis и обновляет статус, пока не отменён ctx.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()
	return s.grpc.Serve(lis)
}

// Check проверяет зависимости один раз и обновляет статус.
func (s *HealthServer) Check(ctx context.Context) bool {
	status := healthpb.HealthCheckResponse_SERVING
	for name, p := range s.checks {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Ping(pingCtx)
		cancel()
		if err != nil {
			s.log.Warn("dependency is not reachable", slog.String("check", name), sl.Err(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status == healthpb.HealthCheckResponse_SERVING
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
