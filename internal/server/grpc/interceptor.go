package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

// readinessInterceptor refreshes the health status from the database
// before each Check so probes see an outage without a separate poller.
func (s *GRPCServer) readinessInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if info.FullMethod == healthpb.Health_Check_FullMethodName && s.checker != nil {
		if err := s.checker.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			s.SetServing(false)
		} else {
			s.SetServing(true)
		}
	}
	return handler(ctx, req)
}
