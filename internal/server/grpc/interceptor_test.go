package grpc

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

func TestReadinessInterceptor_OnlyChecksHealth(t *testing.T) {
	checker := &fakeChecker{err: errors.New("down")}
	s := NewGRPCServer("", logging.Discard(), checker)
	s.SetServing(true)

	h := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Other"}
	if _, err := s.readinessInterceptor(context.Background(), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, _ := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("non-health call changed status to %v", resp.GetStatus())
	}

	info = &grpc.UnaryServerInfo{FullMethod: healthpb.Health_Check_FullMethodName}
	out, err := s.readinessInterceptor(context.Background(), nil, info, h)
	if err != nil || out != "ok" {
		t.Fatalf("handler result = %v, %v", out, err)
	}
	resp, _ = s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", resp.GetStatus())
	}
}
