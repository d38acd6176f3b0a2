package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T, initial grpc_health_v1.HealthCheckResponse_ServingStatus) (string, func(grpc_health_v1.HealthCheckResponse_ServingStatus)) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", initial)
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)
	return lis.Addr().String(), func(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
		healthServer.SetServingStatus("", status)
	}
}

func TestDialWaitsForServing(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)

	conn, err := Dial(context.Background(), addr, 2*time.Second, nil, ClientOptions()...)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close conn: %v", err)
	}
}

func TestDialReportsHealthStage(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	start := time.Now()
	conn, err := Dial(context.Background(), addr, 300*time.Millisecond, nil, ClientOptions()...)
	if err == nil {
		_ = conn.Close()
		t.Fatal("expected error")
	}
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %T", err)
	}
	if dialErr.Stage != DialStageHealth {
		t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageHealth)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected timeout to bound health wait, took %v", elapsed)
	}
}

func TestDialReportsConnectStage(t *testing.T) {
	// No transport credentials configured.
	_, err := Dial(context.Background(), "127.0.0.1:1", time.Second, nil)
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %v", err)
	}
	if dialErr.Stage != DialStageConnect {
		t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageConnect)
	}
}

func TestWaitForHealthTransitionsToServing(t *testing.T) {
	addr, setStatus := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	conn, err := gogrpc.NewClient(addr, ClientOptions()...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer conn.Close()

	go func() {
		time.Sleep(150 * time.Millisecond)
		setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "", nil); err != nil {
		t.Fatalf("wait for health after transition: %v", err)
	}
}

func TestWaitForHealthRequiresConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected nil connection error")
	}
}

func TestDialErrorFormatting(t *testing.T) {
	wrapped := &DialError{Stage: DialStageConnect, Err: fmt.Errorf("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	var nilErr *DialError
	if nilErr.Error() == "" {
		t.Fatal("expected fallback error message")
	}
	if nilErr.Unwrap() != nil {
		t.Fatal("expected nil unwrap for nil error")
	}
}
