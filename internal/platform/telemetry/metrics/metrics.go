package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "rbac_ledger"

// Command outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Dispatched commands by type and outcome.",
	}, []string{"command", "outcome"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Rejected commands by error code.",
	}, []string{"code"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Committed journal events by type.",
	}, []string{"type"})

	pendingTransfers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_transfers",
		Help:      "Proposed transfers that have not been executed.",
	})

	grpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "requests_total",
		Help:      "gRPC requests by method and status code.",
	}, []string{"method", "code"})

	grpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 10},
	}, []string{"method"})
)

// CommandCommitted records an accepted command and its events.
func CommandCommitted(command string, eventTypes []string) {
	commandsTotal.WithLabelValues(command, OutcomeCommitted).Inc()
	for _, t := range eventTypes {
		eventsTotal.WithLabelValues(t).Inc()
	}
}

// CommandRejected records a command declined by a guard or decider.
func CommandRejected(command, code string) {
	commandsTotal.WithLabelValues(command, OutcomeRejected).Inc()
	rejectionsTotal.WithLabelValues(code).Inc()
}

// CommandFailed records a command that failed on infrastructure.
func CommandFailed(command string) {
	commandsTotal.WithLabelValues(command, OutcomeFailed).Inc()
}

// SetPendingTransfers reports the current number of unexecuted transfers.
func SetPendingTransfers(n int) {
	pendingTransfers.Set(float64(n))
}

// UnaryServerInterceptor records request counts and latency per method.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		grpcRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		grpcRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}
