package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/rbac-ledger/internal/platform/logging"
	"github.com/louisbranch/rbac-ledger/internal/platform/requestctx"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
)

// LoggingUnaryInterceptor writes one access log line per unary call.
// Failed calls log at warn, successful ones at debug.
func LoggingUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = logging.OrNop(logger)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if requestID := requestctx.RequestIDFromContext(ctx); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if caller, ok := authn.AttestedCaller(ctx); ok {
			fields = append(fields, zap.String("caller", caller))
		}
		if err != nil {
			logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
			return resp, err
		}
		logger.Debug("grpc call", fields...)
		return resp, nil
	}
}
