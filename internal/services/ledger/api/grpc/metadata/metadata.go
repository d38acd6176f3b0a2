// Package metadata defines the headers that carry request context across the
// ledger's gRPC boundary.
package metadata

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/rbac-ledger/internal/platform/id"
	"github.com/louisbranch/rbac-ledger/internal/platform/requestctx"
)

// RequestIDHeader is the gRPC metadata key for request correlation IDs.
const RequestIDHeader = "x-rbac-ledger-request-id"

// LocaleHeader selects the language of user-facing error messages.
const LocaleHeader = "x-rbac-ledger-locale"

// AuthorizationHeader carries the bearer token.
const AuthorizationHeader = "authorization"

// IsPrintableASCII reports whether a string contains only printable ASCII characters.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII metadata value for a key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if len(md) == 0 {
		return ""
	}
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// IncomingValue returns the first printable value for key on the incoming call.
func IncomingValue(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(FirstMetadataValue(md, key))
}

// LocaleFromContext returns the requested error message locale, if any.
func LocaleFromContext(ctx context.Context) string {
	return IncomingValue(ctx, LocaleHeader)
}

// UnaryServerInterceptor guarantees every unary call carries a request ID.
// A client-supplied ID is kept; otherwise one is generated. The ID is echoed
// back in the response header.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := IncomingValue(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}
