package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"

	"github.com/louisbranch/rbac-ledger/internal/platform/authtoken"
	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	grpcmeta "github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
)

const bearerPrefix = "bearer "

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (authtoken.Claims, error)
}

// AuthUnaryInterceptor attests the caller identity carried by a bearer token.
//
// Calls without an authorization header proceed unattested, so public reads
// keep working while every mutating command fails authentication in the
// engine. A present but invalid token fails the call.
func AuthUnaryInterceptor(verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		header := grpcmeta.IncomingValue(ctx, grpcmeta.AuthorizationHeader)
		if header == "" {
			return handler(ctx, req)
		}
		locale := grpcmeta.LocaleFromContext(ctx)
		if verifier == nil {
			return nil, apperrors.HandleError(
				apperrors.New(apperrors.CodeUnauthenticated, "bearer tokens are not accepted by this server"), locale)
		}
		token, ok := bearerToken(header)
		if !ok {
			return nil, apperrors.HandleError(
				apperrors.New(apperrors.CodeUnauthenticated, "authorization header must use the bearer scheme"), locale)
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			return nil, apperrors.HandleError(err, locale)
		}
		return handler(authn.WithAttestedCaller(ctx, claims.Subject), req)
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
