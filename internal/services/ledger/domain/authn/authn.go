// Package authn carries the caller identity attested by the transport and
// checks it before every dispatched command.
//
// Verification of credentials happens outside the engine. The engine only
// confirms that the identity it was asked to act for is the one the boundary
// attested for this call.
package authn

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
)

// Authenticator confirms that caller is attested for the current call.
type Authenticator interface {
	Authenticate(ctx context.Context, caller string) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, caller string) error

// Authenticate implements Authenticator.
func (fn AuthenticatorFunc) Authenticate(ctx context.Context, caller string) error {
	return fn(ctx, caller)
}

type attestedCallerKey struct{}

// WithAttestedCaller records caller as verified for ctx.
func WithAttestedCaller(ctx context.Context, caller string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, attestedCallerKey{}, strings.TrimSpace(caller))
}

// AttestedCaller returns the caller verified for ctx.
func AttestedCaller(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	caller, ok := ctx.Value(attestedCallerKey{}).(string)
	return caller, ok && caller != ""
}

// ContextAuthenticator accepts a caller only when it matches the identity
// attested on the context.
type ContextAuthenticator struct{}

// Authenticate implements Authenticator.
func (ContextAuthenticator) Authenticate(ctx context.Context, caller string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "caller is required")
	}
	attested, ok := AttestedCaller(ctx)
	if !ok {
		return apperrors.New(apperrors.CodeUnauthenticated, "caller identity is not attested")
	}
	if attested != caller {
		return apperrors.WithMetadata(apperrors.CodeUnauthenticated,
			"caller does not match attested identity",
			map[string]string{"Caller": caller})
	}
	return nil
}
