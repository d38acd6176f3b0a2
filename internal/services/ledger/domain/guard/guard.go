// Package guard evaluates the preconditions that gate every ledger command.
//
// Checks run in a fixed order: authentication, then role or ownership, then
// the pause flag. The first failing check short-circuits; input validation and
// mutation only happen after every guard passes.
package guard

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ownership"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
)

// Authorization selects the capability a command requires.
type Authorization string

const (
	// AuthorizeRole requires the caller to hold Policy.Role.
	AuthorizeRole Authorization = "role"
	// AuthorizeOwner requires the caller to be the current owner.
	AuthorizeOwner Authorization = "owner"
	// AuthorizeAdmin requires the caller to be the role registry admin.
	AuthorizeAdmin Authorization = "admin"
)

// Policy declares the guards applied to one command type.
type Policy struct {
	Authorization Authorization
	Role          role.Name
	// CheckPause rejects the command while the ledger is paused.
	CheckPause bool
}

// Validate reports whether the policy is well formed.
func (p Policy) Validate() error {
	switch p.Authorization {
	case AuthorizeRole:
		if p.Role == "" {
			return fmt.Errorf("role policy requires a role")
		}
	case AuthorizeOwner, AuthorizeAdmin:
		if p.Role != "" {
			return fmt.Errorf("%s policy must not name a role", p.Authorization)
		}
	default:
		return fmt.Errorf("authorization is invalid: %q", p.Authorization)
	}
	return nil
}

// Guard evaluates policies against the ledger's collaborators.
type Guard struct {
	Authn  authn.Authenticator
	Roles  role.Authority
	Owners ownership.Authority
}

// Check applies policy for caller. paused is the current pause flag.
func (g Guard) Check(ctx context.Context, policy Policy, caller string, paused bool) error {
	if err := g.RequireAuthenticated(ctx, caller); err != nil {
		return err
	}
	var err error
	switch policy.Authorization {
	case AuthorizeRole:
		err = g.RequireRole(ctx, caller, policy.Role)
	case AuthorizeOwner:
		err = g.RequireOwner(ctx, caller)
	case AuthorizeAdmin:
		err = g.RequireAdmin(ctx, caller)
	default:
		err = fmt.Errorf("authorization is invalid: %q", policy.Authorization)
	}
	if err != nil {
		return err
	}
	if policy.CheckPause {
		return RequireNotPaused(paused)
	}
	return nil
}

// RequireAuthenticated fails with UNAUTHENTICATED unless caller is attested.
func (g Guard) RequireAuthenticated(ctx context.Context, caller string) error {
	if g.Authn == nil {
		return apperrors.New(apperrors.CodeUnauthenticated, "no authenticator is configured")
	}
	if err := g.Authn.Authenticate(ctx, caller); err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
			return err
		}
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "authenticate caller", err)
	}
	return nil
}

// RequireRole fails with UNAUTHORIZED unless caller holds r.
func (g Guard) RequireRole(ctx context.Context, caller string, r role.Name) error {
	if g.Roles == nil {
		return fmt.Errorf("role authority is required")
	}
	ok, err := g.Roles.HasRole(ctx, caller, r)
	if err != nil {
		return fmt.Errorf("check role %s: %w", r, err)
	}
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized,
			fmt.Sprintf("caller lacks role %s", r),
			map[string]string{"Role": string(r)})
	}
	return nil
}

// RequireOwner fails with UNAUTHORIZED unless caller is the current owner.
func (g Guard) RequireOwner(ctx context.Context, caller string) error {
	if g.Owners == nil {
		return fmt.Errorf("ownership authority is required")
	}
	owner, err := g.Owners.CurrentOwner(ctx)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	if owner == "" || owner != caller {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// RequireAdmin fails with UNAUTHORIZED unless caller is the registry admin.
func (g Guard) RequireAdmin(ctx context.Context, caller string) error {
	if g.Roles == nil {
		return fmt.Errorf("role authority is required")
	}
	admin, err := g.Roles.Admin(ctx)
	if err != nil {
		return fmt.Errorf("load admin: %w", err)
	}
	if admin == "" || admin != caller {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the admin")
	}
	return nil
}

// RequireNotPaused fails with CONTRACT_PAUSED while paused.
func RequireNotPaused(paused bool) error {
	if paused {
		return apperrors.New(apperrors.CodeContractPaused, "ledger is paused")
	}
	return nil
}
