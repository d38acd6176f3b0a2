package engine

import (
	"context"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ownership"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
)

// Role and ownership administration is delegated to the authorities. The
// engine only authenticates the caller; the authority decides who may act.

// GrantRole grants r to grantee on behalf of caller.
func (h *Handler) GrantRole(ctx context.Context, caller, grantee string, r role.Name) error {
	name, err := h.authenticateRole(ctx, caller, r)
	if err != nil {
		return err
	}
	return h.roles.Grant(ctx, caller, grantee, name)
}

// RevokeRole removes r from account on behalf of caller.
func (h *Handler) RevokeRole(ctx context.Context, caller, account string, r role.Name) error {
	name, err := h.authenticateRole(ctx, caller, r)
	if err != nil {
		return err
	}
	return h.roles.Revoke(ctx, caller, account, name)
}

// RenounceRole drops r from caller.
func (h *Handler) RenounceRole(ctx context.Context, caller string, r role.Name) error {
	name, err := h.authenticateRole(ctx, caller, r)
	if err != nil {
		return err
	}
	return h.roles.Renounce(ctx, caller, name)
}

// TransferOwnership starts a two-step handover to newOwner.
func (h *Handler) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	if err := h.guard.RequireAuthenticated(ctx, caller); err != nil {
		return err
	}
	return h.owners.TransferOwnership(ctx, caller, newOwner)
}

// AcceptOwnership completes a pending handover to caller.
func (h *Handler) AcceptOwnership(ctx context.Context, caller string) error {
	if err := h.guard.RequireAuthenticated(ctx, caller); err != nil {
		return err
	}
	return h.owners.AcceptOwnership(ctx, caller)
}

// RenounceOwnership leaves the ledger without an owner.
func (h *Handler) RenounceOwnership(ctx context.Context, caller string) error {
	if err := h.guard.RequireAuthenticated(ctx, caller); err != nil {
		return err
	}
	return h.owners.RenounceOwnership(ctx, caller)
}

// Owner returns the current and pending owner.
func (h *Handler) Owner(ctx context.Context) (current, pending string, err error) {
	if current, err = h.owners.CurrentOwner(ctx); err != nil {
		return "", "", err
	}
	if pending, err = h.owners.PendingOwner(ctx); err != nil {
		return "", "", err
	}
	return current, pending, nil
}

func (h *Handler) authenticateRole(ctx context.Context, caller string, r role.Name) (role.Name, error) {
	if err := h.guard.RequireAuthenticated(ctx, caller); err != nil {
		return "", err
	}
	name, ok := role.Parse(string(r))
	if !ok {
		return "", invalidRole(r)
	}
	return name, nil
}

// Bootstrap seeds the authorities: admin becomes the registry admin and holds
// the minter and operator roles, owner becomes the current owner. Authorities
// that are already seeded keep their admin, members and owner, so roles
// revoked after the first bootstrap stay revoked.
func Bootstrap(ctx context.Context, roles role.Authority, owners ownership.Authority, admin, owner string) error {
	if admin != "" {
		initializer, ok := roles.(role.Initializer)
		if ok {
			_, created, err := initializer.InitAdmin(ctx, admin)
			if err != nil {
				return err
			}
			if created {
				for _, r := range []role.Name{role.Minter, role.Operator} {
					if err := roles.Grant(ctx, admin, admin, r); err != nil {
						return err
					}
				}
			}
		}
	}
	if owner != "" {
		if initializer, ok := owners.(ownership.Initializer); ok {
			if _, err := initializer.InitOwner(ctx, owner); err != nil {
				return err
			}
		}
	}
	return nil
}
