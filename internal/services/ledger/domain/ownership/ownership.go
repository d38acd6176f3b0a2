// Package ownership defines the single-owner authority consulted by owner-only
// operations, and an in-memory two-step implementation.
package ownership

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
)

// Authority reports and changes the ledger owner.
//
// TransferOwnership records a pending owner that must call AcceptOwnership to
// complete the change. RenounceOwnership leaves the ledger without an owner.
type Authority interface {
	CurrentOwner(ctx context.Context) (string, error)
	PendingOwner(ctx context.Context) (string, error)
	TransferOwnership(ctx context.Context, caller, newOwner string) error
	AcceptOwnership(ctx context.Context, caller string) error
	RenounceOwnership(ctx context.Context, caller string) error
}

// Initializer is implemented by authorities that can be seeded with an owner.
type Initializer interface {
	// InitOwner records owner when no owner is set yet. It reports the owner
	// in effect after the call.
	InitOwner(ctx context.Context, owner string) (string, error)
}

// Memory is an in-memory Authority.
type Memory struct {
	mu      sync.RWMutex
	owner   string
	pending string
}

// NewMemory returns an authority owned by owner.
func NewMemory(owner string) *Memory {
	return &Memory{owner: strings.TrimSpace(owner)}
}

// InitOwner sets the owner when none is configured.
func (m *Memory) InitOwner(_ context.Context, owner string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner == "" {
		m.owner = strings.TrimSpace(owner)
	}
	return m.owner, nil
}

// CurrentOwner returns the owner, or "" once renounced.
func (m *Memory) CurrentOwner(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner, nil
}

// PendingOwner returns the account that may accept ownership.
func (m *Memory) PendingOwner(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending, nil
}

// TransferOwnership nominates newOwner.
func (m *Memory) TransferOwnership(_ context.Context, caller, newOwner string) error {
	newOwner = strings.TrimSpace(newOwner)
	if newOwner == "" {
		return apperrors.New(apperrors.CodeInvalidAccount, "new owner is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := requireOwner(m.owner, caller); err != nil {
		return err
	}
	m.pending = newOwner
	return nil
}

// AcceptOwnership completes a pending transfer.
func (m *Memory) AcceptOwnership(_ context.Context, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == "" {
		return apperrors.New(apperrors.CodeNotFound, "no ownership transfer is pending")
	}
	if caller != m.pending {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the pending owner")
	}
	m.owner, m.pending = m.pending, ""
	return nil
}

// RenounceOwnership clears the owner.
func (m *Memory) RenounceOwnership(_ context.Context, caller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := requireOwner(m.owner, caller); err != nil {
		return err
	}
	m.owner, m.pending = "", ""
	return nil
}

func requireOwner(owner, caller string) error {
	if owner == "" || caller != owner {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}
