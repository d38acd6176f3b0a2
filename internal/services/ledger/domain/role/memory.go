package role

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
)

// Memory is an in-memory Authority.
type Memory struct {
	mu      sync.RWMutex
	admin   string
	members map[Name][]string
}

// NewMemory returns an authority administered by admin.
func NewMemory(admin string) *Memory {
	return &Memory{
		admin:   strings.TrimSpace(admin),
		members: make(map[Name][]string),
	}
}

// InitAdmin sets the admin when none is configured.
func (m *Memory) InitAdmin(_ context.Context, admin string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin = strings.TrimSpace(admin)
	if m.admin != "" || admin == "" {
		return m.admin, false, nil
	}
	m.admin = admin
	return m.admin, true, nil
}

// HasRole reports whether account holds role.
func (m *Memory) HasRole(_ context.Context, account string, role Name) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Contains(m.members[role], account), nil
}

// Grant adds grantee to role. Granting a held role is a no-op.
func (m *Memory) Grant(_ context.Context, granter, grantee string, role Name) error {
	grantee = strings.TrimSpace(grantee)
	if grantee == "" {
		return apperrors.New(apperrors.CodeInvalidAccount, "grantee is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireAdmin(granter); err != nil {
		return err
	}
	if !slices.Contains(m.members[role], grantee) {
		m.members[role] = append(m.members[role], grantee)
	}
	return nil
}

// Revoke removes account from role.
func (m *Memory) Revoke(_ context.Context, revoker, account string, role Name) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireAdmin(revoker); err != nil {
		return err
	}
	return m.remove(account, role)
}

// Renounce removes the caller's own membership.
func (m *Memory) Renounce(_ context.Context, account string, role Name) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(account, role)
}

// MemberCount returns the number of members of role.
func (m *Memory) MemberCount(_ context.Context, role Name) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint32(len(m.members[role])), nil
}

// MemberAt returns the member at index in insertion order.
func (m *Memory) MemberAt(_ context.Context, role Name, index uint32) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members := m.members[role]
	if int(index) >= len(members) {
		return "", apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("role %s has no member at index %d", role, index),
			map[string]string{"Role": string(role)})
	}
	return members[index], nil
}

// Admin returns the registry admin.
func (m *Memory) Admin(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.admin, nil
}

func (m *Memory) requireAdmin(caller string) error {
	if m.admin == "" || caller != m.admin {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the role admin")
	}
	return nil
}

func (m *Memory) remove(account string, role Name) error {
	members := m.members[role]
	idx := slices.Index(members, account)
	if idx < 0 {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("account %s does not hold role %s", account, role),
			map[string]string{"Role": string(role)})
	}
	m.members[role] = slices.Delete(slices.Clone(members), idx, idx+1)
	return nil
}
