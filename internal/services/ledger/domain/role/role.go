// Package role defines the role authority the ledger consults for membership
// checks, and an in-memory reference implementation.
package role

import (
	"context"
	"strings"
)

// Name identifies a role.
type Name string

// Roles recognized by the ledger.
const (
	Operator Name = "operator"
	Minter   Name = "minter"
	Burner   Name = "burner"
	Pauser   Name = "pauser"
	Viewer   Name = "viewer"
	Transfer Name = "transfer"
	Approver Name = "approver"
)

var known = []Name{Operator, Minter, Burner, Pauser, Viewer, Transfer, Approver}

// Known returns the roles recognized by the ledger in a stable order.
func Known() []Name {
	return append([]Name(nil), known...)
}

// Parse normalizes value and reports whether it names a known role.
func Parse(value string) (Name, bool) {
	name := Name(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range known {
		if k == name {
			return name, true
		}
	}
	return "", false
}

// Authority is the source of truth for role membership.
//
// Grant and Revoke require granter/revoker to be the registry admin. Members
// are enumerable in insertion order; MemberAt fails with NOT_FOUND when index
// is out of range.
type Authority interface {
	HasRole(ctx context.Context, account string, role Name) (bool, error)
	Grant(ctx context.Context, granter, grantee string, role Name) error
	Revoke(ctx context.Context, revoker, account string, role Name) error
	Renounce(ctx context.Context, account string, role Name) error
	MemberCount(ctx context.Context, role Name) (uint32, error)
	MemberAt(ctx context.Context, role Name, index uint32) (string, error)
	Admin(ctx context.Context) (string, error)
}

// Initializer is implemented by authorities that can be seeded with an admin.
type Initializer interface {
	// InitAdmin records admin when no admin is set yet. It reports the admin
	// in effect after the call and whether this call recorded it.
	InitAdmin(ctx context.Context, admin string) (effective string, created bool, err error)
}

// Members lists every member of role in insertion order.
func Members(ctx context.Context, authority Authority, role Name) ([]string, error) {
	count, err := authority.MemberCount(ctx, role)
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		member, err := authority.MemberAt(ctx, role, i)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}
