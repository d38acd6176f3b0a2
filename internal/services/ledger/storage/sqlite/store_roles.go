package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
)

// InitAdmin records admin when the role registry has none yet and returns
// the admin in effect. created is true only when this call inserted the row.
func (s *Store) InitAdmin(ctx context.Context, admin string) (string, bool, error) {
	if err := s.ready(); err != nil {
		return "", false, err
	}
	created := false
	admin = strings.TrimSpace(admin)
	if admin != "" {
		res, err := s.sqlDB.ExecContext(ctx,
			`INSERT OR IGNORE INTO role_admin (id, admin) VALUES (1, ?)`, admin,
		)
		if err != nil {
			return "", false, fmt.Errorf("init role admin: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return "", false, fmt.Errorf("init role admin: %w", err)
		}
		created = affected == 1
	}
	effective, err := s.Admin(ctx)
	if err != nil {
		return "", false, err
	}
	return effective, created, nil
}

// Admin returns the role registry admin, or "" when none is configured.
func (s *Store) Admin(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return readAdmin(ctx, s.sqlDB)
}

// HasRole reports whether account holds r.
func (s *Store) HasRole(ctx context.Context, account string, r role.Name) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM role_members WHERE role = ? AND account = ?`, string(r), account,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return true, nil
}

// Grant adds grantee to r. Granting a held role is a no-op.
func (s *Store) Grant(ctx context.Context, granter, grantee string, r role.Name) error {
	if err := s.ready(); err != nil {
		return err
	}
	grantee = strings.TrimSpace(grantee)
	if grantee == "" {
		return apperrors.New(apperrors.CodeInvalidAccount, "grantee is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRoleAdmin(ctx, tx, granter); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO role_members (role, account, granted_at) VALUES (?, ?, ?)`,
			string(r), grantee, toMillis(s.now()),
		); err != nil {
			return fmt.Errorf("grant role: %w", err)
		}
		return nil
	})
}

// Revoke removes account from r.
func (s *Store) Revoke(ctx context.Context, revoker, account string, r role.Name) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRoleAdmin(ctx, tx, revoker); err != nil {
			return err
		}
		return removeMember(ctx, tx, account, r)
	})
}

// Renounce removes the caller's own membership.
func (s *Store) Renounce(ctx context.Context, account string, r role.Name) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return removeMember(ctx, tx, account, r)
	})
}

// MemberCount returns the number of members of r.
func (s *Store) MemberCount(ctx context.Context, r role.Name) (uint32, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM role_members WHERE role = ?`, string(r),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count role members: %w", err)
	}
	return uint32(count), nil
}

// MemberAt returns the member at index in grant order.
func (s *Store) MemberAt(ctx context.Context, r role.Name, index uint32) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var account string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT account FROM role_members WHERE role = ? ORDER BY id ASC LIMIT 1 OFFSET ?`,
		string(r), int64(index),
	).Scan(&account)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("role %s has no member at index %d", r, index),
			map[string]string{"Role": string(r)})
	}
	if err != nil {
		return "", fmt.Errorf("read role member: %w", err)
	}
	return account, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readAdmin(ctx context.Context, q queryRower) (string, error) {
	var admin string
	err := q.QueryRowContext(ctx, `SELECT admin FROM role_admin WHERE id = 1`).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read role admin: %w", err)
	}
	return admin, nil
}

func requireRoleAdmin(ctx context.Context, tx *sql.Tx, caller string) error {
	admin, err := readAdmin(ctx, tx)
	if err != nil {
		return err
	}
	if admin == "" || caller != admin {
		return apperrors.New(apperrors.CodeUnauthorized, "caller is not the role admin")
	}
	return nil
}

func removeMember(ctx context.Context, tx *sql.Tx, account string, r role.Name) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM role_members WHERE role = ? AND account = ?`, string(r), account,
	)
	if err != nil {
		return fmt.Errorf("remove role member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove role member: %w", err)
	}
	if affected == 0 {
		return apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("account %s does not hold role %s", account, r),
			map[string]string{"Role": string(r)})
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
