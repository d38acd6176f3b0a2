package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
)

// InitOwner seeds owner the first time the database is opened. A renounced
// owner stays renounced across restarts.
func (s *Store) InitOwner(ctx context.Context, owner string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	owner = strings.TrimSpace(owner)
	if owner != "" {
		if _, err := s.sqlDB.ExecContext(ctx,
			`INSERT OR IGNORE INTO ownership (id, owner, pending, updated_at) VALUES (1, ?, '', ?)`,
			owner, toMillis(s.now()),
		); err != nil {
			return "", fmt.Errorf("init owner: %w", err)
		}
	}
	return s.CurrentOwner(ctx)
}

// CurrentOwner returns the owner, or "" once renounced.
func (s *Store) CurrentOwner(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	owner, _, err := readOwnership(ctx, s.sqlDB)
	return owner, err
}

// PendingOwner returns the account that may accept ownership.
func (s *Store) PendingOwner(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	_, pending, err := readOwnership(ctx, s.sqlDB)
	return pending, err
}

// TransferOwnership nominates newOwner.
func (s *Store) TransferOwnership(ctx context.Context, caller, newOwner string) error {
	if err := s.ready(); err != nil {
		return err
	}
	newOwner = strings.TrimSpace(newOwner)
	if newOwner == "" {
		return apperrors.New(apperrors.CodeInvalidAccount, "new owner is required")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		owner, _, err := readOwnership(ctx, tx)
		if err != nil {
			return err
		}
		if owner == "" || caller != owner {
			return apperrors.New(apperrors.CodeUnauthorized, "caller is not the owner")
		}
		return s.writeOwnership(ctx, tx, owner, newOwner)
	})
}

// AcceptOwnership completes a pending transfer.
func (s *Store) AcceptOwnership(ctx context.Context, caller string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, pending, err := readOwnership(ctx, tx)
		if err != nil {
			return err
		}
		if pending == "" {
			return apperrors.New(apperrors.CodeNotFound, "no ownership transfer is pending")
		}
		if caller != pending {
			return apperrors.New(apperrors.CodeUnauthorized, "caller is not the pending owner")
		}
		return s.writeOwnership(ctx, tx, pending, "")
	})
}

// RenounceOwnership clears the owner.
func (s *Store) RenounceOwnership(ctx context.Context, caller string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		owner, _, err := readOwnership(ctx, tx)
		if err != nil {
			return err
		}
		if owner == "" || caller != owner {
			return apperrors.New(apperrors.CodeUnauthorized, "caller is not the owner")
		}
		return s.writeOwnership(ctx, tx, "", "")
	})
}

func readOwnership(ctx context.Context, q queryRower) (string, string, error) {
	var owner, pending string
	err := q.QueryRowContext(ctx, `SELECT owner, pending FROM ownership WHERE id = 1`).Scan(&owner, &pending)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("read ownership: %w", err)
	}
	return owner, pending, nil
}

func (s *Store) writeOwnership(ctx context.Context, tx *sql.Tx, owner, pending string) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO ownership (id, owner, pending, updated_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner = excluded.owner,
    pending = excluded.pending,
    updated_at = excluded.updated_at`,
		owner, pending, toMillis(s.now()),
	); err != nil {
		return fmt.Errorf("write ownership: %w", err)
	}
	return nil
}
