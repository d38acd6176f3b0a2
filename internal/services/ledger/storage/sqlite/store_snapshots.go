package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/aggregate"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/checkpoint"
)

// LoadSnapshot returns the latest snapshot or checkpoint.ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context) (checkpoint.Snapshot, error) {
	if err := s.ready(); err != nil {
		return checkpoint.Snapshot{}, err
	}
	var (
		seq       int64
		hash      string
		stateJSON []byte
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT seq, hash, state_json, updated_at FROM snapshots WHERE id = 1`,
	).Scan(&seq, &hash, &stateJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return checkpoint.Snapshot{}, checkpoint.ErrNotFound
	}
	if err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	state := aggregate.NewState()
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return checkpoint.Snapshot{}, fmt.Errorf("decode snapshot state: %w", err)
	}
	return checkpoint.Snapshot{
		Seq:       uint64(seq),
		Hash:      hash,
		State:     state,
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

// SaveSnapshot stores snapshot unless a newer one is already saved.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot checkpoint.Snapshot) error {
	if err := s.ready(); err != nil {
		return err
	}
	stateJSON, err := json.Marshal(snapshot.State)
	if err != nil {
		return fmt.Errorf("encode snapshot state: %w", err)
	}
	updatedAt := snapshot.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO snapshots (id, seq, hash, state_json, updated_at)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    seq = excluded.seq,
    hash = excluded.hash,
    state_json = excluded.state_json,
    updated_at = excluded.updated_at
WHERE excluded.seq >= snapshots.seq`,
		int64(snapshot.Seq), snapshot.Hash, stateJSON, toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
