// Package checkpoint stores aggregate snapshots taken at a journal sequence so
// startup replays only the journal tail.
package checkpoint

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/aggregate"
)

// ErrNotFound indicates no snapshot has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot captures aggregate state after the event at Seq.
type Snapshot struct {
	Seq       uint64
	Hash      string
	State     aggregate.State
	UpdatedAt time.Time
}

// Store loads and saves snapshots.
type Store interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}

// Memory keeps the latest snapshot in memory.
type Memory struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

// NewMemory creates an empty snapshot store.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadSnapshot returns a copy of the latest snapshot.
func (m *Memory) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return Snapshot{}, ErrNotFound
	}
	snapshot := *m.snapshot
	snapshot.State = snapshot.State.Clone()
	return snapshot, nil
}

// SaveSnapshot replaces the stored snapshot unless it is older.
func (m *Memory) SaveSnapshot(ctx context.Context, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot != nil && m.snapshot.Seq > snapshot.Seq {
		return nil
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}
	snapshot.State = snapshot.State.Clone()
	m.snapshot = &snapshot
	return nil
}
