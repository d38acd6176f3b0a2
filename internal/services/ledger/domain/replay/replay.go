// Package replay rebuilds aggregate state from the journal.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/aggregate"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/checkpoint"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrFolderRequired indicates a missing folder.
	ErrFolderRequired = errors.New("folder is required")
)

// EventStore lists journal events in sequence order.
type EventStore interface {
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// Folder folds one event into aggregate state.
type Folder interface {
	Fold(state aggregate.State, evt event.Event) (aggregate.State, error)
}

// Options configures replay behavior.
type Options struct {
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State    aggregate.State
	LastSeq  uint64
	LastHash string
	Applied  int
}

// Replay folds every event after from.Seq onto from.State, verifying sequence
// contiguity and the hash chain along the way.
func Replay(ctx context.Context, store EventStore, folder Folder, from checkpoint.Snapshot, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if folder == nil {
		return Result{}, ErrFolderRequired
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{State: from.State.Clone(), LastSeq: from.Seq, LastHash: from.Hash}
	for {
		events, err := store.ListEvents(ctx, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		if events[0].Seq != result.LastSeq+1 {
			return result, fmt.Errorf("event sequence gap: expected %d got %d", result.LastSeq+1, events[0].Seq)
		}
		if err := event.VerifyChain(events, result.LastHash); err != nil {
			return result, err
		}
		for _, evt := range events {
			next, err := folder.Fold(result.State, evt)
			if err != nil {
				return result, fmt.Errorf("fold event %d: %w", evt.Seq, err)
			}
			result.State = next
			result.LastSeq = evt.Seq
			result.LastHash = evt.Hash
			result.Applied++
		}
	}
}
