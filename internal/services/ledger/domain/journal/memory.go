// Package journal provides the in-memory event journal.
package journal

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

// ErrEmptyBatch indicates an append with no events.
var ErrEmptyBatch = errors.New("at least one event is required")

// Memory is an append-only journal held in process memory. Sequence numbers
// start at 1 and every event is chained to its predecessor's hash.
type Memory struct {
	mu     sync.Mutex
	events []event.Event
}

// NewMemory creates an empty journal.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores events as one batch and returns them with seq and hashes
// assigned. Either every event is stored or none is.
func (m *Memory) Append(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrEmptyBatch
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seq, prevHash := m.headLocked()
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		seq++
		chained, err := event.Chain(evt, seq, prevHash)
		if err != nil {
			return nil, err
		}
		stored = append(stored, chained)
		prevHash = chained.Hash
	}
	m.events = append(m.events, stored...)
	return append([]event.Event(nil), stored...), nil
}

// ListEvents returns up to limit events with seq greater than afterSeq.
// A non-positive limit returns every remaining event.
func (m *Memory) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if afterSeq >= uint64(len(m.events)) {
		return nil, nil
	}
	remaining := m.events[afterSeq:]
	if limit > 0 && limit < len(remaining) {
		remaining = remaining[:limit]
	}
	return append([]event.Event(nil), remaining...), nil
}

// Head returns the last sequence number and hash, or zero values when empty.
func (m *Memory) Head(ctx context.Context) (uint64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, hash := m.headLocked()
	return seq, hash, nil
}

func (m *Memory) headLocked() (uint64, string) {
	if len(m.events) == 0 {
		return 0, ""
	}
	last := m.events[len(m.events)-1]
	return last.Seq, last.Hash
}
