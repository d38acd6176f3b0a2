package aggregate

import (
	"fmt"
	"strings"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/transfer"
)

// Folder folds events into aggregate state.
//
// Each event prefix routes to exactly one slice, so request-time folds and
// historical replay apply identical transitions.
type Folder struct {
	// Events lets the folder skip audit-only events.
	Events *event.Registry
}

// Fold applies a single event. state is written through; fold onto a Clone.
func (f Folder) Fold(state State, evt event.Event) (State, error) {
	if f.Events != nil {
		def, ok := f.Events.Definition(evt.Type)
		if !ok {
			return state, fmt.Errorf("%w: %s", event.ErrTypeUnknown, evt.Type)
		}
		if def.Intent == event.IntentAuditOnly {
			return state, nil
		}
	}
	switch {
	case strings.HasPrefix(string(evt.Type), "ledger."):
		next, err := ledger.Fold(state.Ledger, evt)
		if err != nil {
			return state, err
		}
		state.Ledger = next
	case strings.HasPrefix(string(evt.Type), "transfer."):
		transfers, balances, err := transfer.Fold(state.Transfers, state.Ledger, evt)
		if err != nil {
			return state, err
		}
		state.Transfers, state.Ledger = transfers, balances
	default:
		return state, fmt.Errorf("no fold handler for event type %s", evt.Type)
	}
	return state, nil
}

// FoldAll applies events in order onto a clone of state.
func (f Folder) FoldAll(state State, events []event.Event) (State, error) {
	next := state.Clone()
	for _, evt := range events {
		var err error
		next, err = f.Fold(next, evt)
		if err != nil {
			return state, fmt.Errorf("fold event %s: %w", evt.Type, err)
		}
	}
	return next, nil
}
