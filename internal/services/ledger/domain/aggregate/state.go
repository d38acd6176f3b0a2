// Package aggregate combines ledger and workflow state and folds journal
// events into it.
package aggregate

import (
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/transfer"
)

// State captures the full engine state.
type State struct {
	Ledger    ledger.State   `json:"ledger"`
	Transfers transfer.State `json:"transfers"`
}

// NewState returns the bootstrap state: unpaused, zero supply, counter 0.
func NewState() State {
	return State{Ledger: ledger.NewState(), Transfers: transfer.NewState()}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{Ledger: s.Ledger.Clone(), Transfers: s.Transfers.Clone()}
}
