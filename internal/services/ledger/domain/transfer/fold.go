package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
)

// Fold applies a workflow event. Finalized moves the balance on the returned
// ledger state. Both states are written through; fold onto clones.
func Fold(state State, balances ledger.State, evt event.Event) (State, ledger.State, error) {
	state.ensure()
	switch evt.Type {
	case EventTypeProposed:
		var payload ProposedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, balances, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		value, err := amount.Parse(payload.Amount)
		if err != nil {
			return state, balances, fmt.Errorf("transfer %d amount %q: %w", payload.ID, payload.Amount, err)
		}
		state.Pending[payload.ID] = Pending{
			ID:                payload.ID,
			From:              payload.From,
			To:                payload.To,
			Amount:            value,
			RequiredApprovals: payload.RequiredApprovals,
			Proposer:          payload.Proposer,
		}
		if payload.ID >= state.Counter {
			state.Counter = payload.ID + 1
		}
	case EventTypeApproved:
		var payload ApprovedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, balances, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		pending, ok := state.Pending[payload.ID]
		if !ok {
			break
		}
		markers := state.Approvals[payload.ID]
		if markers == nil {
			markers = make(map[string]bool)
			state.Approvals[payload.ID] = markers
		}
		markers[payload.Approver] = true
		pending.Approvals = payload.CurrentApprovals
		state.Pending[payload.ID] = pending
	case EventTypeFinalized:
		var payload FinalizedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, balances, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		pending, ok := state.Pending[payload.ID]
		if !ok || pending.Executed {
			break
		}
		pending.Executed = true
		state.Pending[payload.ID] = pending
		balances.Debit(pending.From, pending.Amount)
		balances.Credit(pending.To, pending.Amount)
	}
	return state, balances, nil
}
