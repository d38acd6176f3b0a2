package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

// Fold applies an event to ledger state.
//
// Fold writes through the maps held by state; callers fold onto a Clone when
// the previous state must survive. A payload that does not decode is an
// error, never a zero-valued transition.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeMinted:
		var payload MintedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		value, err := foldAmount(evt.Type, payload.Amount)
		if err != nil {
			return state, err
		}
		state.Credit(payload.To, value)
	case EventTypeBurned:
		var payload BurnedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		value, err := foldAmount(evt.Type, payload.Amount)
		if err != nil {
			return state, err
		}
		state.Debit(payload.From, value)
	case EventTypeTransferExecuted:
		var payload TransferExecutedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		value, err := foldAmount(evt.Type, payload.Amount)
		if err != nil {
			return state, err
		}
		state.Debit(payload.From, value)
		state.Credit(payload.To, value)
	case EventTypePaused:
		state.SetPaused(true)
	case EventTypeUnpaused:
		state.SetPaused(false)
	}
	return state, nil
}

func foldAmount(evtType event.Type, value string) (*big.Int, error) {
	parsed, err := amount.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%s amount %q: %w", evtType, value, err)
	}
	return parsed, nil
}
