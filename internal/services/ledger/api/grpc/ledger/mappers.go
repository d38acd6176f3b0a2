package ledger

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/engine"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

func commandResponse(result engine.Result) *CommandResponse {
	resp := &CommandResponse{
		Events: eventsToWire(result.Events),
		Reply:  result.Reply,
	}
	if result.Stats != nil {
		resp.Stats = &Stats{
			TotalSupply:  amount.Format(result.Stats.TotalSupply),
			PendingCount: result.Stats.PendingCount,
			Paused:       result.Stats.Paused,
		}
	}
	if p := result.Pending; p != nil {
		resp.Pending = &PendingTransfer{
			ID:                p.ID,
			From:              p.From,
			To:                p.To,
			Amount:            amount.Format(p.Amount),
			Approvals:         p.Approvals,
			RequiredApprovals: p.RequiredApprovals,
			Executed:          p.Executed,
		}
	}
	return resp
}

func eventsToWire(events []event.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		payload := json.RawMessage(evt.PayloadJSON)
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		out = append(out, Event{
			Seq:        evt.Seq,
			Hash:       evt.Hash,
			PrevHash:   evt.PrevHash,
			Type:       string(evt.Type),
			Timestamp:  evt.Timestamp.UTC().Format(time.RFC3339Nano),
			ActorID:    evt.ActorID,
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			RequestID:  evt.RequestID,
			Payload:    payload,
		})
	}
	return out
}
