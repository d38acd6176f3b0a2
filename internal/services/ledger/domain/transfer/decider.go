package transfer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
)

const (
	CommandTypePropose     command.Type = "transfer.propose"
	CommandTypeApprove     command.Type = "transfer.approve"
	CommandTypeViewPending command.Type = "transfer.view_pending"

	EventTypeProposed  event.Type = "transfer.proposed"
	EventTypeApproved  event.Type = "transfer.approved"
	EventTypeFinalized event.Type = "transfer.finalized"

	// EntityType addresses workflow events by transfer id.
	EntityType = "transfer"
)

// Decide returns the decision for a transfer command. balances is consulted
// when an approval reaches the threshold.
func Decide(state State, balances ledger.State, cmd command.Command, rules ledger.Rules, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypePropose:
		var payload ProposePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		from := strings.TrimSpace(payload.From)
		to := strings.TrimSpace(payload.To)
		if from == "" || to == "" {
			field := "from"
			if from != "" {
				field = "to"
			}
			return command.Reject(command.Rejection{
				Code:     string(apperrors.CodeInvalidAccount),
				Message:  field + " is required",
				Metadata: map[string]string{"Field": field},
			})
		}
		value, rejection, ok := ledger.ParseAmount(payload.Amount)
		if !ok {
			return command.Reject(rejection)
		}
		if payload.RequiredApprovals == 0 {
			return command.Reject(command.Rejection{
				Code:    string(apperrors.CodeInvalidThreshold),
				Message: "required approvals must be at least one",
			})
		}
		if state.Counter == math.MaxUint64 {
			return command.Reject(command.Rejection{
				Code:    string(apperrors.CodeTransferIDExhausted),
				Message: "transfer id space is exhausted",
			})
		}
		id := state.Counter
		return command.Accept(newEvent(cmd, now, EventTypeProposed, id, ProposedPayload{
			ID:                id,
			From:              from,
			To:                to,
			Amount:            value.String(),
			RequiredApprovals: payload.RequiredApprovals,
			Proposer:          cmd.Caller,
		}))

	case CommandTypeApprove:
		var payload ApprovePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		pending, ok := state.Get(payload.ID)
		if !ok {
			return command.Reject(notFound(payload.ID))
		}
		if state.HasApproved(payload.ID, cmd.Caller) {
			return command.Reject(command.Rejection{
				Code:     string(apperrors.CodeAlreadyApproved),
				Message:  "approver already approved this transfer",
				Metadata: transferMetadata(payload.ID),
			})
		}
		if pending.Executed {
			return command.Reject(command.Rejection{
				Code:     string(apperrors.CodeAlreadyExecuted),
				Message:  "transfer already executed",
				Metadata: transferMetadata(payload.ID),
			})
		}

		approvals := pending.Approvals + 1
		events := []event.Event{newEvent(cmd, now, EventTypeApproved, pending.ID, ApprovedPayload{
			ID:                pending.ID,
			Approver:          cmd.Caller,
			CurrentApprovals:  approvals,
			RequiredApprovals: pending.RequiredApprovals,
		})}
		if approvals >= pending.RequiredApprovals {
			if rejection, ok := ledger.CheckMove(balances, pending.From, pending.To, pending.Amount, rules.StrictBalances); !ok {
				return command.Reject(rejection)
			}
			events = append(events, newEvent(cmd, now, EventTypeFinalized, pending.ID, FinalizedPayload{
				ID:     pending.ID,
				From:   pending.From,
				To:     pending.To,
				Amount: amount.Format(pending.Amount),
			}))
		}
		return command.Accept(events...)

	case CommandTypeViewPending:
		var payload ViewPendingPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		if _, ok := state.Get(payload.ID); !ok {
			return command.Reject(notFound(payload.ID))
		}
		return command.Accept(ledger.SensitiveDataAccessed(cmd, ledger.DataTypePending, now))
	}
	return command.Reject(command.Rejection{
		Code:    string(apperrors.CodeUnknown),
		Message: "unsupported transfer command: " + string(cmd.Type),
	})
}

func notFound(id uint64) command.Rejection {
	return command.Rejection{
		Code:     string(apperrors.CodeNotFound),
		Message:  "pending transfer not found",
		Metadata: transferMetadata(id),
	}
}

func transferMetadata(id uint64) map[string]string {
	return map[string]string{"TransferID": strconv.FormatUint(id, 10)}
}

func newEvent(cmd command.Command, now func() time.Time, evtType event.Type, id uint64, payload any) event.Event {
	payloadJSON, _ := json.Marshal(payload)
	return event.Event{
		Type:        evtType,
		Timestamp:   now().UTC(),
		ActorID:     cmd.Caller,
		EntityType:  EntityType,
		EntityID:    strconv.FormatUint(id, 10),
		RequestID:   cmd.RequestID,
		PayloadJSON: payloadJSON,
	}
}
