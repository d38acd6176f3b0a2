package ledger

import (
	"encoding/json"
	"math/big"
	"strings"
	"time"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

const (
	CommandTypeMint            command.Type = "ledger.mint"
	CommandTypeBurn            command.Type = "ledger.burn"
	CommandTypePause           command.Type = "ledger.pause"
	CommandTypeUnpause         command.Type = "ledger.unpause"
	CommandTypeEmergencyPause  command.Type = "ledger.emergency_pause"
	CommandTypeViewStats       command.Type = "ledger.view_stats"
	CommandTypeExecuteTransfer command.Type = "ledger.execute_transfer"
	CommandTypeBatchMint       command.Type = "ledger.batch_mint"
	CommandTypeBatchBurn       command.Type = "ledger.batch_burn"

	EventTypeMinted                event.Type = "ledger.minted"
	EventTypeBurned                event.Type = "ledger.burned"
	EventTypePaused                event.Type = "ledger.paused"
	EventTypeUnpaused              event.Type = "ledger.unpaused"
	EventTypeTransferExecuted      event.Type = "ledger.transfer_executed"
	EventTypeBatchOperation        event.Type = "ledger.batch_operation"
	EventTypeSensitiveDataAccessed event.Type = "ledger.sensitive_data_accessed"

	// EntityTypeAccount addresses balance events by account.
	EntityTypeAccount = "account"
	// EntityTypeLedger addresses ledger-wide events.
	EntityTypeLedger = "ledger"
	// LedgerEntityID is the entity id of ledger-wide events.
	LedgerEntityID = "ledger"

	// DataTypeStats marks a sensitive stats read.
	DataTypeStats = "stats"
	// DataTypePending marks a sensitive pending-transfer read.
	DataTypePending = "pending"

	batchOperationMint = "batch_mint"
	batchOperationBurn = "batch_burn"
)

// Rules tunes ledger decisions.
type Rules struct {
	// StrictBalances rejects debits that would leave a negative balance.
	StrictBalances bool
}

// Decide returns the decision for a ledger command against current state.
func Decide(state State, cmd command.Command, rules Rules, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeMint:
		var payload MintPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		to, value, rejection, ok := account(payload.To, payload.Amount)
		if !ok {
			return command.Reject(rejection)
		}
		sim := NewSimulation(state)
		if rejection, ok := sim.Credit(to, value); !ok {
			return command.Reject(rejection)
		}
		return command.Accept(newEvent(cmd, now, EventTypeMinted, EntityTypeAccount, to, MintedPayload{
			To: to, Amount: value.String(), Caller: cmd.Caller,
		}))

	case CommandTypeBurn:
		var payload BurnPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		from, value, rejection, ok := account(payload.From, payload.Amount)
		if !ok {
			return command.Reject(rejection)
		}
		sim := NewSimulation(state)
		if rejection, ok := sim.Debit(from, value, rules.StrictBalances); !ok {
			return command.Reject(rejection)
		}
		return command.Accept(newEvent(cmd, now, EventTypeBurned, EntityTypeAccount, from, BurnedPayload{
			From: from, Amount: value.String(), Caller: cmd.Caller,
		}))

	case CommandTypePause, CommandTypeEmergencyPause:
		return command.Accept(newEvent(cmd, now, EventTypePaused, EntityTypeLedger, LedgerEntityID, PausedPayload{Caller: cmd.Caller}))

	case CommandTypeUnpause:
		return command.Accept(newEvent(cmd, now, EventTypeUnpaused, EntityTypeLedger, LedgerEntityID, UnpausedPayload{Caller: cmd.Caller}))

	case CommandTypeViewStats:
		return command.Accept(SensitiveDataAccessed(cmd, DataTypeStats, now))

	case CommandTypeExecuteTransfer:
		var payload TransferPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		from, value, rejection, ok := account(payload.From, payload.Amount)
		if !ok {
			return command.Reject(rejection)
		}
		to := strings.TrimSpace(payload.To)
		if to == "" {
			return command.Reject(invalidAccount("to"))
		}
		if rejection, ok := CheckMove(state, from, to, value, rules.StrictBalances); !ok {
			return command.Reject(rejection)
		}
		return command.Accept(newEvent(cmd, now, EventTypeTransferExecuted, EntityTypeAccount, from, TransferExecutedPayload{
			From: from, To: to, Amount: value.String(), Caller: cmd.Caller,
		}))

	case CommandTypeBatchMint, CommandTypeBatchBurn:
		return decideBatch(state, cmd, rules, now)
	}
	return command.Reject(command.Rejection{
		Code:    string(apperrors.CodeUnknown),
		Message: "unsupported ledger command: " + string(cmd.Type),
	})
}

// decideBatch validates every element before producing events so a batch
// applies in full or not at all.
func decideBatch(state State, cmd command.Command, rules Rules, now func() time.Time) command.Decision {
	var payload BatchPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	if len(payload.Accounts) != len(payload.Amounts) {
		return command.Reject(command.Rejection{
			Code:    string(apperrors.CodeLengthMismatch),
			Message: "accounts and amounts differ in length",
			Metadata: map[string]string{
				"Accounts": itoa(len(payload.Accounts)),
				"Amounts":  itoa(len(payload.Amounts)),
			},
		})
	}

	mint := cmd.Type == CommandTypeBatchMint
	sim := NewSimulation(state)
	events := make([]event.Event, 0, len(payload.Accounts)+1)
	for i := range payload.Accounts {
		acct, value, rejection, ok := account(payload.Accounts[i], payload.Amounts[i])
		if !ok {
			return command.Reject(withIndex(rejection, i))
		}
		if mint {
			if rejection, ok := sim.Credit(acct, value); !ok {
				return command.Reject(withIndex(rejection, i))
			}
			events = append(events, newEvent(cmd, now, EventTypeMinted, EntityTypeAccount, acct, MintedPayload{
				To: acct, Amount: value.String(), Caller: cmd.Caller,
			}))
			continue
		}
		if rejection, ok := sim.Debit(acct, value, rules.StrictBalances); !ok {
			return command.Reject(withIndex(rejection, i))
		}
		events = append(events, newEvent(cmd, now, EventTypeBurned, EntityTypeAccount, acct, BurnedPayload{
			From: acct, Amount: value.String(), Caller: cmd.Caller,
		}))
	}

	operation := batchOperationBurn
	if mint {
		operation = batchOperationMint
	}
	events = append(events, newEvent(cmd, now, EventTypeBatchOperation, EntityTypeLedger, LedgerEntityID, BatchOperationPayload{
		Operation: operation,
		Count:     uint32(len(payload.Accounts)),
		Caller:    cmd.Caller,
	}))
	return command.Accept(events...)
}

// SensitiveDataAccessed builds the audit event recorded for a privileged read.
func SensitiveDataAccessed(cmd command.Command, dataType string, now func() time.Time) event.Event {
	if now == nil {
		now = time.Now
	}
	return newEvent(cmd, now, EventTypeSensitiveDataAccessed, EntityTypeLedger, LedgerEntityID, SensitiveDataAccessedPayload{
		DataType: dataType,
		Viewer:   cmd.Caller,
	})
}

// ParseAmount parses a non-negative command amount.
func ParseAmount(value string) (*big.Int, command.Rejection, bool) {
	n, err := amount.Parse(value)
	if err != nil {
		return nil, command.Rejection{
			Code:    string(apperrors.CodeInvalidAmount),
			Message: "amount must be a base-10 integer",
		}, false
	}
	if n.Sign() < 0 {
		return nil, command.Rejection{
			Code:    string(apperrors.CodeInvalidAmount),
			Message: "amount must not be negative",
		}, false
	}
	return n, command.Rejection{}, true
}

// CheckMove reports whether moving value from one account to another stays
// within range, and in strict mode whether from can cover it.
func CheckMove(state State, from, to string, value *big.Int, strict bool) (command.Rejection, bool) {
	sim := NewSimulation(state)
	if rejection, ok := sim.Debit(from, value, strict); !ok {
		return rejection, false
	}
	return sim.Credit(to, value)
}

func account(raw, rawAmount string) (string, *big.Int, command.Rejection, bool) {
	acct := strings.TrimSpace(raw)
	if acct == "" {
		return "", nil, invalidAccount("account"), false
	}
	value, rejection, ok := ParseAmount(rawAmount)
	if !ok {
		return "", nil, rejection, false
	}
	return acct, value, command.Rejection{}, true
}

func invalidAccount(field string) command.Rejection {
	return command.Rejection{
		Code:     string(apperrors.CodeInvalidAccount),
		Message:  field + " is required",
		Metadata: map[string]string{"Field": field},
	}
}

func withIndex(rejection command.Rejection, index int) command.Rejection {
	metadata := make(map[string]string, len(rejection.Metadata)+1)
	for k, v := range rejection.Metadata {
		metadata[k] = v
	}
	metadata["Index"] = itoa(index)
	rejection.Metadata = metadata
	return rejection
}

func newEvent(cmd command.Command, now func() time.Time, evtType event.Type, entityType, entityID string, payload any) event.Event {
	payloadJSON, _ := json.Marshal(payload)
	return event.Event{
		Type:        evtType,
		Timestamp:   now().UTC(),
		ActorID:     cmd.Caller,
		EntityType:  entityType,
		EntityID:    entityID,
		RequestID:   cmd.RequestID,
		PayloadJSON: payloadJSON,
	}
}
