package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/guard"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
)

// RegisterCommands registers ledger commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: CommandTypeMint, Policy: rolePolicy(role.Minter, true), ValidatePayload: decodeAs[MintPayload]},
		{Type: CommandTypeBurn, Policy: rolePolicy(role.Burner, true), ValidatePayload: decodeAs[BurnPayload]},
		{Type: CommandTypePause, Policy: rolePolicy(role.Pauser, false)},
		{Type: CommandTypeUnpause, Policy: rolePolicy(role.Pauser, false)},
		{Type: CommandTypeEmergencyPause, Policy: guard.Policy{Authorization: guard.AuthorizeOwner}},
		{Type: CommandTypeViewStats, Policy: rolePolicy(role.Viewer, false)},
		{Type: CommandTypeExecuteTransfer, Policy: rolePolicy(role.Transfer, true), ValidatePayload: decodeAs[TransferPayload]},
		{Type: CommandTypeBatchMint, Policy: rolePolicy(role.Operator, true), ValidatePayload: decodeAs[BatchPayload]},
		{Type: CommandTypeBatchBurn, Policy: rolePolicy(role.Operator, true), ValidatePayload: decodeAs[BatchPayload]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers ledger events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeMinted, ValidatePayload: validateMinted},
		{Type: EventTypeBurned, ValidatePayload: validateBurned},
		{Type: EventTypePaused, ValidatePayload: decodeAs[PausedPayload]},
		{Type: EventTypeUnpaused, ValidatePayload: decodeAs[UnpausedPayload]},
		{Type: EventTypeTransferExecuted, ValidatePayload: validateTransferExecuted},
		{Type: EventTypeBatchOperation, Intent: event.IntentAuditOnly, ValidatePayload: decodeAs[BatchOperationPayload]},
		{Type: EventTypeSensitiveDataAccessed, Intent: event.IntentAuditOnly, ValidatePayload: decodeAs[SensitiveDataAccessedPayload]},
	}
	for _, def := range definitions {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func rolePolicy(r role.Name, checkPause bool) guard.Policy {
	return guard.Policy{Authorization: guard.AuthorizeRole, Role: r, CheckPause: checkPause}
}

func decodeAs[T any](raw json.RawMessage) error {
	var payload T
	return json.Unmarshal(raw, &payload)
}

func validateMinted(raw json.RawMessage) error {
	var payload MintedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return requireAccountAmount(payload.To, payload.Amount)
}

func validateBurned(raw json.RawMessage) error {
	var payload BurnedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return requireAccountAmount(payload.From, payload.Amount)
}

func validateTransferExecuted(raw json.RawMessage) error {
	var payload TransferExecutedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.To == "" {
		return errors.New("to is required")
	}
	return requireAccountAmount(payload.From, payload.Amount)
}

func requireAccountAmount(account, value string) error {
	if account == "" {
		return errors.New("account is required")
	}
	if _, err := amount.Parse(value); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	return nil
}
