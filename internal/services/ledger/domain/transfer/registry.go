package transfer

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/guard"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
)

// RegisterCommands registers workflow commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypePropose,
		Policy:          guard.Policy{Authorization: guard.AuthorizeRole, Role: role.Transfer, CheckPause: true},
		ValidatePayload: validateProposePayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeApprove,
		Policy:          guard.Policy{Authorization: guard.AuthorizeRole, Role: role.Approver, CheckPause: true},
		ValidatePayload: validateIDPayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeViewPending,
		Policy:          guard.Policy{Authorization: guard.AuthorizeRole, Role: role.Viewer},
		ValidatePayload: validateIDPayload,
	})
}

// RegisterEvents registers workflow events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeProposed,
		ValidatePayload: validateProposedPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeApproved,
		ValidatePayload: validateApprovedPayload,
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:            EventTypeFinalized,
		ValidatePayload: validateFinalizedPayload,
	})
}

func validateProposePayload(raw json.RawMessage) error {
	var payload ProposePayload
	return json.Unmarshal(raw, &payload)
}

func validateIDPayload(raw json.RawMessage) error {
	var payload ApprovePayload
	return json.Unmarshal(raw, &payload)
}

func validateProposedPayload(raw json.RawMessage) error {
	var payload ProposedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.From == "" || payload.To == "" {
		return errors.New("from and to are required")
	}
	if payload.RequiredApprovals == 0 {
		return errors.New("required approvals must be positive")
	}
	_, err := amount.Parse(payload.Amount)
	return err
}

func validateApprovedPayload(raw json.RawMessage) error {
	var payload ApprovedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.Approver == "" {
		return errors.New("approver is required")
	}
	return nil
}

func validateFinalizedPayload(raw json.RawMessage) error {
	var payload FinalizedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	_, err := amount.Parse(payload.Amount)
	return err
}
