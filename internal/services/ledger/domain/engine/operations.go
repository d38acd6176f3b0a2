package engine

import (
	"context"
	"encoding/json"
	"math/big"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/access"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/transfer"
)

// Stats is the privileged ledger summary returned to viewers.
type Stats struct {
	TotalSupply *big.Int
	// PendingCount is the number of transfers ever proposed.
	PendingCount uint64
	Paused       bool
}

// Mint credits to by value.
func (h *Handler) Mint(ctx context.Context, caller, to string, value *big.Int) (Result, error) {
	return h.run(ctx, ledger.CommandTypeMint, caller, ledger.MintPayload{To: to, Amount: formatAmount(value)})
}

// Burn debits from by value.
func (h *Handler) Burn(ctx context.Context, caller, from string, value *big.Int) (Result, error) {
	return h.run(ctx, ledger.CommandTypeBurn, caller, ledger.BurnPayload{From: from, Amount: formatAmount(value)})
}

// Pause sets the pause flag.
func (h *Handler) Pause(ctx context.Context, caller string) (Result, error) {
	return h.run(ctx, ledger.CommandTypePause, caller, nil)
}

// Unpause clears the pause flag.
func (h *Handler) Unpause(ctx context.Context, caller string) (Result, error) {
	return h.run(ctx, ledger.CommandTypeUnpause, caller, nil)
}

// EmergencyPause lets the owner force the pause flag on.
func (h *Handler) EmergencyPause(ctx context.Context, caller string) (Result, error) {
	return h.run(ctx, ledger.CommandTypeEmergencyPause, caller, nil)
}

// ViewSensitiveStats returns supply, proposal count and pause flag, and
// records the read in the journal.
func (h *Handler) ViewSensitiveStats(ctx context.Context, caller string) (Result, error) {
	return h.run(ctx, ledger.CommandTypeViewStats, caller, nil)
}

// ExecuteTransfer moves value between accounts without changing supply.
func (h *Handler) ExecuteTransfer(ctx context.Context, caller, from, to string, value *big.Int) (Result, error) {
	return h.run(ctx, ledger.CommandTypeExecuteTransfer, caller, ledger.TransferPayload{
		From: from, To: to, Amount: formatAmount(value),
	})
}

// BatchMint mints amounts[i] to accounts[i] for every i.
func (h *Handler) BatchMint(ctx context.Context, caller string, accounts []string, amounts []*big.Int) (Result, error) {
	return h.run(ctx, ledger.CommandTypeBatchMint, caller, batchPayload(accounts, amounts))
}

// BatchBurn burns amounts[i] from accounts[i] for every i.
func (h *Handler) BatchBurn(ctx context.Context, caller string, accounts []string, amounts []*big.Int) (Result, error) {
	return h.run(ctx, ledger.CommandTypeBatchBurn, caller, batchPayload(accounts, amounts))
}

// ProposeTransfer records a pending transfer and returns its identifier in
// Result.TransferID.
func (h *Handler) ProposeTransfer(ctx context.Context, caller, from, to string, value *big.Int, requiredApprovals uint32) (Result, error) {
	return h.run(ctx, transfer.CommandTypePropose, caller, transfer.ProposePayload{
		From:              from,
		To:                to,
		Amount:            formatAmount(value),
		RequiredApprovals: requiredApprovals,
	})
}

// ApproveTransfer records caller's approval and finalizes the transfer when
// the threshold is reached.
func (h *Handler) ApproveTransfer(ctx context.Context, caller string, id uint64) (Result, error) {
	return h.run(ctx, transfer.CommandTypeApprove, caller, transfer.ApprovePayload{ID: id})
}

// ViewPendingTransfer returns the pending transfer with id in Result.Pending.
func (h *Handler) ViewPendingTransfer(ctx context.Context, caller string, id uint64) (Result, error) {
	return h.run(ctx, transfer.CommandTypeViewPending, caller, transfer.ViewPendingPayload{ID: id})
}

// OwnerPing returns access.OwnerOK when caller is the owner.
func (h *Handler) OwnerPing(ctx context.Context, caller string) (Result, error) {
	return h.run(ctx, access.CommandTypeOwnerPing, caller, nil)
}

// AdminPing returns access.AdminOK when caller is the registry admin.
func (h *Handler) AdminPing(ctx context.Context, caller string) (Result, error) {
	return h.run(ctx, access.CommandTypeAdminPing, caller, nil)
}

// BalanceOf returns account's balance; unknown accounts hold zero.
func (h *Handler) BalanceOf(account string) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Ledger.BalanceOf(account)
}

// TotalSupply returns the total supply.
func (h *Handler) TotalSupply() *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Ledger.Supply()
}

// IsPaused reports the pause flag.
func (h *Handler) IsPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Ledger.Paused
}

// Head returns the sequence and hash of the last committed event.
func (h *Handler) Head() (uint64, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastSeq, h.lastHash
}

// ListRoleMembers enumerates the holders of r in insertion order.
func (h *Handler) ListRoleMembers(ctx context.Context, r role.Name) ([]string, error) {
	name, ok := role.Parse(string(r))
	if !ok {
		return nil, invalidRole(r)
	}
	return role.Members(ctx, h.roles, name)
}

func (h *Handler) statsLocked() Stats {
	return Stats{
		TotalSupply:  h.state.Ledger.Supply(),
		PendingCount: h.state.Transfers.Counter,
		Paused:       h.state.Ledger.Paused,
	}
}

func (h *Handler) run(ctx context.Context, cmdType command.Type, caller string, payload any) (Result, error) {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return Result{}, err
		}
	}
	return h.Execute(ctx, command.Command{Type: cmdType, Caller: caller, PayloadJSON: raw})
}

// formatAmount renders nil as an empty string so the decider rejects it.
func formatAmount(value *big.Int) string {
	if value == nil {
		return ""
	}
	return amount.Format(value)
}

func batchPayload(accounts []string, amounts []*big.Int) ledger.BatchPayload {
	payload := ledger.BatchPayload{
		Accounts: append([]string{}, accounts...),
		Amounts:  make([]string, len(amounts)),
	}
	for i, value := range amounts {
		payload.Amounts[i] = formatAmount(value)
	}
	return payload
}

func invalidRole(r role.Name) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidRole, "role is not recognized", map[string]string{"Role": string(r)})
}
