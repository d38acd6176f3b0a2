package ledger

import (
	"math/big"
	"strconv"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
)

// Simulation applies credits and debits to a scratch view of State so
// deciders can reject out-of-range results before any event is produced.
type Simulation struct {
	state    State
	balances map[string]*big.Int
	supply   *big.Int
}

// NewSimulation starts a simulation over state. state is never mutated.
func NewSimulation(state State) *Simulation {
	return &Simulation{
		state:    state,
		balances: make(map[string]*big.Int),
		supply:   state.Supply(),
	}
}

// BalanceOf returns the simulated balance of account.
func (s *Simulation) BalanceOf(account string) *big.Int {
	if balance, ok := s.balances[account]; ok {
		return new(big.Int).Set(balance)
	}
	return s.state.BalanceOf(account)
}

// Credit adds value to account and the supply.
func (s *Simulation) Credit(account string, value *big.Int) (command.Rejection, bool) {
	balance := amount.Add(s.BalanceOf(account), value)
	supply := amount.Add(s.supply, value)
	if !amount.InRange(balance) || !amount.InRange(supply) {
		return overflow(account), false
	}
	s.balances[account] = balance
	s.supply = supply
	return command.Rejection{}, true
}

// Debit subtracts value from account and the supply. With strict set, a
// result below zero is rejected with INSUFFICIENT_BALANCE.
func (s *Simulation) Debit(account string, value *big.Int, strict bool) (command.Rejection, bool) {
	balance := amount.Sub(s.BalanceOf(account), value)
	if strict && balance.Sign() < 0 {
		return command.Rejection{
			Code:     string(apperrors.CodeInsufficientBalance),
			Message:  "insufficient balance",
			Metadata: map[string]string{"Account": account},
		}, false
	}
	supply := amount.Sub(s.supply, value)
	if !amount.InRange(balance) || !amount.InRange(supply) {
		return overflow(account), false
	}
	s.balances[account] = balance
	s.supply = supply
	return command.Rejection{}, true
}

func overflow(account string) command.Rejection {
	return command.Rejection{
		Code:     string(apperrors.CodeAmountOverflow),
		Message:  "amount overflows the supported range",
		Metadata: map[string]string{"Account": account},
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
