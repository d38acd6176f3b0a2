package ledger

import (
	"math/big"
	"sort"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
)

// State captures balances, supply and the pause flag.
type State struct {
	Balances    map[string]*big.Int `json:"balances"`
	TotalSupply *big.Int            `json:"total_supply"`
	Paused      bool                `json:"paused"`
}

// NewState returns an unpaused ledger with no balances.
func NewState() State {
	return State{Balances: make(map[string]*big.Int), TotalSupply: amount.Zero()}
}

// BalanceOf returns a copy of account's balance; unknown accounts hold zero.
func (s State) BalanceOf(account string) *big.Int {
	if balance, ok := s.Balances[account]; ok && balance != nil {
		return new(big.Int).Set(balance)
	}
	return amount.Zero()
}

// Supply returns a copy of the total supply.
func (s State) Supply() *big.Int {
	if s.TotalSupply == nil {
		return amount.Zero()
	}
	return new(big.Int).Set(s.TotalSupply)
}

// Accounts lists every account ever touched, sorted.
func (s State) Accounts() []string {
	accounts := make([]string, 0, len(s.Balances))
	for account := range s.Balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// Credit increases account's balance and the total supply by value.
func (s *State) Credit(account string, value *big.Int) {
	s.ensure()
	s.Balances[account] = amount.Add(s.Balances[account], value)
	s.TotalSupply = amount.Add(s.TotalSupply, value)
}

// Debit decreases account's balance and the total supply by value.
func (s *State) Debit(account string, value *big.Int) {
	s.ensure()
	s.Balances[account] = amount.Sub(s.Balances[account], value)
	s.TotalSupply = amount.Sub(s.TotalSupply, value)
}

// SetPaused writes the pause flag.
func (s *State) SetPaused(paused bool) {
	s.Paused = paused
}

// Clone returns a deep copy.
func (s State) Clone() State {
	clone := State{
		Balances:    make(map[string]*big.Int, len(s.Balances)),
		TotalSupply: s.Supply(),
		Paused:      s.Paused,
	}
	for account, balance := range s.Balances {
		if balance == nil {
			continue
		}
		clone.Balances[account] = new(big.Int).Set(balance)
	}
	return clone
}

func (s *State) ensure() {
	if s.Balances == nil {
		s.Balances = make(map[string]*big.Int)
	}
	if s.TotalSupply == nil {
		s.TotalSupply = amount.Zero()
	}
}
