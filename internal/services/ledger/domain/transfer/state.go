package transfer

import "math/big"

// Pending is a proposed balance move awaiting approvals.
type Pending struct {
	ID                uint64   `json:"id"`
	From              string   `json:"from"`
	To                string   `json:"to"`
	Amount            *big.Int `json:"amount"`
	Approvals         uint32   `json:"approvals"`
	RequiredApprovals uint32   `json:"required_approvals"`
	Executed          bool     `json:"executed"`
	Proposer          string   `json:"proposer,omitempty"`
}

// Clone returns a copy with its own Amount.
func (p Pending) Clone() Pending {
	if p.Amount != nil {
		p.Amount = new(big.Int).Set(p.Amount)
	}
	return p
}

// State captures every pending transfer, the approval markers and the
// next identifier.
type State struct {
	Counter   uint64                     `json:"counter"`
	Pending   map[uint64]Pending         `json:"pending"`
	Approvals map[uint64]map[string]bool `json:"approvals"`
}

// NewState returns an empty workflow whose first identifier is 0.
func NewState() State {
	return State{
		Pending:   make(map[uint64]Pending),
		Approvals: make(map[uint64]map[string]bool),
	}
}

// Get returns a copy of the pending transfer with id.
func (s State) Get(id uint64) (Pending, bool) {
	p, ok := s.Pending[id]
	if !ok {
		return Pending{}, false
	}
	return p.Clone(), true
}

// HasApproved reports whether approver already approved id.
func (s State) HasApproved(id uint64, approver string) bool {
	return s.Approvals[id][approver]
}

// Clone returns a deep copy.
func (s State) Clone() State {
	clone := State{
		Counter:   s.Counter,
		Pending:   make(map[uint64]Pending, len(s.Pending)),
		Approvals: make(map[uint64]map[string]bool, len(s.Approvals)),
	}
	for id, p := range s.Pending {
		clone.Pending[id] = p.Clone()
	}
	for id, approvers := range s.Approvals {
		markers := make(map[string]bool, len(approvers))
		for approver, ok := range approvers {
			markers[approver] = ok
		}
		clone.Approvals[id] = markers
	}
	return clone
}

func (s *State) ensure() {
	if s.Pending == nil {
		s.Pending = make(map[uint64]Pending)
	}
	if s.Approvals == nil {
		s.Approvals = make(map[uint64]map[string]bool)
	}
}
