package transfer

// ProposePayload captures the payload for transfer.propose commands.
type ProposePayload struct {
	From              string `json:"from"`
	To                string `json:"to"`
	Amount            string `json:"amount"`
	RequiredApprovals uint32 `json:"required_approvals"`
}

// ApprovePayload captures the payload for transfer.approve commands.
type ApprovePayload struct {
	ID uint64 `json:"id"`
}

// ViewPendingPayload captures the payload for transfer.view_pending commands.
type ViewPendingPayload struct {
	ID uint64 `json:"id"`
}

// ProposedPayload captures the payload for transfer.proposed events.
type ProposedPayload struct {
	ID                uint64 `json:"id"`
	From              string `json:"from"`
	To                string `json:"to"`
	Amount            string `json:"amount"`
	RequiredApprovals uint32 `json:"required_approvals"`
	Proposer          string `json:"proposer"`
}

// ApprovedPayload captures the payload for transfer.approved events.
type ApprovedPayload struct {
	ID                uint64 `json:"id"`
	Approver          string `json:"approver"`
	CurrentApprovals  uint32 `json:"current_approvals"`
	RequiredApprovals uint32 `json:"required_approvals"`
}

// FinalizedPayload captures the payload for transfer.finalized events.
type FinalizedPayload struct {
	ID     uint64 `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}
