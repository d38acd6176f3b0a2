package ledger

import "encoding/json"

// Empty is the request and response of calls that carry no fields.
type Empty struct{}

// CallerRequest names the acting account. An empty caller defaults to the
// identity attested by the bearer token.
type CallerRequest struct {
	Caller string `json:"caller,omitempty"`
}

// MintRequest credits To with Amount.
type MintRequest struct {
	Caller string `json:"caller,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BurnRequest debits From by Amount.
type BurnRequest struct {
	Caller string `json:"caller,omitempty"`
	From   string `json:"from"`
	Amount string `json:"amount"`
}

// ExecuteTransferRequest moves Amount between accounts immediately.
type ExecuteTransferRequest struct {
	Caller string `json:"caller,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BatchRequest mints or burns Amounts[i] for Accounts[i].
type BatchRequest struct {
	Caller   string   `json:"caller,omitempty"`
	Accounts []string `json:"accounts"`
	Amounts  []string `json:"amounts"`
}

// ProposeTransferRequest opens a multi-approval transfer.
type ProposeTransferRequest struct {
	Caller            string `json:"caller,omitempty"`
	From              string `json:"from"`
	To                string `json:"to"`
	Amount            string `json:"amount"`
	RequiredApprovals uint32 `json:"required_approvals"`
}

// TransferRequest addresses a pending transfer by id.
type TransferRequest struct {
	Caller     string `json:"caller,omitempty"`
	TransferID uint64 `json:"transfer_id"`
}

// Event is the wire form of a journal event.
type Event struct {
	Seq        uint64          `json:"seq"`
	Hash       string          `json:"hash"`
	PrevHash   string          `json:"prev_hash,omitempty"`
	Type       string          `json:"type"`
	Timestamp  string          `json:"timestamp"`
	ActorID    string          `json:"actor_id,omitempty"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	RequestID  string          `json:"request_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Stats mirrors the sensitive ledger statistics.
type Stats struct {
	TotalSupply  string `json:"total_supply"`
	PendingCount uint64 `json:"pending_count"`
	Paused       bool   `json:"paused"`
}

// PendingTransfer mirrors one entry of the approval workflow.
type PendingTransfer struct {
	ID                uint64 `json:"id"`
	From              string `json:"from"`
	To                string `json:"to"`
	Amount            string `json:"amount"`
	Approvals         uint32 `json:"approvals"`
	RequiredApprovals uint32 `json:"required_approvals"`
	Executed          bool   `json:"executed"`
}

// CommandResponse reports the events a command committed plus any
// command-specific result.
type CommandResponse struct {
	Events     []Event          `json:"events"`
	Reply      string           `json:"reply,omitempty"`
	TransferID *uint64          `json:"transfer_id,omitempty"`
	Stats      *Stats           `json:"stats,omitempty"`
	Pending    *PendingTransfer `json:"pending,omitempty"`
}

// BalanceRequest selects an account.
type BalanceRequest struct {
	Account string `json:"account"`
}

// BalanceResponse carries an account balance.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// StatusResponse reports public ledger state.
type StatusResponse struct {
	TotalSupply string `json:"total_supply"`
	Paused      bool   `json:"paused"`
	HeadSeq     uint64 `json:"head_seq"`
	HeadHash    string `json:"head_hash,omitempty"`
}

// RoleMembersRequest selects a role.
type RoleMembersRequest struct {
	Role string `json:"role"`
}

// RoleMembersResponse lists role members in grant order.
type RoleMembersResponse struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

// RoleRequest grants, revokes or renounces a role.
type RoleRequest struct {
	Caller  string `json:"caller,omitempty"`
	Account string `json:"account,omitempty"`
	Role    string `json:"role"`
}

// TransferOwnershipRequest nominates a new owner.
type TransferOwnershipRequest struct {
	Caller   string `json:"caller,omitempty"`
	NewOwner string `json:"new_owner"`
}

// OwnerResponse reports the current and pending owner.
type OwnerResponse struct {
	Owner   string `json:"owner"`
	Pending string `json:"pending,omitempty"`
}

// ListEventsRequest pages through the journal.
//
// Filter is an AIP-160 expression over seq, type, actor_id, entity_type,
// entity_id, request_id and ts. OrderBy accepts "seq" or "seq desc".
type ListEventsRequest struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
	Filter    string `json:"filter,omitempty"`
	OrderBy   string `json:"order_by,omitempty"`
}

// GetOrderBy returns the requested ordering.
func (r *ListEventsRequest) GetOrderBy() string {
	if r == nil {
		return ""
	}
	return r.OrderBy
}

// ListEventsResponse carries one page of events.
type ListEventsResponse struct {
	Events        []Event `json:"events"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}
