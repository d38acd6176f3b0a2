package ledger

// MintPayload captures the payload for ledger.mint commands.
type MintPayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BurnPayload captures the payload for ledger.burn commands.
type BurnPayload struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

// TransferPayload captures the payload for ledger.execute_transfer commands.
type TransferPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// BatchPayload captures the payload for ledger.batch_mint and ledger.batch_burn.
type BatchPayload struct {
	Accounts []string `json:"accounts"`
	Amounts  []string `json:"amounts"`
}

// MintedPayload captures the payload for ledger.minted events.
type MintedPayload struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Caller string `json:"caller"`
}

// BurnedPayload captures the payload for ledger.burned events.
type BurnedPayload struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
	Caller string `json:"caller"`
}

// PausedPayload captures the payload for ledger.paused events.
type PausedPayload struct {
	Caller string `json:"caller"`
}

// UnpausedPayload captures the payload for ledger.unpaused events.
type UnpausedPayload struct {
	Caller string `json:"caller"`
}

// TransferExecutedPayload captures the payload for ledger.transfer_executed events.
type TransferExecutedPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Caller string `json:"caller"`
}

// BatchOperationPayload captures the payload for ledger.batch_operation events.
type BatchOperationPayload struct {
	Operation string `json:"operation"`
	Count     uint32 `json:"count"`
	Caller    string `json:"caller"`
}

// SensitiveDataAccessedPayload captures the payload for
// ledger.sensitive_data_accessed events.
type SensitiveDataAccessedPayload struct {
	DataType string `json:"data_type"`
	Viewer   string `json:"viewer"`
}
