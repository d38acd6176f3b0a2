package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeContractPaused      = "CONTRACT_PAUSED"
	CodeLengthMismatch      = "LENGTH_MISMATCH"
	CodeInvalidThreshold    = "INVALID_THRESHOLD"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidAccount      = "INVALID_ACCOUNT"
	CodeInvalidRole         = "INVALID_ROLE"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeAmountOverflow      = "AMOUNT_OVERFLOW"
	CodeAlreadyApproved     = "ALREADY_APPROVED"
	CodeAlreadyExecuted     = "ALREADY_EXECUTED"
	CodeTransferIDExhausted = "TRANSFER_ID_EXHAUSTED"
	CodeNotFound            = "NOT_FOUND"
)

var enUSMessages = map[Code]string{
	CodeUnauthorized:        "You are not allowed to perform this operation{{if .Role}}: the {{.Role}} role is required{{end}}.",
	CodeUnauthenticated:     "The caller identity could not be verified.",
	CodeContractPaused:      "The ledger is paused.",
	CodeLengthMismatch:      "Accounts and amounts must have the same length.",
	CodeInvalidThreshold:    "Required approvals must be at least one.",
	CodeInvalidAmount:       "Amount must be a non-negative integer.",
	CodeInvalidAccount:      "Account is required.",
	CodeInvalidRole:         "Role is not recognized.",
	CodeInsufficientBalance: "Account {{.Account}} has insufficient balance.",
	CodeAmountOverflow:      "Amount exceeds the supported range.",
	CodeAlreadyApproved:     "Transfer {{.TransferID}} was already approved by this approver.",
	CodeAlreadyExecuted:     "Transfer {{.TransferID}} was already executed.",
	CodeTransferIDExhausted: "No transfer ids remain for new proposals.",
	CodeNotFound:            "The requested record was not found.",
}
