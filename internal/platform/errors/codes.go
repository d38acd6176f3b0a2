// Package errors provides structured ledger error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Guard errors
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeContractPaused  Code = "CONTRACT_PAUSED"

	// Input shape errors
	CodeLengthMismatch   Code = "LENGTH_MISMATCH"
	CodeInvalidThreshold Code = "INVALID_THRESHOLD"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeInvalidAccount   Code = "INVALID_ACCOUNT"
	CodeInvalidRole      Code = "INVALID_ROLE"

	// Ledger errors
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeAmountOverflow      Code = "AMOUNT_OVERFLOW"

	// Approval workflow errors
	CodeAlreadyApproved Code = "ALREADY_APPROVED"
	CodeAlreadyExecuted Code = "ALREADY_EXECUTED"

	// CodeTransferIDExhausted is returned once every transfer id was issued.
	CodeTransferIDExhausted Code = "TRANSFER_ID_EXHAUSTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeLengthMismatch,
		CodeInvalidThreshold,
		CodeInvalidAmount,
		CodeInvalidAccount,
		CodeInvalidRole:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeContractPaused,
		CodeInsufficientBalance,
		CodeAlreadyExecuted:
		return codes.FailedPrecondition

	case CodeAmountOverflow:
		return codes.OutOfRange

	case CodeTransferIDExhausted:
		return codes.ResourceExhausted

	case CodeUnauthorized:
		return codes.PermissionDenied

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeNotFound:
		return codes.NotFound

	case CodeAlreadyApproved:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
