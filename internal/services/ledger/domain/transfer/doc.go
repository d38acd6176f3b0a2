// Package transfer implements the multi-signature approval workflow for
// pending transfers.
//
// A pending transfer moves from proposed to executed exactly once. The
// approval that reaches the threshold emits the finalize event in the same
// decision, and Fold applies the approval, the executed flag, the debit and
// the credit together. Records are never deleted.
package transfer
