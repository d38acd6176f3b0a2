// Package ledger owns balances, total supply and the pause flag.
//
// Deciders validate ledger commands against State and emit events; Fold is
// the only path that mutates State. Credit and Debit move total supply with
// the balance so the sum of balances always equals TotalSupply. Debit does not
// refuse a negative result; callers that want a floor check BalanceOf first.
package ledger
