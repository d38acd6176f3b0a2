// Package sqlite persists the ledger journal, state snapshots, role
// membership and ownership in a single SQLite database.
//
// Events are appended in one transaction per batch; the hash chain is
// computed inside the transaction from the stored head so a crash never
// leaves a half-written batch.
package sqlite
