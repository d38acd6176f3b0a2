// Package core holds small deterministic helpers shared by the ledger domain:
// canonical JSON encoding, integer amount handling and event filter parsing.
package core
