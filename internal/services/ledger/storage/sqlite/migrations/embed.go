// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations

import "embed"

// LedgerFS holds the ledger schema.
//
//go:embed ledger/*.sql
var LedgerFS embed.FS
