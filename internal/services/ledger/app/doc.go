// Package app wires storage, the ledger engine and the gRPC transport into a
// runnable server.
package app
