// Package grpc groups the ledger's gRPC transport: request metadata, server
// interceptors and the LedgerService handlers.
package grpc
