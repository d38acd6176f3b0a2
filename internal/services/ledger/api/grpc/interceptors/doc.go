// Package interceptors provides the ledger's unary server interceptors for
// bearer-token authentication and access logging.
package interceptors
