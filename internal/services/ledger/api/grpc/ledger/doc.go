// Package ledger exposes the ledger engine as the gRPC service
// rbacledger.v1.LedgerService.
//
// There are no .proto files or generated stubs. LedgerServer in
// service_desc.go is the API contract and ServiceDesc is its method table:
// each entry binds a method name to its request and response structs. Adding
// an RPC means a LedgerServer method, a ServiceDesc entry, a Service handler
// and a Client call.
//
// Messages are plain Go structs carried by the JSON codec registered in
// platform/grpc/codec. Amounts travel as base-10 strings so values beyond
// 64 bits survive every JSON decoder.
package ledger
