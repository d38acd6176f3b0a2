// Package telemetry groups operational observability for the ledger.
//
// The ledger journal is the canonical record of business facts and is stored
// separately. Operational metrics (telemetry/metrics) capture request counts,
// latency and command outcomes for monitoring and alerting.
package telemetry
