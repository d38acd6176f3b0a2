// Package event defines the canonical event envelope and event-type registry
// used by the ledger write path.
//
// Events are immutable facts emitted by accepted decisions. The registry
// enforces addressing and payload validity before the journal assigns
// sequence numbers and chain hashes. Audit-only events are journaled but never
// folded into state.
package event
