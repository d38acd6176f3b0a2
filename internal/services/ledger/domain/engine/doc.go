// Package engine is the operation dispatcher: the single entry point that
// validates a command, evaluates its guard policy, asks the owning decider for
// a decision, validates the emitted events, folds them onto a copy of state,
// appends them to the journal and finally publishes them.
//
// One mutex serializes every command, so the read-decide-append-fold sequence
// is indivisible and transfer identifiers are allocated exactly once. A
// rejected command never reaches the journal and leaves state untouched.
package engine
