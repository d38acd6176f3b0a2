// Package command defines the command envelope, the command-type registry and
// the pure Decision returned by deciders.
//
// Every command definition carries the guard policy the dispatcher evaluates
// before any decider runs, so authorization stays declarative and uniform
// across ledger and transfer operations.
package command
