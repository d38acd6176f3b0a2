// Package storage defines the persistence contracts the ledger host depends
// on beyond the engine journal: paged, filtered event listing for operators.
package storage
