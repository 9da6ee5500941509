// Package execution defines how the ledger runs a transaction against its
// state.
package execution

import (
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/txn"
)

// Step is what an execution knows about the transaction it runs.
type Step struct {
	Current txn.Transaction
}

// Result tells whether a transaction is accepted. A rejected transaction still
// consumes its place in the order of admission but leaves no trace in the
// state.
type Result struct {
	Accepted bool

	// Message is the human readable reason of a rejection.
	Message string

	// Err is the reason of a rejection, to be matched with xerrors.Is. It is
	// nil for an accepted transaction.
	Err error
}

// Service runs transactions.
type Service interface {
	// Execute applies the transaction to the snapshot. A transaction refused by
	// the contract yields a rejected result. The error is reserved to the
	// transactions that cannot be run at all.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
