// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to decide the order in which the
// transactions are applied to the ledger.
//
// The order is the only thing that decides the outcome of a contest: the buyer
// of the last ticket is the participant whose transaction is admitted last.
package ordering

import (
	"context"

	"go.dedis.ch/ticket/core/execution"
	"go.dedis.ch/ticket/core/txn"
)

// Event is the event emitted once a transaction has been processed.
type Event struct {
	// Index is the position of the transaction among the accepted ones,
	// starting at one. It is zero for a rejected transaction.
	Index uint64

	// TransactionID is the identifier of the processed transaction.
	TransactionID []byte

	// Result is the result of the execution.
	Result execution.Result
}

// Service is the interface of an ordering service. It provides the primitives
// to admit transactions one after the other.
type Service interface {
	// Apply admits the transaction and executes it. The whole effect of the
	// transaction is committed when the result is accepted, and discarded
	// otherwise. An error is returned when the transaction is not admitted.
	Apply(ctx context.Context, tx txn.Transaction) (execution.Result, error)

	// Watch returns a channel populated with the events of the transactions
	// processed after the call. The channel is not populated anymore once
	// the context is done.
	Watch(ctx context.Context) <-chan Event
}
