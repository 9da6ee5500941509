// Package txn defines the input of the ledger.
//
// A transaction names the contract to run and its arguments. It is created and
// paid by an identity, and it carries the nonce of that identity so that the
// ledger applies each transaction at most once and in the order the identity
// issued them.
package txn

import "go.dedis.ch/ticket/core/access"

// Transaction is a request to execute a contract on behalf of an identity.
type Transaction interface {
	// GetID returns the digest of the transaction.
	GetID() []byte

	// GetNonce returns the sequence number of the transaction for its
	// identity. The ledger accepts only the next expected one.
	GetNonce() uint64

	// GetIdentity returns the identity paying for the transaction.
	GetIdentity() access.Identity

	// GetArg returns the value of the argument, or nil when missing.
	GetArg(key string) []byte
}

// Arg is a named argument of a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// NewArg returns an argument holding the text value.
func NewArg(key, value string) Arg {
	return Arg{Key: key, Value: []byte(value)}
}

// Manager creates the transactions of a single identity.
type Manager interface {
	// Make returns a transaction with the arguments and the next nonce.
	Make(args ...Arg) (Transaction, error)

	// Sync fetches the nonce expected by the ledger. It must be called before
	// the first transaction, and after a transaction is refused.
	Sync() error
}
