// Package store defines how a contract reads and writes the ledger state.
//
// The balances and the account records are plain key/value pairs. A contract
// only sees a snapshot: the writes become visible to the other transactions
// once the ledger commits the snapshot, and they are dropped if the contract
// fails.
package store

// Readable gives access to the values of the state.
type Readable interface {
	// Get returns a copy of the value, or nil when the key is missing.
	Get(key []byte) ([]byte, error)
}

// Writable modifies the values of the state.
type Writable interface {
	// Set creates or overwrites the value of the key.
	Set(key []byte, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key []byte) error
}

// Snapshot is a view of the state, during the execution of a transaction,
// that reflects its own writes.
type Snapshot interface {
	Readable
	Writable
}

// Transaction is the unit of atomicity of a storage.
type Transaction interface {
	// OnCommit registers a function to run once every write of the
	// transaction is durable. It never runs when the transaction is rolled
	// back.
	OnCommit(func())
}
