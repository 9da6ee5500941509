// Package kv defines the database underneath the ledger, and implements it
// with bbolt (https://github.com/etcd-io/bbolt).
//
// The ledger applies each transaction inside one DB.Update: the balances, the
// account records and the nonce of the signer are committed together, or the
// update is rolled back and nothing changes.
package kv

import "go.dedis.ch/ticket/core/store"

// Bucket is a namespace of keys inside a database transaction. The values it
// returns are only valid until the end of the transaction.
type Bucket interface {
	// Get returns the value of the key, or nil when the key is missing.
	Get(key []byte) []byte

	// Set creates or overwrites the value of the key.
	Set(key, value []byte) error

	// Delete removes the key.
	Delete(key []byte) error
}

// ReadableTx is a read-only transaction. It sees the state of the last
// committed update.
type ReadableTx interface {
	// GetBucket returns nil when the bucket was never created.
	GetBucket(name []byte) Bucket
}

// WritableTx is a read-write transaction. Only one can be open at a time.
type WritableTx interface {
	store.Transaction

	ReadableTx

	// GetBucketOrCreate returns the bucket, creating it on first use.
	GetBucketOrCreate(name []byte) (Bucket, error)
}

// DB is a key/value database with serializable transactions.
type DB interface {
	// View runs the callback in a read-only transaction.
	View(fn func(ReadableTx) error) error

	// Update runs the callback in a writable transaction. Every write is
	// discarded when the callback returns an error, which is then returned.
	Update(fn func(WritableTx) error) error

	// Close releases the database file. The other calls fail afterwards.
	Close() error
}
