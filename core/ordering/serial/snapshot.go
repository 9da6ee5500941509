package serial

import (
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/store/kv"
	"golang.org/x/xerrors"
)

// bucketSnapshot is a snapshot backed by a bucket of a database transaction.
// Writes are visible to the reads of the same transaction and are committed
// alongside it.
//
// - implements store.Snapshot
type bucketSnapshot struct {
	bucket kv.Bucket
}

func newSnapshot(bucket kv.Bucket) store.Snapshot {
	return bucketSnapshot{bucket: bucket}
}

// Get implements store.Readable. The value is copied as it is only valid
// during the transaction.
func (s bucketSnapshot) Get(key []byte) ([]byte, error) {
	value := s.bucket.Get(key)
	if value == nil {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

// Set implements store.Writable.
func (s bucketSnapshot) Set(key, value []byte) error {
	err := s.bucket.Set(key, value)
	if err != nil {
		return xerrors.Errorf("failed to set key: %v", err)
	}

	return nil
}

// Delete implements store.Writable.
func (s bucketSnapshot) Delete(key []byte) error {
	err := s.bucket.Delete(key)
	if err != nil {
		return xerrors.Errorf("failed to delete key: %v", err)
	}

	return nil
}

// emptyReadable is the readable of a ledger that has never been written.
//
// - implements store.Readable
type emptyReadable struct{}

// Get implements store.Readable. It never finds a value.
func (emptyReadable) Get([]byte) ([]byte, error) {
	return nil, nil
}
