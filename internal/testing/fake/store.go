package fake

import "go.dedis.ch/ticket/core/store"

// InMemorySnapshot is a snapshot backed by a map. Like the database, it keeps
// copies of the values so that a caller reusing a buffer cannot alter the
// stored entries.
//
// - implements store.Snapshot
type InMemorySnapshot struct {
	store.Snapshot

	entries map[string][]byte

	// ErrRead, ErrWrite and ErrDelete are returned by the matching operation
	// when set.
	ErrRead   error
	ErrWrite  error
	ErrDelete error
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *InMemorySnapshot {
	return &InMemorySnapshot{entries: map[string][]byte{}}
}

// NewBadSnapshot returns an empty snapshot failing every operation.
func NewBadSnapshot() *InMemorySnapshot {
	snap := NewSnapshot()
	snap.ErrRead = fakeErr
	snap.ErrWrite = fakeErr
	snap.ErrDelete = fakeErr

	return snap
}

// Get implements store.Snapshot. It returns nil for a missing key.
func (snap *InMemorySnapshot) Get(key []byte) ([]byte, error) {
	if snap.ErrRead != nil {
		return nil, snap.ErrRead
	}

	value, found := snap.entries[string(key)]
	if !found {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

// Set implements store.Snapshot.
func (snap *InMemorySnapshot) Set(key, value []byte) error {
	if snap.ErrWrite != nil {
		return snap.ErrWrite
	}

	snap.entries[string(key)] = append([]byte{}, value...)

	return nil
}

// Delete implements store.Snapshot.
func (snap *InMemorySnapshot) Delete(key []byte) error {
	if snap.ErrDelete == nil {
		delete(snap.entries, string(key))
	}

	return snap.ErrDelete
}

// Len returns the number of entries.
func (snap *InMemorySnapshot) Len() int {
	return len(snap.entries)
}
