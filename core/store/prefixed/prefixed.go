// Package prefixed isolates the keys of the ledger state in namespaces.
//
// A key of a namespace is stored under the digest of the namespace and the
// key, so that two namespaces never read or overwrite the keys of each other,
// whatever the keys the contracts choose.
package prefixed

import (
	"encoding/binary"

	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/crypto"
)

// Namespace is the name of a set of keys, like the balances of the accounts.
type Namespace string

// Key returns the 32 bytes under which the key of the namespace is stored.
// The lengths are part of the digest so that ("ab", "c") and ("a", "bc")
// differ.
func (ns Namespace) Key(key []byte) []byte {
	name := []byte(ns)

	return crypto.Digest(crypto.NewHashFactory(crypto.Sha256),
		binary.LittleEndian.AppendUint16(nil, uint16(len(name))), name,
		binary.LittleEndian.AppendUint16(nil, uint16(len(key))), key)
}

// Readable returns a view of the namespace.
func (ns Namespace) Readable(r store.Readable) store.Readable {
	return readable{ns: ns, r: r}
}

// Snapshot returns a view of the namespace that writes to the snapshot.
func (ns Namespace) Snapshot(snap store.Snapshot) store.Snapshot {
	return snapshot{readable: readable{ns: ns, r: snap}, w: snap}
}

// - implements store.Readable
type readable struct {
	ns Namespace
	r  store.Readable
}

func (r readable) Get(key []byte) ([]byte, error) {
	return r.r.Get(r.ns.Key(key))
}

// - implements store.Snapshot
type snapshot struct {
	readable
	w store.Writable
}

func (s snapshot) Set(key []byte, value []byte) error {
	return s.w.Set(s.ns.Key(key), value)
}

func (s snapshot) Delete(key []byte) error {
	return s.w.Delete(s.ns.Key(key))
}
