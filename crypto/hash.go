package crypto

import (
	"crypto/sha256"
	"fmt"
	"hash"
)

// HashAlgorithm identifies the hash function of a factory.
type HashAlgorithm int

// Sha256 is SHA-2 with a 256-bit digest. It computes the transaction
// identifiers, the derived addresses and the namespaced store keys.
const Sha256 HashAlgorithm = iota

// String returns the name of the algorithm.
func (a HashAlgorithm) String() string {
	switch a {
	case Sha256:
		return "SHA-256"
	default:
		return fmt.Sprintf("HashAlgorithm(%d)", int(a))
	}
}

// algoFactory creates the hash of a single algorithm.
//
// - implements crypto.HashFactory
type algoFactory HashAlgorithm

// NewHashFactory returns the factory of the algorithm. The factory panics on
// New if the algorithm is unknown.
func NewHashFactory(a HashAlgorithm) HashFactory {
	return algoFactory(a)
}

// New implements crypto.HashFactory.
func (f algoFactory) New() hash.Hash {
	if HashAlgorithm(f) != Sha256 {
		panic(fmt.Sprintf("unknown hash algorithm %v", HashAlgorithm(f)))
	}

	return sha256.New()
}

// Digest hashes the concatenation of the parts.
func Digest(f HashFactory, parts ...[]byte) []byte {
	h := f.New()
	for _, part := range parts {
		// A hash.Hash never returns an error on Write.
		h.Write(part)
	}

	return h.Sum(nil)
}
