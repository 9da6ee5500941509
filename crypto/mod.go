// Package crypto defines the keys and the signatures of the ledger accounts.
package crypto

import (
	"encoding"
	"hash"
)

// HashFactory creates a new hash for each digest.
type HashFactory interface {
	New() hash.Hash
}

// PublicKey identifies an account and verifies its signatures.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	// Verify returns nil if the signature of the message was produced by the
	// private key.
	Verify(msg []byte, signature Signature) error

	// Equal returns true when the other key is the same key.
	Equal(other interface{}) bool
}

// Signature proves that an account approved a message.
type Signature interface {
	encoding.BinaryMarshaler

	Equal(other Signature) bool
}

// Signer signs on behalf of an account. Its binary form is the private key.
type Signer interface {
	encoding.BinaryMarshaler

	GetPublicKey() PublicKey

	// Sign returns the signature of the message.
	Sign(msg []byte) (Signature, error)
}
