// Package access defines the identity of a signer of the ledger.
package access

import "encoding"

// Identity is an abstraction to uniquely identify a signer. The binary form is
// the address of the account that the identity controls.
type Identity interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	// Equal returns true when both identities are the same.
	Equal(other interface{}) bool
}
