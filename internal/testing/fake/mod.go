// Package fake provides fake implementations of the interfaces of the module
// so that the tests can trigger every error path.
package fake

import (
	"go.dedis.ch/ticket/crypto"
	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// Call is a tool to keep track of a function calls.
type Call struct {
	calls [][]interface{}
}

// Get returns the nth call ith parameter.
func (c *Call) Get(n, i int) interface{} {
	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	c.calls = append(c.calls, args)
}

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected error message of a fake error wrapped with the
// given message.
func Err(msg string) string {
	return msg + ": " + fakeErr.Error()
}

// PublicKey is a fake implementation of a public key.
//
// - implements crypto.PublicKey
type PublicKey struct {
	Data      []byte
	Err       error
	VerifyErr error
}

// NewPublicKey returns a public key with the given binary representation.
func NewPublicKey(data []byte) PublicKey {
	return PublicKey{Data: data}
}

// NewBadPublicKey returns a public key that fails to marshal and to verify.
func NewBadPublicKey() PublicKey {
	return PublicKey{Err: fakeErr, VerifyErr: fakeErr}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	if pk.Data == nil {
		return []byte("PK"), pk.Err
	}

	return pk.Data, pk.Err
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte("fake.PublicKey"), pk.Err
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	return pk.VerifyErr
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	o, ok := other.(PublicKey)
	if !ok {
		return false
	}

	return string(o.Data) == string(pk.Data)
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return "fake.PublicKey"
}

// Signature is a fake implementation of a signature.
//
// - implements crypto.Signature
type Signature struct {
	Err error
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return []byte("SIG"), s.Err
}

// Equal implements crypto.Signature.
func (s Signature) Equal(o crypto.Signature) bool {
	_, ok := o.(Signature)
	return ok
}

// Signer is a fake implementation of a signer.
//
// - implements crypto.Signer
type Signer struct {
	PublicKey PublicKey
	Err       error
}

// NewBadSigner returns a signer that fails to sign.
func NewBadSigner() Signer {
	return Signer{Err: fakeErr}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signer) MarshalBinary() ([]byte, error) {
	return []byte("SIGNER"), s.Err
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.PublicKey
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	return Signature{}, s.Err
}
