// Package ed25519 implements the keys of the ledger accounts with Schnorr
// signatures on the Edwards 25519 curve (kyber).
//
// The public key of an account is also its address. A derived address is a
// digest that is not a point of the curve, so that no key can sign for it:
// IsOnCurve tells them apart.
package ed25519

import (
	"bytes"
	"encoding/hex"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/suites"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/ticket/crypto"
	"golang.org/x/xerrors"
)

const textPrefix = "ed25519:"

var suite = suites.MustFind("Ed25519")

// IsOnCurve returns true when the data is the encoding of a point of the
// curve.
func IsOnCurve(data []byte) bool {
	return suite.Point().UnmarshalBinary(data) == nil
}

// PublicKey is the key of an account.
//
// - implements crypto.PublicKey
type PublicKey struct {
	point kyber.Point
}

// NewPublicKey decodes the 32 bytes of a public key.
func NewPublicKey(data []byte) (PublicKey, error) {
	point := suite.Point()

	err := point.UnmarshalBinary(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("couldn't unmarshal point: %v", err)
	}

	return PublicKey{point: point}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.point.MarshalBinary()
}

// MarshalText implements encoding.TextMarshaler. The text is the hexadecimal
// key behind the "ed25519:" prefix.
func (pk PublicKey) MarshalText() ([]byte, error) {
	data, err := pk.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return []byte(textPrefix + hex.EncodeToString(data)), nil
}

// String implements fmt.Stringer. It shortens the text to 8 bytes of the key
// for the logs.
func (pk PublicKey) String() string {
	text, err := pk.MarshalText()
	if err != nil {
		return textPrefix + "malformed"
	}

	return string(text[:len(textPrefix)+16])
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify(msg []byte, sig crypto.Signature) error {
	signature, ok := sig.(Signature)
	if !ok {
		return xerrors.Errorf("invalid signature type '%T'", sig)
	}

	err := schnorr.Verify(suite, pk.point, msg, signature.data)
	if err != nil {
		return xerrors.Errorf("schnorr verify failed: %v", err)
	}

	return nil
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	o, ok := other.(PublicKey)

	return ok && o.point.Equal(pk.point)
}

// Signature is a Schnorr signature.
//
// - implements crypto.Signature
type Signature struct {
	data []byte
}

// NewSignature wraps the bytes of a signature.
func NewSignature(data []byte) Signature {
	return Signature{data: data}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return sig.data, nil
}

// Equal implements crypto.Signature.
func (sig Signature) Equal(other crypto.Signature) bool {
	o, ok := other.(Signature)

	return ok && bytes.Equal(sig.data, o.data)
}

// Signer holds the private key of an account.
//
// - implements crypto.Signer
type Signer struct {
	pair *key.Pair
}

// NewSigner returns the signer of a new random account.
func NewSigner() crypto.Signer {
	return Signer{pair: key.NewKeyPair(suite)}
}

// NewSignerFromBytes restores a signer from its private scalar, as written in
// the key files.
func NewSignerFromBytes(data []byte) (crypto.Signer, error) {
	scalar := suite.Scalar()

	err := scalar.UnmarshalBinary(data)
	if err != nil {
		return nil, xerrors.Errorf("while unmarshaling scalar: %v", err)
	}

	pair := &key.Pair{
		Private: scalar,
		Public:  suite.Point().Mul(scalar, nil),
	}

	return Signer{pair: pair}, nil
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{point: s.pair.Public}
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the private
// scalar.
func (s Signer) MarshalBinary() ([]byte, error) {
	return s.pair.Private.MarshalBinary()
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	sig, err := schnorr.Sign(suite, s.pair.Private, msg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't make schnorr signature: %v", err)
	}

	return Signature{data: sig}, nil
}
