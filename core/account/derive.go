package account

import (
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/ed25519"
	"golang.org/x/xerrors"
)

// derivationMarker is appended to every candidate so that a derived address
// cannot collide with another use of the same hash.
const derivationMarker = "ticket.DerivedAddress"

// ErrNoBump is returned when no bump produces an address outside of the curve.
var ErrNoBump = xerrors.New("unable to find a valid bump")

// Derive returns the address derived from the tag, the owner and the seed,
// together with the bump that completes the derivation. The bump is searched
// from 255 down to 0 and the first address that is not a point of the curve
// is used, which guarantees that nobody holds a private key for it.
func Derive(tag, owner, seed []byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateAddress(tag, owner, seed, uint8(bump))
		if err == nil {
			return addr, uint8(bump), nil
		}
	}

	return Address{}, 0, ErrNoBump
}

// CreateAddress computes the address for the given bump. It fails if the
// result is a valid point of the curve.
func CreateAddress(tag, owner, seed []byte, bump uint8) (Address, error) {
	digest := crypto.Digest(crypto.NewHashFactory(crypto.Sha256),
		tag, owner, seed, []byte{bump}, []byte(derivationMarker))

	addr, err := NewAddress(digest)
	if err != nil {
		return Address{}, err
	}

	if ed25519.IsOnCurve(addr[:]) {
		return Address{}, xerrors.Errorf("bump %d leads to an address on the curve", bump)
	}

	return addr, nil
}

// VerifyDerivation returns nil if the address is derived from the inputs and
// the bump, otherwise an error.
func VerifyDerivation(addr Address, tag, owner, seed []byte, bump uint8) error {
	expected, err := CreateAddress(tag, owner, seed, bump)
	if err != nil {
		return xerrors.Errorf("invalid bump: %v", err)
	}

	if expected != addr {
		return xerrors.Errorf("address %v does not match the derivation", addr)
	}

	return nil
}
