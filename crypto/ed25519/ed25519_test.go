package ed25519

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/ticket/internal/testing/fake"
)

func TestIsOnCurve(t *testing.T) {
	data, err := NewSigner().GetPublicKey().MarshalBinary()
	require.NoError(t, err)

	require.True(t, IsOnCurve(data))
	require.False(t, IsOnCurve(nil))
	require.False(t, IsOnCurve([]byte{1, 2, 3}))
}

func TestPublicKey_New(t *testing.T) {
	signer := NewSigner()

	data, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 32)

	pk, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, pk.Equal(signer.GetPublicKey()))

	_, err = NewPublicKey(nil)
	require.EqualError(t, err, "couldn't unmarshal point: invalid Ed25519 curve point")
}

func TestPublicKey_MarshalText(t *testing.T) {
	pk := NewSigner().GetPublicKey().(PublicKey)

	data, err := pk.MarshalBinary()
	require.NoError(t, err)

	text, err := pk.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "ed25519:"+hex.EncodeToString(data), string(text))

	pk.point = badPoint{}
	_, err = pk.MarshalText()
	require.EqualError(t, err, fake.Err("couldn't marshal"))
}

func TestPublicKey_String(t *testing.T) {
	pk := NewSigner().GetPublicKey().(PublicKey)
	require.Regexp(t, "^ed25519:[a-f0-9]{16}$", pk.String())

	pk.point = badPoint{}
	require.Equal(t, "ed25519:malformed", pk.String())
}

func TestPublicKey_Verify(t *testing.T) {
	signer := NewSigner()
	msg := []byte("ticket 1/2")

	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	pk := signer.GetPublicKey()
	require.NoError(t, pk.Verify(msg, sig))

	err = pk.Verify([]byte("ticket 2/2"), sig)
	require.Regexp(t, "^schnorr verify failed: ", err)

	err = NewSigner().GetPublicKey().Verify(msg, sig)
	require.Regexp(t, "^schnorr verify failed: ", err)

	err = pk.Verify(msg, fake.Signature{})
	require.EqualError(t, err, "invalid signature type 'fake.Signature'")
}

func TestPublicKey_Equal(t *testing.T) {
	signer := NewSigner()

	require.True(t, signer.GetPublicKey().Equal(signer.GetPublicKey()))
	require.False(t, signer.GetPublicKey().Equal(NewSigner().GetPublicKey()))
	require.False(t, signer.GetPublicKey().Equal(fake.PublicKey{}))
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte("hello"))

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	require.True(t, sig.Equal(NewSignature([]byte("hello"))))
	require.False(t, sig.Equal(NewSignature([]byte("world"))))
	require.False(t, sig.Equal(fake.Signature{}))
}

func TestSigner_MarshalAndRestore(t *testing.T) {
	signer := NewSigner()

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, signer.GetPublicKey().Equal(restored.GetPublicKey()))

	// Both produce signatures valid for the same account.
	sig, err := restored.Sign([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, signer.GetPublicKey().Verify([]byte("hello"), sig))

	_, err = NewSignerFromBytes([]byte{1})
	require.Error(t, err)
	require.Regexp(t, "^while unmarshaling scalar: ", err.Error())
}

// -----------------------------------------------------------------------------
// Utility functions

type badPoint struct {
	kyber.Point
}

func (p badPoint) MarshalBinary() ([]byte, error) {
	return nil, fake.GetError()
}
