package command

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ticket/cli/node"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/ed25519"
	"go.dedis.ch/ticket/crypto/loader"
	"go.dedis.ch/ticket/internal/testing/fake"
)

func TestNewSignerAction(t *testing.T) {
	out := new(bytes.Buffer)

	action := action{
		printer:   out,
		genSigner: badGenSigner,
		saveFile:  fakeSaveFile,
		getPubKey: getPubkey,
	}

	set := node.FlagSet{}
	err := action.newSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to marshal signer"))

	action.genSigner = loader.SignerGenerator{}.Generate
	err = action.newSignerAction(set)
	require.NoError(t, err)
	require.Len(t, out.String(), 64+1)

	out.Reset()
	set["save"] = "/tmp/key"
	err = action.newSignerAction(set)
	require.NoError(t, err)
	require.Len(t, out.String(), 2*account.AddressSize+1)

	action.saveFile = badSaveFile

	err = action.newSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to save files"))

	action.saveFile = fakeSaveFile
	action.getPubKey = badGetPubKey

	err = action.newSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to get PUBKEY"))
}

func TestLoadSignerAction(t *testing.T) {
	action := action{
		printer:  io.Discard,
		readFile: badReadFile,
	}

	set := node.FlagSet{}
	err := action.loadSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to read data"))

	action.readFile = fakeReadFile
	err = action.loadSignerAction(set)
	require.EqualError(t, err, "unknown format ''")

	set["format"] = Pubkey
	action.getPubKey = badGetPubKey
	err = action.loadSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to get PUBKEY"))

	action.getPubKey = wrongGetPubKey
	err = action.loadSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to marshal pubkey"))

	set["format"] = Address
	action.getPubKey = badGetPubKey
	err = action.loadSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to get PUBKEY"))

	action.getPubKey = wrongGetPubKey
	err = action.loadSignerAction(set)
	require.EqualError(t, err, fake.Err("failed to get address: failed to marshal identity"))

	set["format"] = Hex
	action.getPubKey = badGetPubKey
	err = action.loadSignerAction(set)
	require.NoError(t, err)
}

func TestLoadSignerAction_Formats(t *testing.T) {
	signer := ed25519.NewSigner()

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	addr, err := account.AddressOf(signer.GetPublicKey())
	require.NoError(t, err)

	text, err := signer.GetPublicKey().MarshalText()
	require.NoError(t, err)

	out := new(bytes.Buffer)
	action := action{
		printer:   out,
		getPubKey: getPubkey,
		readFile: func(string) ([]byte, error) {
			return data, nil
		},
	}

	expected := map[string]string{
		Address: addr.String(),
		Pubkey:  string(text),
		Hex:     hex.EncodeToString(data),
	}

	for format, value := range expected {
		out.Reset()

		err = action.loadSignerAction(node.FlagSet{"format": format})
		require.NoError(t, err)
		require.Equal(t, value+"\n", out.String())
	}
}

func TestSaveToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test")

	err := saveToFile(file, false, []byte{1})
	require.NoError(t, err)

	res, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, res)

	err = saveToFile(file, false, nil)
	require.Regexp(t, "^file '.*' already exist, use --force if you want to overwrite$", err)

	err = saveToFile("/not/exist", true, nil)
	require.Regexp(t, "^failed to write file:", err)

	err = saveToFile(file, true, []byte{2})
	require.NoError(t, err)

	res, err = os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, []byte{2}, res)
}

func TestGetPubkey(t *testing.T) {
	buf, err := ed25519.NewSigner().MarshalBinary()
	require.NoError(t, err)

	_, err = getPubkey(buf)
	require.NoError(t, err)

	_, err = getPubkey(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to unmarshal signer: while unmarshaling scalar: ")
}

// -----------------------------------------------------------------------------
// Utility functions

func badGenSigner() ([]byte, error) {
	return nil, fake.GetError()
}

func badReadFile(path string) ([]byte, error) {
	return nil, fake.GetError()
}

func badSaveFile(path string, force bool, data []byte) error {
	return fake.GetError()
}

func fakeReadFile(path string) ([]byte, error) {
	return nil, nil
}

func fakeSaveFile(path string, force bool, data []byte) error {
	return nil
}

func badGetPubKey([]byte) (crypto.PublicKey, error) {
	return nil, fake.GetError()
}

func wrongGetPubKey([]byte) (crypto.PublicKey, error) {
	return fake.NewBadPublicKey(), nil
}
