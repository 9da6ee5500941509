package command

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"go.dedis.ch/ticket/cli"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/ed25519"
	"golang.org/x/xerrors"
)

// Output formats of a signer.
const (
	Address = "ADDRESS"
	Pubkey  = "PUBKEY"
	Hex     = "HEX"
)

// action defines the different cli actions of the signer commands. Defining
// functions and printer helps in testing the commands.
type action struct {
	printer io.Writer

	genSigner func() ([]byte, error)
	getPubKey func([]byte) (crypto.PublicKey, error)

	readFile func(filename string) ([]byte, error)
	saveFile func(path string, force bool, data []byte) error
}

func (a action) newSignerAction(flags cli.Flags) error {
	data, err := a.genSigner()
	if err != nil {
		return xerrors.Errorf("failed to marshal signer: %v", err)
	}

	switch flags.String("save") {
	case "":
		fmt.Fprintln(a.printer, hex.EncodeToString(data))
	default:
		err := a.saveFile(flags.String("save"), flags.Bool("force"), data)
		if err != nil {
			return xerrors.Errorf("failed to save files: %v", err)
		}

		out, err := a.format(data, Address)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.printer, out)
	}

	return nil
}

func (a action) loadSignerAction(flags cli.Flags) error {
	data, err := a.readFile(flags.Path("path"))
	if err != nil {
		return xerrors.Errorf("failed to read data: %v", err)
	}

	out, err := a.format(data, flags.String("format"))
	if err != nil {
		return err
	}

	fmt.Fprintln(a.printer, out)

	return nil
}

func (a action) format(data []byte, format string) (string, error) {
	switch format {
	case Address:
		pubkey, err := a.getPubKey(data)
		if err != nil {
			return "", xerrors.Errorf("failed to get PUBKEY: %v", err)
		}

		addr, err := account.AddressOf(pubkey)
		if err != nil {
			return "", xerrors.Errorf("failed to get address: %v", err)
		}

		return addr.String(), nil
	case Pubkey:
		pubkey, err := a.getPubKey(data)
		if err != nil {
			return "", xerrors.Errorf("failed to get PUBKEY: %v", err)
		}

		out, err := pubkey.MarshalText()
		if err != nil {
			return "", xerrors.Errorf("failed to marshal pubkey: %v", err)
		}

		return string(out), nil
	case Hex:
		return hex.EncodeToString(data), nil
	default:
		return "", xerrors.Errorf("unknown format '%s'", format)
	}
}

func saveToFile(path string, force bool, data []byte) error {
	if !force && fileExist(path) {
		return xerrors.Errorf("file '%s' already exist, use --force if you "+
			"want to overwrite", path)
	}

	err := os.WriteFile(path, data, 0600)
	if err != nil {
		return xerrors.Errorf("failed to write file: %v", err)
	}

	return nil
}

func fileExist(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func getPubkey(data []byte) (crypto.PublicKey, error) {
	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	return signer.GetPublicKey(), nil
}
