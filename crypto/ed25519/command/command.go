// Package command defines cli commands for the ed25519 package.
package command

import (
	"os"

	"go.dedis.ch/ticket/cli"
	"go.dedis.ch/ticket/crypto/loader"
)

// Initializer implements the Ed25519 initializer for the crypto CLI.
//
// - implements cli.Initializer
type Initializer struct{}

// SetCommands implements cli.Initializer.
func (i Initializer) SetCommands(provider cli.Provider) {
	action := action{
		printer: os.Stdout,

		genSigner: loader.SignerGenerator{}.Generate,
		getPubKey: getPubkey,
		readFile:  os.ReadFile,
		saveFile:  saveToFile,
	}

	cmd := provider.SetCommand("crypto")
	signer := cmd.SetSubCommand("signer")

	new := signer.SetSubCommand("new")
	new.SetDescription("create a new signer and print its account address")
	new.SetFlags(cli.StringFlag{
		Name:     "save",
		Usage:    "if provided, save the signer to that file",
		Required: false,
	}, cli.BoolFlag{
		Name:     "force",
		Usage:    "in the case it saves the signer, will overwrite if needed",
		Required: false,
	})
	new.SetAction(action.newSignerAction)

	read := signer.SetSubCommand("read")
	read.SetDescription("read a signer")
	read.SetFlags(cli.StringFlag{
		Name:     "path",
		Usage:    "path to the signer's file",
		Required: true,
	}, cli.StringFlag{
		Name:     "format",
		Usage:    "output format: [ADDRESS | PUBKEY | HEX]",
		Value:    Address,
		Required: false,
	})
	read.SetAction(action.loadSignerAction)
}
