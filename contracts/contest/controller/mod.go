// Package controller implements the CLI initializer of the contest contract.
// It registers the contract on the execution service of the daemon and
// provides the commands to create, join, close and show contests.
package controller

import (
	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/cli"
	"go.dedis.ch/ticket/cli/node"
	"go.dedis.ch/ticket/contracts/contest"
	"go.dedis.ch/ticket/core/execution/native"
	"golang.org/x/xerrors"
)

const (
	keyFlag         = "key"
	nameFlag        = "name"
	descriptionFlag = "description"
	priceFlag       = "price"
	capacityFlag    = "capacity"
	seedFlag        = "seed"
	addressFlag     = "address"
)

// miniController is a CLI initializer to register the contest contract.
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new controller for the contest contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It defines the contest commands.
func (miniController) SetCommands(builder node.Builder) {
	signerFlag := cli.StringFlag{
		Name:     keyFlag,
		Usage:    "path to the private key of the signer, read by the daemon",
		Required: true,
	}

	addrFlag := cli.StringFlag{
		Name:     addressFlag,
		Usage:    "hexadecimal address of the contest",
		Required: true,
	}

	cmd := builder.SetCommand("contest")
	cmd.SetDescription("Manage the ticket contests")

	sub := cmd.SetSubCommand("create")
	sub.SetDescription("Create a contest owned by the signer and print its address")
	sub.SetFlags(
		signerFlag,
		cli.StringFlag{
			Name:     nameFlag,
			Usage:    "name of the contest",
			Required: true,
		},
		cli.StringFlag{
			Name:  descriptionFlag,
			Usage: "description of the contest",
		},
		cli.Uint64Flag{
			Name:     priceFlag,
			Usage:    "price of a ticket in units",
			Required: true,
		},
		cli.IntFlag{
			Name:     capacityFlag,
			Usage:    "number of tickets of the contest",
			Required: true,
		},
		cli.StringFlag{
			Name:  seedFlag,
			Usage: "seed of the address, distinguishes the contests of an owner",
		},
	)
	sub.SetAction(builder.MakeAction(createAction{}))

	sub = cmd.SetSubCommand("register")
	sub.SetDescription("Buy a ticket of a contest")
	sub.SetFlags(signerFlag, addrFlag)
	sub.SetAction(builder.MakeAction(registerAction{}))

	sub = cmd.SetSubCommand("close")
	sub.SetDescription("Delete a resolved contest and refund its reserve to the owner")
	sub.SetFlags(signerFlag, addrFlag)
	sub.SetAction(builder.MakeAction(closeAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("Print a contest")
	sub.SetFlags(addrFlag)
	sub.SetAction(builder.MakeAction(showAction{}))
}

// OnStart implements node.Initializer. It registers the contest contract.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var exec *native.Service
	err := inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve native service: %v", err)
	}

	contest.RegisterContract(exec, contest.NewContract())

	ticket.Logger.Info().
		Strs("contracts", exec.Contracts()).
		Msg("contest contract registered")

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(node.Injector) error {
	return nil
}
