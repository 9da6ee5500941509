package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/cli/node"
	"go.dedis.ch/ticket/contracts/contest"
	"go.dedis.ch/ticket/contracts/contest/types"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/core/execution/native"
	"go.dedis.ch/ticket/core/ordering/serial"
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/txn"
	"go.dedis.ch/ticket/core/txn/signed"
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/ed25519"
	"go.dedis.ch/ticket/crypto/loader"
	"golang.org/x/xerrors"
)

// createAction is an action to create a contest.
//
// - implements node.ActionTemplate
type createAction struct{}

// Execute implements node.ActionTemplate. It signs and applies a transaction
// creating the contest, then prints its address.
func (a createAction) Execute(ctx node.Context) error {
	ledger, signer, err := prepare(ctx)
	if err != nil {
		return err
	}

	owner, err := account.AddressOf(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("invalid signer: %v", err)
	}

	seed := []byte(ctx.Flags.String(seedFlag))

	err = apply(ctx.Context(), ledger, signer,
		txn.NewArg(contest.CmdArg, string(contest.CmdCreate)),
		txn.NewArg(contest.NameArg, ctx.Flags.String(nameFlag)),
		txn.NewArg(contest.DescriptionArg, ctx.Flags.String(descriptionFlag)),
		txn.NewArg(contest.TicketPriceArg, strconv.FormatUint(ctx.Flags.Uint64(priceFlag), 10)),
		txn.NewArg(contest.MaxTicketsArg, strconv.Itoa(ctx.Flags.Int(capacityFlag))),
		txn.Arg{Key: contest.SeedArg, Value: seed},
	)
	if err != nil {
		return xerrors.Errorf("failed to create: %v", err)
	}

	addr, err := contest.AddressOf(owner, seed)
	if err != nil {
		return xerrors.Errorf("failed to derive address: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%v\n", addr)

	return nil
}

// registerAction is an action to buy a ticket of a contest.
//
// - implements node.ActionTemplate
type registerAction struct{}

// Execute implements node.ActionTemplate. It signs and applies a transaction
// buying a ticket, then prints the progress of the contest and its winner once
// the last ticket is sold.
func (a registerAction) Execute(ctx node.Context) error {
	ledger, signer, err := prepare(ctx)
	if err != nil {
		return err
	}

	addr, err := account.ParseAddress(ctx.Flags.String(addressFlag))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	err = apply(ctx.Context(), ledger, signer,
		txn.NewArg(contest.CmdArg, string(contest.CmdRegister)),
		txn.NewArg(contest.AddressArg, addr.String()),
	)
	if err != nil {
		return xerrors.Errorf("failed to register: %v", err)
	}

	c, err := fetch(ledger, addr)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "ticket %d/%d sold\n", c.TotalTicketsSold, c.MaxTickets)

	if c.Winner.IsSet() {
		fmt.Fprintf(ctx.Out, "winner is %v\n", c.Winner)
	}

	return nil
}

// closeAction is an action to delete a resolved contest.
//
// - implements node.ActionTemplate
type closeAction struct{}

// Execute implements node.ActionTemplate. It signs and applies a transaction
// closing the contest.
func (a closeAction) Execute(ctx node.Context) error {
	ledger, signer, err := prepare(ctx)
	if err != nil {
		return err
	}

	addr, err := account.ParseAddress(ctx.Flags.String(addressFlag))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	err = apply(ctx.Context(), ledger, signer,
		txn.NewArg(contest.CmdArg, string(contest.CmdClose)),
		txn.NewArg(contest.AddressArg, addr.String()),
	)
	if err != nil {
		return xerrors.Errorf("failed to close: %v", err)
	}

	fmt.Fprintf(ctx.Out, "contest %v closed\n", addr)

	return nil
}

// showAction is an action to print a contest.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate. It prints the contest as JSON.
func (a showAction) Execute(ctx node.Context) error {
	var ledger *serial.Service
	err := ctx.Injector.Resolve(&ledger)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	addr, err := account.ParseAddress(ctx.Flags.String(addressFlag))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	c, err := fetch(ledger, addr)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to encode: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%s\n", data)

	return nil
}

// prepare resolves the ledger and loads the signer of the key flag.
func prepare(ctx node.Context) (*serial.Service, crypto.Signer, error) {
	var ledger *serial.Service
	err := ctx.Injector.Resolve(&ledger)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	data, err := loader.NewFileLoader(ctx.Flags.Path(keyFlag)).Load()
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, nil, xerrors.Errorf("invalid key: %v", err)
	}

	return ledger, signer, nil
}

// apply signs a transaction for the contest contract with the next nonce of
// the signer. A transaction rejected by the contract is returned as an error.
func apply(ctx context.Context, ledger *serial.Service, signer crypto.Signer,
	args ...txn.Arg) error {

	mgr := signed.NewManager(signer, ledger)

	err := mgr.Sync()
	if err != nil {
		return xerrors.Errorf("failed to sync nonce: %v", err)
	}

	args = append(args, txn.NewArg(native.ContractArg, contest.ContractName))

	tx, err := mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to make tx: %v", err)
	}

	res, err := ledger.Apply(ctx, tx)
	if err != nil {
		return xerrors.Errorf("failed to apply tx: %v", err)
	}

	if !res.Accepted {
		return xerrors.Errorf("transaction rejected: %s", res.Message)
	}

	ticket.Logger.Debug().Hex("tx", tx.GetID()).Msg("transaction accepted")

	return nil
}

func fetch(ledger *serial.Service, addr account.Address) (types.Contest, error) {
	var c types.Contest

	err := ledger.View(func(r store.Readable) error {
		var err error
		c, err = contest.Fetch(r, addr)

		return err
	})

	if err != nil {
		return c, xerrors.Errorf("failed to fetch: %v", err)
	}

	return c, nil
}
