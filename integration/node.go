// Package integration runs the contest contract end to end on a ledger backed
// by a bbolt database, with participants signing their transactions.
package integration

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ticket/contracts/contest"
	"go.dedis.ch/ticket/contracts/contest/types"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/core/execution"
	"go.dedis.ch/ticket/core/execution/native"
	"go.dedis.ch/ticket/core/ordering/serial"
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/store/kv"
	"go.dedis.ch/ticket/core/txn"
	"go.dedis.ch/ticket/core/txn/signed"
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/loader"
)

// ticketNode is a ledger with the contest contract registered.
type ticketNode struct {
	t      *testing.T
	db     kv.DB
	ledger *serial.Service
}

func newTicketNode(t *testing.T, dir string) *ticketNode {
	db, err := kv.New(filepath.Join(dir, "ticket.db"))
	require.NoError(t, err)

	exec := native.NewExecution()
	contest.RegisterContract(exec, contest.NewContract())

	return &ticketNode{
		t:      t,
		db:     db,
		ledger: serial.NewService(db, exec),
	}
}

func (n *ticketNode) Close() {
	require.NoError(n.t, n.db.Close())
}

// Fetch returns the contest stored at the address.
func (n *ticketNode) Fetch(addr account.Address) types.Contest {
	var c types.Contest

	err := n.ledger.View(func(r store.Readable) error {
		var err error
		c, err = contest.Fetch(r, addr)

		return err
	})
	require.NoError(n.t, err)

	return c
}

// Balance returns the balance of the account.
func (n *ticketNode) Balance(addr account.Address) uint64 {
	balance, err := n.ledger.Balance(addr)
	require.NoError(n.t, err)

	return balance
}

// participant is a signer of transactions with its key stored in a file.
type participant struct {
	signer crypto.Signer
	addr   account.Address
	mgr    *signed.TransactionManager
}

func newParticipant(t *testing.T, n *ticketNode, dir, name string) participant {
	signer, err := loader.LoadSigner(loader.NewFileLoader(filepath.Join(dir, name+".key")))
	require.NoError(t, err)

	addr, err := account.AddressOf(signer.GetPublicKey())
	require.NoError(t, err)

	mgr := signed.NewManager(signer, n.ledger)
	require.NoError(t, mgr.Sync())

	return participant{
		signer: signer,
		addr:   addr,
		mgr:    mgr,
	}
}

// Create creates a contest owned by the participant.
func (p participant) Create(t *testing.T, n *ticketNode, name string, price uint64,
	capacity int, seed string) (execution.Result, error) {

	return p.apply(t, n,
		txn.NewArg(contest.CmdArg, string(contest.CmdCreate)),
		txn.NewArg(contest.NameArg, name),
		txn.NewArg(contest.DescriptionArg, "integration contest"),
		txn.NewArg(contest.TicketPriceArg, strconv.FormatUint(price, 10)),
		txn.NewArg(contest.MaxTicketsArg, strconv.Itoa(capacity)),
		txn.NewArg(contest.SeedArg, seed),
	)
}

// Register buys a ticket of the contest.
func (p participant) Register(t *testing.T, n *ticketNode, addr account.Address) (execution.Result, error) {
	return p.apply(t, n,
		txn.NewArg(contest.CmdArg, string(contest.CmdRegister)),
		txn.NewArg(contest.AddressArg, addr.String()),
	)
}

// Close deletes a resolved contest.
func (p participant) Close(t *testing.T, n *ticketNode, addr account.Address) (execution.Result, error) {
	return p.apply(t, n,
		txn.NewArg(contest.CmdArg, string(contest.CmdClose)),
		txn.NewArg(contest.AddressArg, addr.String()),
	)
}

func (p participant) apply(t *testing.T, n *ticketNode, args ...txn.Arg) (execution.Result, error) {
	// The nonce is only consumed by an accepted transaction.
	require.NoError(t, p.mgr.Sync())

	args = append(args, txn.NewArg(native.ContractArg, contest.ContractName))

	tx, err := p.mgr.Make(args...)
	require.NoError(t, err)

	return n.ledger.Apply(context.Background(), tx)
}
