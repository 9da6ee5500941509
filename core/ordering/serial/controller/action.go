package controller

import (
	"fmt"

	"go.dedis.ch/ticket/cli/node"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/core/ordering/serial"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// GenesisFile is the content of a genesis file.
//
//	accounts:
//	  - address: 5b0c...e1
//	    balance: 1000000000
type GenesisFile struct {
	Accounts []GenesisAccount `yaml:"accounts"`
}

// GenesisAccount is an initial balance of the genesis.
type GenesisAccount struct {
	Address string `yaml:"address"`
	Balance uint64 `yaml:"balance"`
}

// ReadGenesis parses a genesis file into the balances to credit. An account
// cannot appear twice.
func ReadGenesis(data []byte) (map[account.Address]uint64, error) {
	var file GenesisFile

	err := yaml.UnmarshalStrict(data, &file)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode: %v", err)
	}

	balances := make(map[account.Address]uint64, len(file.Accounts))

	for _, acc := range file.Accounts {
		addr, err := account.ParseAddress(acc.Address)
		if err != nil {
			return nil, xerrors.Errorf("account '%s': %v", acc.Address, err)
		}

		_, found := balances[addr]
		if found {
			return nil, xerrors.Errorf("duplicate account %v", addr)
		}

		balances[addr] = acc.Balance
	}

	return balances, nil
}

// genesisAction is an action to credit the initial balances of the ledger.
//
// - implements node.ActionTemplate
type genesisAction struct {
	readFn func(path string) ([]byte, error)
}

// Execute implements node.ActionTemplate. It reads the genesis file and
// credits the balances.
func (a genesisAction) Execute(ctx node.Context) error {
	var ledger *serial.Service
	err := ctx.Injector.Resolve(&ledger)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	data, err := a.readFn(ctx.Flags.Path("file"))
	if err != nil {
		return xerrors.Errorf("failed to read genesis: %v", err)
	}

	balances, err := ReadGenesis(data)
	if err != nil {
		return xerrors.Errorf("invalid genesis: %v", err)
	}

	err = ledger.Genesis(balances)
	if err != nil {
		return xerrors.Errorf("failed to apply genesis: %v", err)
	}

	fmt.Fprintf(ctx.Out, "genesis credited %d accounts\n", len(balances))

	return nil
}

// balanceAction is an action to print the balance of an account.
//
// - implements node.ActionTemplate
type balanceAction struct{}

// Execute implements node.ActionTemplate. It prints the balance of the account
// given by the address flag.
func (a balanceAction) Execute(ctx node.Context) error {
	var ledger *serial.Service
	err := ctx.Injector.Resolve(&ledger)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	addr, err := account.ParseAddress(ctx.Flags.String("address"))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	balance, err := ledger.Balance(addr)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%d\n", balance)

	return nil
}
