// Package native implements an execution service that routes a transaction to
// a contract compiled into the binary.
//
// The contract is selected by the ContractArg argument of the transaction. A
// contract returning an error rejects the transaction: the ledger then rolls
// back every write of the execution.
package native

import (
	"sort"
	"sync"

	"go.dedis.ch/ticket/core/execution"
	"go.dedis.ch/ticket/core/store"
	"golang.org/x/xerrors"
)

// ContractArg is the argument key in the transaction to look up a contract.
const ContractArg = "go.dedis.ch/ticket.ContractArg"

// ErrUnknownContract is returned when no contract is registered under the name
// found in the transaction.
var ErrUnknownContract = xerrors.New("unknown contract")

// Contract is a ledger program written in Go. It reads and writes the accounts
// through the snapshot, which is discarded when it returns an error.
type Contract interface {
	Execute(store.Snapshot, execution.Step) error
}

// Service is the registry of the contracts available to the ledger.
//
// - implements execution.Service
type Service struct {
	sync.RWMutex
	contracts map[string]Contract
}

// NewExecution returns a service without any contract.
func NewExecution() *Service {
	return &Service{
		contracts: make(map[string]Contract),
	}
}

// Set registers the contract under the name, replacing the previous one.
func (ns *Service) Set(name string, contract Contract) {
	ns.Lock()
	ns.contracts[name] = contract
	ns.Unlock()
}

// Contracts returns the sorted names of the registered contracts.
func (ns *Service) Contracts() []string {
	ns.RLock()
	defer ns.RUnlock()

	names := make([]string, 0, len(ns.contracts))
	for name := range ns.contracts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Execute implements execution.Service. The result is rejected with the error
// message when the contract fails. An error is returned only when the
// transaction does not name a registered contract.
func (ns *Service) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	name := string(step.Current.GetArg(ContractArg))

	ns.RLock()
	contract, found := ns.contracts[name]
	ns.RUnlock()

	if !found {
		return execution.Result{}, xerrors.Errorf("'%s': %w", name, ErrUnknownContract)
	}

	err := contract.Execute(snap, step)
	if err != nil {
		return execution.Result{Message: err.Error(), Err: err}, nil
	}

	return execution.Result{Accepted: true}, nil
}
