// Package contest implements a native contract that sells a fixed number of
// tickets at a fixed price. The participant who buys the last ticket wins the
// whole pool.
//
// A contest is stored at an address derived from its owner and a seed, so
// that anyone can locate it without a directory. The owner pays the reserve
// that keeps the record alive, and recovers it by closing the contest once it
// is resolved.
package contest

import (
	"strconv"

	"github.com/rs/zerolog"
	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/contracts/contest/types"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/core/execution"
	"go.dedis.ch/ticket/core/execution/native"
	"go.dedis.ch/ticket/core/store"
	"golang.org/x/xerrors"
)

// commands defines the commands of the contest contract. This interface helps
// in testing the contract.
type commands interface {
	create(snap store.Snapshot, step execution.Step) error
	register(snap store.Snapshot, step execution.Step) error
	close(snap store.Snapshot, step execution.Step) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/ticket.Contest"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "contest:command"

	// NameArg is the argument's name for the name of a new contest.
	NameArg = "contest:name"

	// DescriptionArg is the argument's name for the description of a new
	// contest.
	DescriptionArg = "contest:description"

	// TicketPriceArg is the argument's name for the price of a ticket, as a
	// decimal number of units.
	TicketPriceArg = "contest:ticket_price"

	// MaxTicketsArg is the argument's name for the capacity of a new contest,
	// as a decimal number.
	MaxTicketsArg = "contest:max_tickets"

	// SeedArg is the argument's name for the seed that distinguishes the
	// contests of a same owner.
	SeedArg = "contest:seed"

	// AddressArg is the argument's name for the hexadecimal address of the
	// contest a command applies to.
	AddressArg = "contest:address"

	// Tag is the first input of the derivation of a contest address.
	Tag = "contest"
)

// Command defines a type of command for the contest contract.
type Command string

const (
	// CmdCreate defines the command to create a contest.
	CmdCreate Command = "CREATE"

	// CmdRegister defines the command to buy a ticket.
	CmdRegister Command = "REGISTER"

	// CmdClose defines the command to delete a resolved contest.
	CmdClose Command = "CLOSE"
)

var (
	// ErrInvalidParameters is returned when a contest is created with
	// parameters out of bounds.
	ErrInvalidParameters = xerrors.New("invalid parameters")

	// ErrAlreadyInitialized is returned when a contest already exists at the
	// derived address.
	ErrAlreadyInitialized = xerrors.New("already initialized")

	// ErrTicketLimitReached is returned when a ticket is bought from a full
	// contest.
	ErrTicketLimitReached = xerrors.New("ticket limit reached")

	// ErrInsufficientFunds is returned when the payer cannot afford the
	// transfer.
	ErrInsufficientFunds = account.ErrInsufficientFunds

	// ErrNotFound is returned when no contest exists at the address.
	ErrNotFound = xerrors.New("contest not found")

	// ErrUnauthorized is returned when someone else than the owner closes a
	// contest.
	ErrUnauthorized = xerrors.New("unauthorized")

	// ErrNotResolved is returned when a contest is closed before it has a
	// winner.
	ErrNotResolved = xerrors.New("contest not resolved")
)

// Params are the parameters of a new contest.
type Params struct {
	Name        string
	Description string
	TicketPrice uint64
	MaxTickets  uint64
	Seed        []byte
}

// AddressOf returns the address of the contest of the owner for the seed.
func AddressOf(owner account.Address, seed []byte) (account.Address, error) {
	addr, _, err := account.Derive([]byte(Tag), owner[:], seed)
	if err != nil {
		return addr, xerrors.Errorf("failed to derive: %v", err)
	}

	return addr, nil
}

// RegisterContract registers the contest contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the contest smart contract.
//
// - implements native.Contract
type Contract struct {
	cmd    commands
	logger zerolog.Logger
}

// NewContract creates a new contest contract.
func NewContract() Contract {
	contract := Contract{
		logger: ticket.Logger.With().Str("contract", "contest").Logger(),
	}

	contract.cmd = contestCommand{Contract: &contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdCreate:
		err := c.cmd.create(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to CREATE: %w", err)
		}
	case CmdRegister:
		err := c.cmd.register(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to REGISTER: %w", err)
		}
	case CmdClose:
		err := c.cmd.close(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to CLOSE: %w", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

// Create initializes a contest owned by the owner. The owner pays the reserve
// of the record. It returns the new contest and its address.
func (c Contract) Create(snap store.Snapshot, owner account.Address,
	params Params) (types.Contest, account.Address, error) {

	var contest types.Contest

	err := types.ValidateParameters(params.Name, params.Description,
		params.TicketPrice, params.MaxTickets)
	if err != nil {
		return contest, account.Address{}, xerrors.Errorf("%v: %w", err, ErrInvalidParameters)
	}

	if len(params.Seed) > types.MaxSeedLength {
		return contest, account.Address{}, xerrors.Errorf("seed is longer than %d bytes: %w",
			types.MaxSeedLength, ErrInvalidParameters)
	}

	addr, bump, err := account.Derive([]byte(Tag), owner[:], params.Seed)
	if err != nil {
		return contest, addr, xerrors.Errorf("failed to derive: %v", err)
	}

	bank := account.NewBank(snap)

	exists, err := bank.Exists(addr)
	if err != nil {
		return contest, addr, err
	}

	if exists {
		return contest, addr, xerrors.Errorf("contest %v: %w", addr, ErrAlreadyInitialized)
	}

	reserve := account.MinimumReserve(types.Space(int(params.MaxTickets)))

	err = bank.Transfer(owner, addr, reserve)
	if err != nil {
		return contest, addr, xerrors.Errorf("failed to pay the reserve: %w", err)
	}

	// Any value sent to the address beforehand stays out of the pool.
	balance, err := bank.Balance(addr)
	if err != nil {
		return contest, addr, err
	}

	contest = types.Contest{
		Owner:        owner,
		Name:         params.Name,
		Description:  params.Description,
		TicketPrice:  params.TicketPrice,
		MaxTickets:   uint8(params.MaxTickets),
		Winner:       types.NoWinner(),
		Participants: []account.Address{},
		Seed:         params.Seed,
		Bump:         bump,
		Reserve:      balance,
	}

	err = save(bank, addr, contest)
	if err != nil {
		return contest, addr, err
	}

	c.logger.Info().
		Str("address", addr.String()).
		Str("owner", owner.String()).
		Uint64("price", contest.TicketPrice).
		Uint8("capacity", contest.MaxTickets).
		Msg("contest created")

	return contest, addr, nil
}

// Register sells a ticket of the contest to the participant. When the ticket
// is the last one, the participant becomes the winner and receives the pool.
func (c Contract) Register(snap store.Snapshot, addr, participant account.Address) (types.Contest, error) {
	bank := account.NewBank(snap)

	contest, err := Fetch(snap, addr)
	if err != nil {
		return contest, err
	}

	if contest.State() == types.Resolved || contest.TotalTicketsSold >= contest.MaxTickets {
		return contest, xerrors.Errorf("%d/%d tickets sold: %w",
			contest.TotalTicketsSold, contest.MaxTickets, ErrTicketLimitReached)
	}

	err = bank.Transfer(participant, addr, contest.TicketPrice)
	if err != nil {
		return contest, xerrors.Errorf("failed to pay the ticket: %w", err)
	}

	contest.Participants = append(contest.Participants, participant)
	contest.TotalTicketsSold++

	if contest.TotalTicketsSold == contest.MaxTickets {
		contest.Winner = types.WinnerOf(participant)

		err = c.payout(bank, addr, contest)
		if err != nil {
			return contest, err
		}
	}

	err = save(bank, addr, contest)
	if err != nil {
		return contest, err
	}

	c.logger.Info().
		Str("address", addr.String()).
		Str("participant", participant.String()).
		Uint8("sold", contest.TotalTicketsSold).
		Uint8("capacity", contest.MaxTickets).
		Msg("ticket sold")

	return contest, nil
}

// Close deletes a resolved contest and refunds its reserve to the owner.
func (c Contract) Close(snap store.Snapshot, addr, signer account.Address) error {
	contest, err := Fetch(snap, addr)
	if err != nil {
		return err
	}

	if contest.Owner != signer {
		return xerrors.Errorf("%v is not the owner: %w", signer, ErrUnauthorized)
	}

	if contest.State() != types.Resolved {
		return xerrors.Errorf("%d/%d tickets sold: %w",
			contest.TotalTicketsSold, contest.MaxTickets, ErrNotResolved)
	}

	err = account.NewBank(snap).Close(addr, contest.Owner)
	if err != nil {
		return xerrors.Errorf("failed to close: %v", err)
	}

	c.logger.Info().Str("address", addr.String()).Msg("contest closed")

	return nil
}

// payout transfers everything above the reserve to the winner.
func (c Contract) payout(bank account.Bank, addr account.Address, contest types.Contest) error {
	winner, _ := contest.Winner.Get()

	balance, err := bank.Balance(addr)
	if err != nil {
		return err
	}

	if balance < contest.Reserve {
		return xerrors.Errorf("balance %d is below the reserve %d", balance, contest.Reserve)
	}

	amount := balance - contest.Reserve

	err = bank.Transfer(addr, winner, amount)
	if err != nil {
		return xerrors.Errorf("failed to pay the winner: %v", err)
	}

	c.logger.Info().
		Str("address", addr.String()).
		Str("winner", winner.String()).
		Uint64("amount", amount).
		Msg("contest resolved")

	return nil
}

// Fetch returns the contest stored at the address.
func Fetch(r store.Readable, addr account.Address) (types.Contest, error) {
	data, err := account.NewReader(r).Load(addr)
	if err != nil {
		return types.Contest{}, err
	}

	if len(data) == 0 {
		return types.Contest{}, xerrors.Errorf("address %v: %w", addr, ErrNotFound)
	}

	contest, err := types.Deserialize(data)
	if err != nil {
		return contest, xerrors.Errorf("failed to decode: %v", err)
	}

	return contest, nil
}

func save(bank account.Bank, addr account.Address, contest types.Contest) error {
	data, err := contest.Serialize()
	if err != nil {
		return err
	}

	err = bank.Save(addr, data)
	if err != nil {
		return xerrors.Errorf("failed to store contest: %v", err)
	}

	return nil
}

// contestCommand implements the commands of the contest contract by reading
// the arguments of the transaction.
//
// - implements commands
type contestCommand struct {
	*Contract
}

// create implements commands. It performs the CREATE command.
func (c contestCommand) create(snap store.Snapshot, step execution.Step) error {
	owner, err := account.AddressOf(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("invalid signer: %v", err)
	}

	price, err := parseUint(step, TicketPriceArg)
	if err != nil {
		return err
	}

	capacity, err := parseUint(step, MaxTicketsArg)
	if err != nil {
		return err
	}

	params := Params{
		Name:        string(step.Current.GetArg(NameArg)),
		Description: string(step.Current.GetArg(DescriptionArg)),
		TicketPrice: price,
		MaxTickets:  capacity,
		Seed:        step.Current.GetArg(SeedArg),
	}

	_, _, err = c.Create(snap, owner, params)
	if err != nil {
		return err
	}

	return nil
}

// register implements commands. It performs the REGISTER command.
func (c contestCommand) register(snap store.Snapshot, step execution.Step) error {
	participant, err := account.AddressOf(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("invalid signer: %v", err)
	}

	addr, err := parseAddress(step)
	if err != nil {
		return err
	}

	_, err = c.Register(snap, addr, participant)
	if err != nil {
		return err
	}

	return nil
}

// close implements commands. It performs the CLOSE command.
func (c contestCommand) close(snap store.Snapshot, step execution.Step) error {
	signer, err := account.AddressOf(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("invalid signer: %v", err)
	}

	addr, err := parseAddress(step)
	if err != nil {
		return err
	}

	return c.Close(snap, addr, signer)
}

func parseUint(step execution.Step, key string) (uint64, error) {
	arg := step.Current.GetArg(key)
	if len(arg) == 0 {
		return 0, xerrors.Errorf("'%s' not found in tx arg: %w", key, ErrInvalidParameters)
	}

	value, err := strconv.ParseUint(string(arg), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("'%s' is not a number: %w", key, ErrInvalidParameters)
	}

	return value, nil
}

func parseAddress(step execution.Step) (account.Address, error) {
	arg := step.Current.GetArg(AddressArg)
	if len(arg) == 0 {
		return account.Address{}, xerrors.Errorf("'%s' not found in tx arg", AddressArg)
	}

	addr, err := account.ParseAddress(string(arg))
	if err != nil {
		return addr, xerrors.Errorf("invalid contest address: %v", err)
	}

	return addr, nil
}
