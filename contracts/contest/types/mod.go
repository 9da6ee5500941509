// Package types defines the record of a contest as it is stored on the ledger.
package types

import (
	"encoding/json"

	"go.dedis.ch/ticket/core/account"
	"golang.org/x/xerrors"
)

const (
	// MaxNameLength is the maximum length in bytes of the name of a contest.
	MaxNameLength = 32

	// MaxDescriptionLength is the maximum length in bytes of the description.
	MaxDescriptionLength = 200

	// MaxSeedLength is the maximum length in bytes of the derivation seed.
	MaxSeedLength = 32

	// MaxTickets is the highest capacity a contest can have.
	MaxTickets = 255
)

// State is the state of a contest in its lifecycle.
type State int

const (
	// Open is the state of a contest that still sells tickets.
	Open State = iota + 1

	// Resolved is the terminal state of a contest, once the last ticket is
	// sold and the winner is paid.
	Resolved
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Winner is an optional address: either a contest has no winner, or it has
// exactly one.
type Winner struct {
	set  bool
	addr account.Address
}

// NoWinner returns the absence of a winner.
func NoWinner() Winner {
	return Winner{}
}

// WinnerOf returns a winner set to the address.
func WinnerOf(addr account.Address) Winner {
	return Winner{set: true, addr: addr}
}

// Get returns the address of the winner and true, or false when there is no
// winner.
func (w Winner) Get() (account.Address, bool) {
	return w.addr, w.set
}

// IsSet returns true if the winner is set.
func (w Winner) IsSet() bool {
	return w.set
}

// String implements fmt.Stringer.
func (w Winner) String() string {
	if !w.set {
		return "none"
	}

	return w.addr.String()
}

// MarshalJSON implements json.Marshaler. An absent winner is encoded as null.
func (w Winner) MarshalJSON() ([]byte, error) {
	if !w.set {
		return []byte("null"), nil
	}

	return json.Marshal(w.addr)
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Winner) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*w = NoWinner()
		return nil
	}

	var addr account.Address

	err := json.Unmarshal(data, &addr)
	if err != nil {
		return xerrors.Errorf("invalid winner: %v", err)
	}

	*w = WinnerOf(addr)

	return nil
}

// Contest is the record of a ticket sale whose pool goes to the buyer of the
// last ticket.
type Contest struct {
	Owner            account.Address   `json:"owner"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	TicketPrice      uint64            `json:"ticket_price"`
	MaxTickets       uint8             `json:"max_tickets"`
	TotalTicketsSold uint8             `json:"total_tickets_sold"`
	Winner           Winner            `json:"winner"`
	Participants     []account.Address `json:"participants"`
	Seed             []byte            `json:"seed"`
	Bump             uint8             `json:"bump"`

	// Reserve is the balance the record holds besides the pool. It is never
	// distributed to the winner.
	Reserve uint64 `json:"reserve"`
}

// State returns the state of the contest in its lifecycle.
func (c Contest) State() State {
	if c.Winner.IsSet() {
		return Resolved
	}

	return Open
}

// Pool returns the value accumulated by the ticket sales so far.
func (c Contest) Pool() uint64 {
	return c.TicketPrice * uint64(c.TotalTicketsSold)
}

// Validate returns nil if the invariants of the record hold, otherwise an
// error describing the first one that is violated.
func (c Contest) Validate() error {
	err := ValidateParameters(c.Name, c.Description, c.TicketPrice, uint64(c.MaxTickets))
	if err != nil {
		return err
	}

	if len(c.Seed) > MaxSeedLength {
		return xerrors.Errorf("seed is longer than %d bytes", MaxSeedLength)
	}

	if c.TotalTicketsSold > c.MaxTickets {
		return xerrors.Errorf("%d tickets sold for a capacity of %d",
			c.TotalTicketsSold, c.MaxTickets)
	}

	if len(c.Participants) != int(c.TotalTicketsSold) {
		return xerrors.Errorf("%d participants for %d tickets sold",
			len(c.Participants), c.TotalTicketsSold)
	}

	full := c.TotalTicketsSold == c.MaxTickets
	if full != c.Winner.IsSet() {
		return xerrors.Errorf("winner is %v with %d/%d tickets sold",
			c.Winner, c.TotalTicketsSold, c.MaxTickets)
	}

	return nil
}

// Serialize returns the encoding of the contest.
func (c Contest) Serialize() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal contest: %v", err)
	}

	return data, nil
}

// Deserialize returns the contest of the encoding.
func Deserialize(data []byte) (Contest, error) {
	var c Contest

	err := json.Unmarshal(data, &c)
	if err != nil {
		return c, xerrors.Errorf("failed to unmarshal contest: %v", err)
	}

	return c, nil
}

// ValidateParameters returns nil if the parameters can create a contest.
func ValidateParameters(name, description string, price, maxTickets uint64) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return xerrors.Errorf("name must have 1 to %d bytes", MaxNameLength)
	}

	if len(description) > MaxDescriptionLength {
		return xerrors.Errorf("description must have at most %d bytes", MaxDescriptionLength)
	}

	if price == 0 {
		return xerrors.New("ticket price must be positive")
	}

	if maxTickets == 0 || maxTickets > MaxTickets {
		return xerrors.Errorf("max tickets must be between 1 and %d", MaxTickets)
	}

	return nil
}

// Space returns the number of bytes a contest with the given capacity occupies
// at most in the store.
func Space(maxTickets int) int {
	return 8 + // discriminator
		account.AddressSize + // owner
		4 + MaxNameLength +
		4 + MaxDescriptionLength +
		8 + // ticket price
		1 + // max tickets
		1 + // total tickets sold
		1 + account.AddressSize + // winner
		4 + maxTickets*account.AddressSize + // participants
		4 + MaxSeedLength +
		1 + // bump
		8 // reserve
}
