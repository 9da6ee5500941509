// Package account implements the account store of the ledger and the transfer
// primitive that moves value between two accounts.
//
// An account is identified by a 32 bytes address. The address of a user is
// its Ed25519 public key, whereas the address of a record owned by a contract
// is derived from fixed inputs so that it can be located without a directory.
// Every account has a balance, and a record has in addition some data.
package account

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"go.dedis.ch/ticket/core/access"
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/store/prefixed"
	"golang.org/x/xerrors"
)

const (
	// AddressSize is the size in bytes of an address.
	AddressSize = 32

	// AccountOverhead is the number of bytes an account occupies in the store
	// on top of its data.
	AccountOverhead = 128

	// RentPerByteYear is the cost of storing one byte for a year.
	RentPerByteYear = 3480

	// ExemptionYears is the number of years of rent a record must hold to
	// stay alive in the store.
	ExemptionYears = 2

	balanceSpace prefixed.Namespace = "account:balance"
	dataSpace    prefixed.Namespace = "account:data"
)

var (
	// ErrInsufficientFunds is returned when an account cannot pay an amount.
	ErrInsufficientFunds = xerrors.New("insufficient funds")

	// ErrOverflow is returned when a balance would exceed the maximum value.
	ErrOverflow = xerrors.New("balance overflow")
)

// Address is the identifier of an account.
type Address [AddressSize]byte

// NewAddress returns the address from its binary representation.
func NewAddress(data []byte) (Address, error) {
	var addr Address

	if len(data) != AddressSize {
		return addr, xerrors.Errorf("invalid address length %d", len(data))
	}

	copy(addr[:], data)

	return addr, nil
}

// ParseAddress returns the address from its hexadecimal representation.
func ParseAddress(text string) (Address, error) {
	data, err := hex.DecodeString(text)
	if err != nil {
		return Address{}, xerrors.Errorf("malformed address: %v", err)
	}

	return NewAddress(data)
}

// AddressOf returns the address of the account controlled by the identity.
func AddressOf(ident access.Identity) (Address, error) {
	data, err := ident.MarshalBinary()
	if err != nil {
		return Address{}, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	return NewAddress(data)
}

// String implements fmt.Stringer. It returns the hexadecimal representation of
// the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}

// MinimumReserve returns the amount a record of the given size must hold to
// stay alive in the store. The reserve is never part of what a contract
// distributes.
func MinimumReserve(space int) uint64 {
	return uint64(AccountOverhead+space) * RentPerByteYear * ExemptionYears
}

// Reader provides a read-only access to the accounts.
type Reader struct {
	balances store.Readable
	data     store.Readable
}

// NewReader returns a read-only view of the accounts of the store.
func NewReader(r store.Readable) Reader {
	return Reader{
		balances: balanceSpace.Readable(r),
		data:     dataSpace.Readable(r),
	}
}

// Balance returns the balance of the account, which is zero if the account
// does not exist.
func (r Reader) Balance(addr Address) (uint64, error) {
	value, err := r.balances.Get(addr[:])
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	if len(value) == 0 {
		return 0, nil
	}

	if len(value) != 8 {
		return 0, xerrors.Errorf("corrupted balance for %v", addr)
	}

	return binary.LittleEndian.Uint64(value), nil
}

// Load returns the data of the record, or nil if the record does not exist.
func (r Reader) Load(addr Address) ([]byte, error) {
	value, err := r.data.Get(addr[:])
	if err != nil {
		return nil, xerrors.Errorf("failed to read data: %v", err)
	}

	return value, nil
}

// Exists returns true if a record is initialized at the address.
func (r Reader) Exists(addr Address) (bool, error) {
	value, err := r.Load(addr)
	if err != nil {
		return false, err
	}

	return len(value) > 0, nil
}

// Bank provides the primitives to update the accounts of a snapshot. It relies
// on the atomicity of the snapshot: when an operation fails, the caller must
// discard the snapshot.
type Bank struct {
	Reader

	balances store.Writable
	data     store.Writable
}

// NewBank returns a bank that operates on the accounts of the snapshot.
func NewBank(snap store.Snapshot) Bank {
	balances := balanceSpace.Snapshot(snap)
	data := dataSpace.Snapshot(snap)

	return Bank{
		Reader: Reader{
			balances: balances,
			data:     data,
		},
		balances: balances,
		data:     data,
	}
}

// Credit mints the amount to the account. It is only used to fund the ledger
// at genesis.
func (b Bank) Credit(addr Address, amount uint64) error {
	balance, err := b.Balance(addr)
	if err != nil {
		return err
	}

	if balance > math.MaxUint64-amount {
		return xerrors.Errorf("cannot credit %d to %v: %w", amount, addr, ErrOverflow)
	}

	return b.setBalance(addr, balance+amount)
}

// Transfer moves the amount from one account to the other. It fails with
// ErrInsufficientFunds before writing anything if the source cannot pay.
func (b Bank) Transfer(from, to Address, amount uint64) error {
	fromBalance, err := b.Balance(from)
	if err != nil {
		return err
	}

	if fromBalance < amount {
		return xerrors.Errorf("%v holds %d and cannot pay %d: %w",
			from, fromBalance, amount, ErrInsufficientFunds)
	}

	if from == to || amount == 0 {
		return nil
	}

	toBalance, err := b.Balance(to)
	if err != nil {
		return err
	}

	if toBalance > math.MaxUint64-amount {
		return xerrors.Errorf("cannot transfer %d to %v: %w", amount, to, ErrOverflow)
	}

	err = b.setBalance(from, fromBalance-amount)
	if err != nil {
		return err
	}

	return b.setBalance(to, toBalance+amount)
}

// Save writes the data of the record.
func (b Bank) Save(addr Address, data []byte) error {
	if len(data) == 0 {
		return xerrors.New("record data must not be empty")
	}

	err := b.data.Set(addr[:], data)
	if err != nil {
		return xerrors.Errorf("failed to write data: %v", err)
	}

	return nil
}

// Close deletes the record and transfers its whole balance to the destination.
func (b Bank) Close(addr, dest Address) error {
	balance, err := b.Balance(addr)
	if err != nil {
		return err
	}

	err = b.Transfer(addr, dest, balance)
	if err != nil {
		return xerrors.Errorf("failed to refund: %v", err)
	}

	err = b.data.Delete(addr[:])
	if err != nil {
		return xerrors.Errorf("failed to delete data: %v", err)
	}

	err = b.balances.Delete(addr[:])
	if err != nil {
		return xerrors.Errorf("failed to delete balance: %v", err)
	}

	return nil
}

func (b Bank) setBalance(addr Address, value uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	err := b.balances.Set(addr[:], buffer)
	if err != nil {
		return xerrors.Errorf("failed to write balance: %v", err)
	}

	return nil
}
