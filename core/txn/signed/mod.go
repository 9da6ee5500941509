// Package signed implements transactions signed by the account that pays for
// them.
//
// The identifier of a transaction is the SHA-256 digest of its encoding, and
// the signature covers that identifier. The encoding starts with a tag so
// that a signature over a transaction can never be mistaken for another
// message of the ledger.
package signed

import (
	"encoding/binary"
	"sort"

	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/core/access"
	"go.dedis.ch/ticket/core/txn"
	"go.dedis.ch/ticket/crypto"
	"golang.org/x/xerrors"
)

const encodingTag = "ticket.Transaction"

// Transaction is a set of arguments signed by an account for one of its
// nonces.
//
// - implements txn.Transaction
type Transaction struct {
	nonce  uint64
	args   map[string][]byte
	pubkey crypto.PublicKey
	sig    crypto.Signature
	id     []byte
}

// Option sets a field of a new transaction.
type Option func(*Transaction)

// WithArg sets the argument of the transaction. The last value wins when the
// key is given twice.
func WithArg(key string, value []byte) Option {
	return func(tx *Transaction) {
		tx.args[key] = value
	}
}

// WithSignature sets the signature of a transaction received from someone
// else. NewTransaction fails when it does not match.
func WithSignature(sig crypto.Signature) Option {
	return func(tx *Transaction) {
		tx.sig = sig
	}
}

// NewTransaction returns a transaction of the account for the nonce.
func NewTransaction(nonce uint64, pk crypto.PublicKey, opts ...Option) (*Transaction, error) {
	tx := &Transaction{
		nonce:  nonce,
		pubkey: pk,
		args:   make(map[string][]byte),
	}

	for _, opt := range opts {
		opt(tx)
	}

	data, err := tx.Encode()
	if err != nil {
		return nil, xerrors.Errorf("failed to encode: %v", err)
	}

	tx.id = crypto.Digest(crypto.NewHashFactory(crypto.Sha256), data)

	if tx.sig != nil {
		err = tx.Verify()
		if err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// GetID implements txn.Transaction.
func (t *Transaction) GetID() []byte {
	return t.id
}

// GetNonce implements txn.Transaction.
func (t *Transaction) GetNonce() uint64 {
	return t.nonce
}

// GetIdentity implements txn.Transaction. It returns the public key of the
// account.
func (t *Transaction) GetIdentity() access.Identity {
	return t.pubkey
}

// GetSignature returns the signature, or nil if the transaction is not signed
// yet.
func (t *Transaction) GetSignature() crypto.Signature {
	return t.sig
}

// GetArgs returns the sorted keys of the arguments.
func (t *Transaction) GetArgs() []string {
	keys := make([]string, 0, len(t.args))
	for key := range t.args {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// GetArg implements txn.Transaction.
func (t *Transaction) GetArg(key string) []byte {
	return t.args[key]
}

// Sign signs the identifier with the key of the account.
func (t *Transaction) Sign(signer crypto.Signer) error {
	if len(t.id) == 0 {
		return xerrors.New("missing identifier")
	}

	if !signer.GetPublicKey().Equal(t.pubkey) {
		return xerrors.New("signer is not the account of the transaction")
	}

	sig, err := signer.Sign(t.id)
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	t.sig = sig

	return nil
}

// Verify returns an error unless the account signed the identifier.
func (t *Transaction) Verify() error {
	if t.sig == nil {
		return xerrors.New("missing signature")
	}

	err := t.pubkey.Verify(t.id, t.sig)
	if err != nil {
		return xerrors.Errorf("invalid signature: %v", err)
	}

	return nil
}

// Encode returns the bytes the identifier is computed from: the tag, the
// nonce, the arguments sorted by key and the public key. Every variable part
// is prefixed by its length.
func (t *Transaction) Encode() ([]byte, error) {
	pubkey, err := t.pubkey.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal public key: %v", err)
	}

	data := append([]byte(encodingTag), make([]byte, 8)...)
	binary.LittleEndian.PutUint64(data[len(encodingTag):], t.nonce)

	data = binary.AppendUvarint(data, uint64(len(t.args)))
	for _, key := range t.GetArgs() {
		data = appendPrefixed(data, []byte(key))
		data = appendPrefixed(data, t.args[key])
	}

	return appendPrefixed(data, pubkey), nil
}

func appendPrefixed(data, part []byte) []byte {
	data = binary.AppendUvarint(data, uint64(len(part)))
	return append(data, part...)
}

// Client returns the next nonce expected by the ledger for an account.
type Client interface {
	GetNonce(access.Identity) (uint64, error)
}

// TransactionManager signs the transactions of one account. It increments the
// nonce after each transaction, assuming the ledger admits them in order.
// When the ledger refuses one, Sync must be called again.
//
// - implements txn.Manager
type TransactionManager struct {
	client Client
	signer crypto.Signer
	nonce  uint64
}

// NewManager returns a manager of the account of the signer. Its nonce starts
// at zero until the first Sync.
func NewManager(signer crypto.Signer, client Client) *TransactionManager {
	return &TransactionManager{
		client: client,
		signer: signer,
	}
}

// Make implements txn.Manager.
func (mgr *TransactionManager) Make(args ...txn.Arg) (txn.Transaction, error) {
	opts := make([]Option, len(args))
	for i, arg := range args {
		opts[i] = WithArg(arg.Key, arg.Value)
	}

	tx, err := NewTransaction(mgr.nonce, mgr.signer.GetPublicKey(), opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	err = tx.Sign(mgr.signer)
	if err != nil {
		return nil, xerrors.Errorf("failed to sign: %v", err)
	}

	mgr.nonce++

	return tx, nil
}

// Sync implements txn.Manager.
func (mgr *TransactionManager) Sync() error {
	nonce, err := mgr.client.GetNonce(mgr.signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("client: %v", err)
	}

	mgr.nonce = nonce

	ticket.Logger.Debug().Uint64("nonce", nonce).Msg("manager synchronized")

	return nil
}
