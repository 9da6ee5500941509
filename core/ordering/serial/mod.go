// Package serial implements an ordering service that admits the transactions
// one at a time and applies each of them atomically to a key/value database.
//
// The order of admission is the order in which the callers acquire the writer
// lock. A transaction is either accepted and its whole effect is committed, or
// rejected and nothing is written, not even the nonce of the signer.
package serial

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/ticket"
	"go.dedis.ch/ticket/core"
	"go.dedis.ch/ticket/core/access"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/core/execution"
	"go.dedis.ch/ticket/core/ordering"
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/store/kv"
	"go.dedis.ch/ticket/core/store/prefixed"
	"go.dedis.ch/ticket/core/txn"
	"golang.org/x/xerrors"
)

const (
	nonceSpace prefixed.Namespace = "ledger:nonce"

	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultRefused  = "refused"

	watchBuffer = 100
)

var (
	bucketName = []byte("ticket:ledger")
	genesisKey = []byte("ledger:genesis")
	indexKey   = []byte("ledger:index")
)

var (
	// ErrInvalidNonce is returned when the nonce of a transaction is not the
	// next one of its signer.
	ErrInvalidNonce = xerrors.New("invalid nonce")

	// ErrInvalidSignature is returned when a transaction is not signed by its
	// identity.
	ErrInvalidSignature = xerrors.New("invalid signature")

	// ErrGenesisDone is returned when the genesis is applied a second time.
	ErrGenesisDone = xerrors.New("genesis already applied")

	errRejected = xerrors.New("transaction rejected")
)

// defines prometheus metrics
var (
	promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_ledger_transactions_total",
		Help: "total number of transactions processed by the ledger",
	}, []string{"result"})

	promIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ticket_ledger_index",
		Help: "number of transactions accepted by the ledger",
	})
)

func init() {
	ticket.PromCollectors = append(ticket.PromCollectors, promTxs, promIndex)
}

// verifiable is implemented by the transactions that carry a signature.
type verifiable interface {
	Verify() error
}

// Service is an ordering service that applies the transactions one after the
// other.
//
// - implements ordering.Service
// - implements signed.Client
type Service struct {
	sync.Mutex

	logger  zerolog.Logger
	db      kv.DB
	exec    execution.Service
	watcher *core.Watcher[ordering.Event]
}

// NewService returns a new ledger service that persists its state in the
// database and executes the transactions with the execution service.
func NewService(db kv.DB, exec execution.Service) *Service {
	return &Service{
		logger:  ticket.Logger.With().Str("service", "ledger").Logger(),
		db:      db,
		exec:    exec,
		watcher: core.NewWatcher[ordering.Event](),
	}
}

// Genesis credits the initial balances of the accounts. It can only be applied
// once in the lifetime of the database.
func (s *Service) Genesis(balances map[account.Address]uint64) error {
	s.Lock()
	defer s.Unlock()

	err := s.db.Update(func(tx kv.WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(bucketName)
		if err != nil {
			return xerrors.Errorf("failed to get bucket: %v", err)
		}

		if bucket.Get(genesisKey) != nil {
			return ErrGenesisDone
		}

		bank := account.NewBank(newSnapshot(bucket))

		for addr, amount := range balances {
			err = bank.Credit(addr, amount)
			if err != nil {
				return xerrors.Errorf("failed to credit %v: %w", addr, err)
			}
		}

		return bucket.Set(genesisKey, []byte{1})
	})

	if err != nil {
		return xerrors.Errorf("genesis failed: %w", err)
	}

	s.logger.Info().Int("accounts", len(balances)).Msg("genesis applied")

	return nil
}

// Apply implements ordering.Service. It admits the transaction when its
// signature and nonce are correct, and executes it in a single database
// transaction.
func (s *Service) Apply(ctx context.Context, tx txn.Transaction) (execution.Result, error) {
	s.Lock()
	defer s.Unlock()

	// The caller can give up while waiting for its turn.
	err := ctx.Err()
	if err != nil {
		promTxs.WithLabelValues(resultRefused).Inc()
		return execution.Result{}, xerrors.Errorf("transaction not admitted: %w", err)
	}

	signed, ok := tx.(verifiable)
	if !ok {
		promTxs.WithLabelValues(resultRefused).Inc()
		return execution.Result{}, xerrors.Errorf("unsigned transaction: %w", ErrInvalidSignature)
	}

	err = signed.Verify()
	if err != nil {
		promTxs.WithLabelValues(resultRefused).Inc()
		return execution.Result{}, xerrors.Errorf("%v: %w", err, ErrInvalidSignature)
	}

	var res execution.Result
	var index uint64

	err = s.db.Update(func(wtx kv.WritableTx) error {
		bucket, err := wtx.GetBucketOrCreate(bucketName)
		if err != nil {
			return xerrors.Errorf("failed to get bucket: %v", err)
		}

		snap := newSnapshot(bucket)

		nonce, err := readNonce(snap, tx.GetIdentity())
		if err != nil {
			return err
		}

		if tx.GetNonce() != nonce {
			return xerrors.Errorf("expected %d but got %d: %w",
				nonce, tx.GetNonce(), ErrInvalidNonce)
		}

		res, err = s.exec.Execute(snap, execution.Step{Current: tx})
		if err != nil {
			return xerrors.Errorf("failed to execute tx: %w", err)
		}

		if !res.Accepted {
			return errRejected
		}

		err = writeNonce(snap, tx.GetIdentity(), nonce+1)
		if err != nil {
			return err
		}

		index = readUint(bucket.Get(indexKey)) + 1

		// The gauge only reports indices that reached the disk.
		committed := index
		wtx.OnCommit(func() { promIndex.Set(float64(committed)) })

		return bucket.Set(indexKey, encodeUint(index))
	})

	switch {
	case xerrors.Is(err, errRejected):
		promTxs.WithLabelValues(resultRejected).Inc()

		s.logger.Info().
			Hex("tx", tx.GetID()).
			Str("reason", res.Message).
			Msg("transaction rejected")
	case err != nil:
		promTxs.WithLabelValues(resultRefused).Inc()

		return execution.Result{}, xerrors.Errorf("transaction not admitted: %w", err)
	default:
		promTxs.WithLabelValues(resultAccepted).Inc()

		s.logger.Debug().
			Hex("tx", tx.GetID()).
			Uint64("index", index).
			Msg("transaction accepted")
	}

	dropped := s.watcher.Notify(ordering.Event{
		Index:         index,
		TransactionID: tx.GetID(),
		Result:        res,
	})
	if dropped > 0 {
		s.logger.Warn().Int("watchers", dropped).Msg("watcher is full, dropping event")
	}

	return res, nil
}

// Watch implements ordering.Service. The channel is closed when the context is
// done, and misses the events sent while it is full.
func (s *Service) Watch(ctx context.Context) <-chan ordering.Event {
	return s.watcher.Subscribe(ctx, watchBuffer)
}

// GetNonce implements signed.Client. It returns the nonce expected for the
// next transaction of the identity.
func (s *Service) GetNonce(ident access.Identity) (uint64, error) {
	var nonce uint64

	err := s.View(func(r store.Readable) error {
		var err error
		nonce, err = readNonce(r, ident)

		return err
	})

	if err != nil {
		return 0, err
	}

	return nonce, nil
}

// Balance returns the balance of the account.
func (s *Service) Balance(addr account.Address) (uint64, error) {
	var balance uint64

	err := s.View(func(r store.Readable) error {
		var err error
		balance, err = account.NewReader(r).Balance(addr)

		return err
	})

	if err != nil {
		return 0, err
	}

	return balance, nil
}

// View executes the function with a read-only access to the latest committed
// state of the ledger.
func (s *Service) View(fn func(store.Readable) error) error {
	err := s.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(bucketName)
		if bucket == nil {
			return fn(emptyReadable{})
		}

		return fn(newSnapshot(bucket))
	})

	if err != nil {
		return xerrors.Errorf("failed to view: %w", err)
	}

	return nil
}

func readNonce(r store.Readable, ident access.Identity) (uint64, error) {
	key, err := ident.MarshalBinary()
	if err != nil {
		return 0, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	value, err := nonceSpace.Readable(r).Get(key)
	if err != nil {
		return 0, xerrors.Errorf("failed to read nonce: %v", err)
	}

	return readUint(value), nil
}

func writeNonce(snap store.Snapshot, ident access.Identity, nonce uint64) error {
	key, err := ident.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	err = nonceSpace.Snapshot(snap).Set(key, encodeUint(nonce))
	if err != nil {
		return xerrors.Errorf("failed to write nonce: %v", err)
	}

	return nil
}

func readUint(value []byte) uint64 {
	if len(value) != 8 {
		return 0
	}

	return binary.LittleEndian.Uint64(value)
}

func encodeUint(value uint64) []byte {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	return buffer
}
