package serial

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/ticket/core/account"
	"go.dedis.ch/ticket/core/execution"
	"go.dedis.ch/ticket/core/store"
	"go.dedis.ch/ticket/core/store/kv"
	"go.dedis.ch/ticket/core/txn"
	"go.dedis.ch/ticket/core/txn/signed"
	"go.dedis.ch/ticket/crypto"
	"go.dedis.ch/ticket/crypto/ed25519"
	"go.dedis.ch/ticket/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestService_Genesis(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{})

	alice := account.Address{1}
	bob := account.Address{2}

	err := srvc.Genesis(map[account.Address]uint64{alice: 10, bob: 20})
	require.NoError(t, err)

	balance, err := srvc.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)

	balance, err = srvc.Balance(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(20), balance)

	err = srvc.Genesis(map[account.Address]uint64{alice: 10})
	require.True(t, xerrors.Is(err, ErrGenesisDone))

	balance, err = srvc.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)
}

func TestService_Balance_Empty(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{})

	balance, err := srvc.Balance(account.Address{1})
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)
}

func TestService_Apply(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{accepted: true})

	signer := ed25519.NewSigner()

	accepted := testutil.ToFloat64(promTxs.WithLabelValues(resultAccepted))

	nonce, err := srvc.GetNonce(signer.GetPublicKey())
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)

	res, err := srvc.Apply(context.Background(), makeTx(t, signer, 0))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	nonce, err = srvc.GetNonce(signer.GetPublicKey())
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)

	require.Equal(t, accepted+1, testutil.ToFloat64(promTxs.WithLabelValues(resultAccepted)))
	require.Equal(t, float64(1), testutil.ToFloat64(promIndex))

	require.Equal(t, []byte("written"), readKey(t, srvc, "exec"))

	res, err = srvc.Apply(context.Background(), makeTx(t, signer, 1))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	require.Equal(t, float64(2), testutil.ToFloat64(promIndex))
}

func TestService_Apply_Rejected(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{})

	signer := ed25519.NewSigner()

	rejected := testutil.ToFloat64(promTxs.WithLabelValues(resultRejected))

	res, err := srvc.Apply(context.Background(), makeTx(t, signer, 0))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "oops", res.Message)

	// Nothing written by the execution is committed.
	require.Nil(t, readKey(t, srvc, "exec"))

	nonce, err := srvc.GetNonce(signer.GetPublicKey())
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)

	require.Equal(t, rejected+1, testutil.ToFloat64(promTxs.WithLabelValues(resultRejected)))
}

func TestService_Apply_InvalidNonce(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{accepted: true})

	signer := ed25519.NewSigner()

	_, err := srvc.Apply(context.Background(), makeTx(t, signer, 1))
	require.True(t, xerrors.Is(err, ErrInvalidNonce))
	require.EqualError(t, err, "transaction not admitted: expected 0 but got 1: invalid nonce")

	_, err = srvc.Apply(context.Background(), makeTx(t, signer, 0))
	require.NoError(t, err)

	// Replaying the same transaction is refused.
	_, err = srvc.Apply(context.Background(), makeTx(t, signer, 0))
	require.True(t, xerrors.Is(err, ErrInvalidNonce))
}

func TestService_Apply_InvalidSignature(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{accepted: true})

	refused := testutil.ToFloat64(promTxs.WithLabelValues(resultRefused))

	tx, err := signed.NewTransaction(0, ed25519.NewSigner().GetPublicKey())
	require.NoError(t, err)

	_, err = srvc.Apply(context.Background(), tx)
	require.True(t, xerrors.Is(err, ErrInvalidSignature))
	require.EqualError(t, err, "missing signature: invalid signature")

	_, err = srvc.Apply(context.Background(), unsignedTx{Transaction: tx})
	require.EqualError(t, err, "unsigned transaction: invalid signature")

	require.Equal(t, refused+2, testutil.ToFloat64(promTxs.WithLabelValues(resultRefused)))
}

func TestService_Apply_Canceled(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{accepted: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srvc.Apply(ctx, makeTx(t, ed25519.NewSigner(), 0))
	require.True(t, xerrors.Is(err, context.Canceled))
}

func TestService_Apply_ExecutionFailure(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{err: fake.GetError()})

	_, err := srvc.Apply(context.Background(), makeTx(t, ed25519.NewSigner(), 0))
	require.EqualError(t, err, fake.Err("transaction not admitted: failed to execute tx"))

	require.Nil(t, readKey(t, srvc, "exec"))
}

func TestService_Watch(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{accepted: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := srvc.Watch(ctx)

	signer := ed25519.NewSigner()
	tx := makeTx(t, signer, 0)

	_, err := srvc.Apply(context.Background(), tx)
	require.NoError(t, err)

	evt := <-events
	require.Equal(t, uint64(1), evt.Index)
	require.Equal(t, tx.GetID(), evt.TransactionID)
	require.True(t, evt.Result.Accepted)

	srvc.exec = fakeExec{}

	_, err = srvc.Apply(context.Background(), makeTx(t, signer, 1))
	require.NoError(t, err)

	evt = <-events
	require.Equal(t, uint64(0), evt.Index)
	require.False(t, evt.Result.Accepted)
}

func TestService_Watch_Cancel(t *testing.T) {
	srvc := NewService(openDB(t), fakeExec{accepted: true})

	ctx, cancel := context.WithCancel(context.Background())
	events := srvc.Watch(ctx)

	cancel()

	_, open := <-events
	require.False(t, open)

	_, err := srvc.Apply(context.Background(), makeTx(t, ed25519.NewSigner(), 0))
	require.NoError(t, err)
}

func TestService_View_Closed(t *testing.T) {
	db := openDB(t)
	srvc := NewService(db, fakeExec{})

	require.NoError(t, db.Close())

	_, err := srvc.Balance(account.Address{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to view: ")
}

// -----------------------------------------------------------------------------
// Utility functions

func openDB(t *testing.T) kv.DB {
	db, err := kv.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}

func makeTx(t *testing.T, signer crypto.Signer, nonce uint64) txn.Transaction {
	tx, err := signed.NewTransaction(nonce, signer.GetPublicKey(),
		signed.WithArg("key", []byte("value")))
	require.NoError(t, err)

	require.NoError(t, tx.Sign(signer))

	return tx
}

func readKey(t *testing.T, srvc *Service, key string) []byte {
	var value []byte

	err := srvc.View(func(r store.Readable) error {
		var err error
		value, err = r.Get([]byte(key))

		return err
	})
	require.NoError(t, err)

	return value
}

type fakeExec struct {
	accepted bool
	err      error
}

func (e fakeExec) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	if e.err != nil {
		return execution.Result{}, e.err
	}

	err := snap.Set([]byte("exec"), []byte("written"))
	if err != nil {
		return execution.Result{}, err
	}

	if !e.accepted {
		return execution.Result{Message: "oops", Err: xerrors.New("oops")}, nil
	}

	return execution.Result{Accepted: true}, nil
}

type unsignedTx struct {
	txn.Transaction
}
