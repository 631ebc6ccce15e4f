package mempool

import (
	"context"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sephra1/lisk-sdk/common"
	"github.com/Sephra1/lisk-sdk/executor"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

var (
	poolSenderPub  = strings.Repeat("aa", 32)
	poolGenesisPub = strings.Repeat("ee", 32)
)

// ----------------- Helpers -----------------

func newTestPool(t *testing.T, balance uint64, maxSize int) (*Pool, *store.MemoryAccountStore) {
	t.Helper()
	ctx := context.Background()
	accounts := store.NewMemoryAccountStore()
	sender, err := accounts.SetAccountAndGet(ctx, nil, poolSenderPub)
	require.NoError(t, err)
	require.NoError(t, accounts.CreditBalance(ctx, nil, sender.Address, uint256.NewInt(balance)))
	require.NoError(t, accounts.CreditUnconfirmed(ctx, nil, sender.Address, uint256.NewInt(balance)))

	exec := executor.NewExecutor(accounts, poolGenesisPub)
	return NewPool(exec, accounts, maxSize), accounts
}

func poolTx(t *testing.T, id string, amount uint64) *types.Transaction {
	t.Helper()
	recipient, err := common.AddressFromPublicKey(strings.Repeat("bb", 32))
	require.NoError(t, err)
	return &types.Transaction{
		ID:               id,
		Type:             types.TxTypeTransfer,
		SenderPublicKey:  poolSenderPub,
		RecipientAddress: recipient,
		Amount:           uint256.NewInt(amount),
		Fee:              uint256.NewInt(0),
		Timestamp:        1000,
	}
}

func senderUnconfirmed(t *testing.T, accounts *store.MemoryAccountStore) *uint256.Int {
	t.Helper()
	acc, err := accounts.GetAccount(context.Background(), nil, poolSenderPub)
	require.NoError(t, err)
	return acc.UBalance
}

// ----------------- Tests -----------------

func TestReceiveTransactionsAppliesUnconfirmed(t *testing.T) {
	pool, accounts := newTestPool(t, 100, 0)
	ctx := context.Background()

	errs := pool.ReceiveTransactions(ctx, []*types.Transaction{poolTx(t, "tx-1", 30)})
	require.Empty(t, errs)

	assert.True(t, pool.Has("tx-1"))
	assert.Equal(t, 1, pool.Count())
	assert.Equal(t, uint256.NewInt(70), senderUnconfirmed(t, accounts))
}

func TestReceiveDuplicateIgnored(t *testing.T) {
	pool, accounts := newTestPool(t, 100, 0)
	ctx := context.Background()

	tx := poolTx(t, "tx-dup", 30)
	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{tx}))
	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{tx}))

	assert.Equal(t, 1, pool.Count())
	// the unconfirmed effect is applied once
	assert.Equal(t, uint256.NewInt(70), senderUnconfirmed(t, accounts))
}

func TestReceiveRejectsWhenFull(t *testing.T) {
	pool, _ := newTestPool(t, 100, 1)
	ctx := context.Background()

	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{poolTx(t, "tx-1", 10)}))
	errs := pool.ReceiveTransactions(ctx, []*types.Transaction{poolTx(t, "tx-2", 10)})
	require.Len(t, errs, 1)
	assert.Equal(t, 1, pool.Count())
	assert.False(t, pool.Has("tx-2"))
}

func TestReceiveRejectsOverspend(t *testing.T) {
	pool, accounts := newTestPool(t, 100, 0)
	ctx := context.Background()

	errs := pool.ReceiveTransactions(ctx, []*types.Transaction{
		poolTx(t, "tx-1", 80),
		poolTx(t, "tx-2", 80), // only 20 unconfirmed left
	})
	require.Len(t, errs, 1)
	assert.True(t, pool.Has("tx-1"))
	assert.False(t, pool.Has("tx-2"))
	assert.Equal(t, uint256.NewInt(20), senderUnconfirmed(t, accounts))
}

func TestUndoUnconfirmedListRestoresBalances(t *testing.T) {
	pool, accounts := newTestPool(t, 100, 0)
	ctx := context.Background()

	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{
		poolTx(t, "tx-1", 30),
		poolTx(t, "tx-2", 40),
	}))

	ids, err := pool.UndoUnconfirmedList(ctx)
	require.NoError(t, err)
	// newest first
	assert.Equal(t, []string{"tx-2", "tx-1"}, ids)
	assert.Equal(t, uint256.NewInt(100), senderUnconfirmed(t, accounts))
	// the transactions stay buffered
	assert.Equal(t, 2, pool.Count())
}

func TestReapplyDropsStaleTransactions(t *testing.T) {
	pool, accounts := newTestPool(t, 100, 0)
	ctx := context.Background()

	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{poolTx(t, "tx-stale", 80)}))

	_, err := pool.UndoUnconfirmedList(ctx)
	require.NoError(t, err)

	// a committed block spent most of the sender's funds in the meantime
	sender, err := accounts.GetAccount(ctx, nil, poolSenderPub)
	require.NoError(t, err)
	require.NoError(t, accounts.DebitBalance(ctx, nil, sender.Address, uint256.NewInt(50)))
	require.NoError(t, accounts.DebitUnconfirmed(ctx, nil, sender.Address, uint256.NewInt(50)))

	errs := pool.ReapplyUnconfirmedList(ctx)
	require.Len(t, errs, 1)
	assert.False(t, pool.Has("tx-stale"))
	assert.Equal(t, 0, pool.Count())
	assert.Equal(t, uint256.NewInt(50), senderUnconfirmed(t, accounts))
}

func TestRemoveUnconfirmedTransaction(t *testing.T) {
	pool, accounts := newTestPool(t, 100, 0)
	ctx := context.Background()

	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{
		poolTx(t, "tx-1", 30),
		poolTx(t, "tx-2", 40),
	}))

	pool.RemoveUnconfirmedTransaction("tx-1")
	assert.False(t, pool.Has("tx-1"))
	assert.Equal(t, []string{"tx-2"}, pool.UnconfirmedIDs())
	// removal does not undo the unconfirmed effect
	assert.Equal(t, uint256.NewInt(30), senderUnconfirmed(t, accounts))

	// removing an unknown id is a no-op
	pool.RemoveUnconfirmedTransaction("tx-unknown")
	assert.Equal(t, 1, pool.Count())
}

func TestComputesMissingTransactionID(t *testing.T) {
	pool, _ := newTestPool(t, 100, 0)
	ctx := context.Background()

	tx := poolTx(t, "", 10)
	require.Empty(t, pool.ReceiveTransactions(ctx, []*types.Transaction{tx}))
	require.NotEmpty(t, tx.ID)
	assert.True(t, pool.Has(tx.ID))
}

func TestReceiveFuzzedAmountsKeepsLedgerConsistent(t *testing.T) {
	pool, accounts := newTestPool(t, 1_000_000, 0)
	ctx := context.Background()

	f := fuzz.NewWithSeed(42)
	accepted := uint256.NewInt(0)
	for i := 0; i < 200; i++ {
		var raw uint64
		f.Fuzz(&raw)
		amount := raw % 20_000
		tx := poolTx(t, "", amount)
		tx.Timestamp = uint64(i) // distinct ids for equal amounts
		tx.ID = tx.ComputeID()
		if pool.Has(tx.ID) {
			continue
		}
		if errs := pool.ReceiveTransactions(ctx, []*types.Transaction{tx}); len(errs) == 0 {
			accepted.Add(accepted, uint256.NewInt(amount))
		}
	}

	// every accepted spend is reflected in the tentative view, nothing else
	want := new(uint256.Int).Sub(uint256.NewInt(1_000_000), accepted)
	assert.Equal(t, want, senderUnconfirmed(t, accounts))

	ids, err := pool.UndoUnconfirmedList(ctx)
	require.NoError(t, err)
	assert.Equal(t, pool.Count(), len(ids))
	assert.Equal(t, uint256.NewInt(1_000_000), senderUnconfirmed(t, accounts))
}
