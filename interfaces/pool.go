package interfaces

import (
	"context"

	"github.com/Sephra1/lisk-sdk/types"
)

// TransactionPool buffers unconfirmed transactions. The chain core rolls the
// pool's unconfirmed effects back before applying a block and reinserts
// transactions when a block is removed.
type TransactionPool interface {
	// ReceiveTransactions verifies and buffers transactions, applying their
	// unconfirmed effects; per-transaction failures are returned, not fatal
	ReceiveTransactions(ctx context.Context, txs []*types.Transaction) []error
	// UndoUnconfirmedList rolls back every pending transaction's unconfirmed
	// effect and returns the affected ids
	UndoUnconfirmedList(ctx context.Context) ([]string, error)
	// ReapplyUnconfirmedList re-applies the unconfirmed effects of the
	// remaining pool transactions; transactions that no longer apply are
	// dropped
	ReapplyUnconfirmedList(ctx context.Context) []error
	// RemoveUnconfirmedTransaction drops a transaction from the unconfirmed
	// set without undoing its effect
	RemoveUnconfirmedTransaction(id string)
	Has(id string) bool
	Count() int
}
