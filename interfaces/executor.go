package interfaces

import (
	"context"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/types"
)

// TransactionExecutor applies / undoes a single transaction against the
// account store, in unconfirmed and confirmed modes
type TransactionExecutor interface {
	ApplyUnconfirmed(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error
	Apply(ctx context.Context, dbtx db.Tx, tx *types.Transaction, block *types.Block, sender *types.Account) error
	UndoUnconfirmed(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error
	Undo(ctx context.Context, dbtx db.Tx, tx *types.Transaction, block *types.Block, sender *types.Account) error
}
