package executor

import (
	"context"
	"fmt"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

// TransferHandler moves funds to the recipient. The sender side is handled
// by the Executor; the unconfirmed apply credits the recipient's tentative
// balance so a later transaction in the same block can already spend it, and
// the confirmed apply settles the durable balance.
type TransferHandler struct {
	accounts store.AccountStore
}

func (h *TransferHandler) ApplyUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	if tx.RecipientAddress == "" {
		return fmt.Errorf("transfer %s has no recipient", tx.ID)
	}
	if err := h.accounts.EnsureAccountByAddress(ctx, dbtx, tx.RecipientAddress); err != nil {
		return err
	}
	return h.accounts.CreditUnconfirmed(ctx, dbtx, tx.RecipientAddress, tx.Amount)
}

func (h *TransferHandler) UndoUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	return h.accounts.DebitUnconfirmed(ctx, dbtx, tx.RecipientAddress, tx.Amount)
}

func (h *TransferHandler) ApplyAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	if tx.RecipientAddress == "" {
		return fmt.Errorf("transfer %s has no recipient", tx.ID)
	}
	return h.accounts.CreditBalance(ctx, dbtx, tx.RecipientAddress, tx.Amount)
}

func (h *TransferHandler) UndoAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	return h.accounts.DebitBalance(ctx, dbtx, tx.RecipientAddress, tx.Amount)
}
