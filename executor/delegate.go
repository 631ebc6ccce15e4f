package executor

import (
	"context"
	"fmt"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

// DelegateHandler registers the sender as a forging delegate
type DelegateHandler struct {
	accounts store.AccountStore
}

// registration carries no tentative balance effect beyond the fee
func (h *DelegateHandler) ApplyUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	return nil
}

func (h *DelegateHandler) UndoUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	return nil
}

func (h *DelegateHandler) ApplyAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	if tx.Asset == nil || tx.Asset.Username == "" {
		return fmt.Errorf("delegate registration %s has no username", tx.ID)
	}
	return h.accounts.SetDelegate(ctx, dbtx, sender.Address, tx.Asset.Username)
}

func (h *DelegateHandler) UndoAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	return h.accounts.UnsetDelegate(ctx, dbtx, sender.Address)
}
