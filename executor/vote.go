package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

// VoteHandler records vote additions and removals. Each asset entry is a
// delegate public key prefixed with "+" (cast) or "-" (withdraw).
type VoteHandler struct {
	accounts store.AccountStore
}

// votes carry no tentative balance effect beyond the fee
func (h *VoteHandler) ApplyUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	return nil
}

func (h *VoteHandler) UndoUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	return nil
}

func (h *VoteHandler) ApplyAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	if tx.Asset == nil {
		return fmt.Errorf("vote %s has no asset", tx.ID)
	}
	for _, vote := range tx.Asset.Votes {
		op, key, err := splitVote(vote)
		if err != nil {
			return fmt.Errorf("vote %s: %w", tx.ID, err)
		}
		if op == "+" {
			err = h.accounts.AddVote(ctx, dbtx, sender.Address, key)
		} else {
			err = h.accounts.RemoveVote(ctx, dbtx, sender.Address, key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *VoteHandler) UndoAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	if tx.Asset == nil {
		return fmt.Errorf("vote %s has no asset", tx.ID)
	}
	// reverse order, inverted operations
	for i := len(tx.Asset.Votes) - 1; i >= 0; i-- {
		op, key, err := splitVote(tx.Asset.Votes[i])
		if err != nil {
			return fmt.Errorf("vote %s: %w", tx.ID, err)
		}
		if op == "+" {
			err = h.accounts.RemoveVote(ctx, dbtx, sender.Address, key)
		} else {
			err = h.accounts.AddVote(ctx, dbtx, sender.Address, key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func splitVote(vote string) (op string, key string, err error) {
	if len(vote) < 2 || (!strings.HasPrefix(vote, "+") && !strings.HasPrefix(vote, "-")) {
		return "", "", fmt.Errorf("malformed vote entry %q", vote)
	}
	return vote[:1], vote[1:], nil
}
