package interfaces

import (
	"context"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/types"
)

// RoundController maintains delegate bookkeeping at round boundaries. Both
// ticks must complete inside the same persistence transaction as the block
// write or delete that triggered them; a tick failure is fatal.
type RoundController interface {
	Tick(ctx context.Context, dbtx db.Tx, block *types.Block) error
	BackwardTick(ctx context.Context, dbtx db.Tx, oldTip, newTip *types.Block) error
}
