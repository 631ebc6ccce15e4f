package rounds

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/logx"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
	"github.com/Sephra1/lisk-sdk/utils"
)

// ErrSnapshotComplete signals that the configured snapshot round has been
// reached. It is an orderly termination signal, not a failure: the chain
// rolls back the in-flight block and returns this error to its own caller.
var ErrSnapshotComplete = errors.New("snapshot complete")

// Controller maintains delegate bookkeeping at round boundaries. Both tick
// directions run inside the same persistence transaction as the block write
// or delete that triggered them.
type Controller struct {
	accounts store.AccountStore

	// delegatesPerRound fixes the round length in blocks
	delegatesPerRound uint64

	// snapshotRound stops the node once the round after it is entered;
	// 0 disables snapshot mode
	snapshotRound uint64
}

func NewController(accounts store.AccountStore, delegatesPerRound, snapshotRound uint64) (*Controller, error) {
	if delegatesPerRound == 0 {
		return nil, fmt.Errorf("delegatesPerRound must be positive")
	}
	return &Controller{
		accounts:          accounts,
		delegatesPerRound: delegatesPerRound,
		snapshotRound:     snapshotRound,
	}, nil
}

// CalcRound returns the 1-based round the height belongs to
func (c *Controller) CalcRound(height uint64) uint64 {
	return (height + c.delegatesPerRound - 1) / c.delegatesPerRound
}

// isRoundEnd reports whether the height is the last block of its round
func (c *Controller) isRoundEnd(height uint64) bool {
	return height%c.delegatesPerRound == 0
}

// Tick records the block's fees and reward for its round and, when the block
// closes the round, distributes the accumulated earnings to the generators.
func (c *Controller) Tick(ctx context.Context, dbtx db.Tx, block *types.Block) error {
	round := c.CalcRound(block.Height)

	if c.snapshotRound > 0 && round > c.snapshotRound {
		logx.Info("ROUNDS", fmt.Sprintf("Snapshot round %d reached at height %d", c.snapshotRound, block.Height))
		return ErrSnapshotComplete
	}

	_, err := dbtx.ExecContext(ctx,
		`INSERT INTO round_changes (round, height, generator_public_key, fees, reward)
		 VALUES ($1, $2, $3, $4, $5)`,
		round, block.Height, block.GeneratorPublicKey,
		utils.Uint256ToString(block.TotalFee()), utils.Uint256ToString(block.Reward))
	if err != nil {
		return fmt.Errorf("failed to record round change at height %d: %w", block.Height, err)
	}

	if !c.isRoundEnd(block.Height) {
		return nil
	}

	earnings, err := c.roundEarnings(ctx, dbtx, round)
	if err != nil {
		return err
	}
	for _, e := range earnings {
		acc, err := c.accounts.SetAccountAndGet(ctx, dbtx, e.generator)
		if err != nil {
			return fmt.Errorf("failed to resolve generator %s: %w", e.generator, err)
		}
		if err := c.accounts.CreditBalance(ctx, dbtx, acc.Address, e.total); err != nil {
			return fmt.Errorf("failed to credit round %d earnings: %w", round, err)
		}
		if err := c.accounts.CreditUnconfirmed(ctx, dbtx, acc.Address, e.total); err != nil {
			return fmt.Errorf("failed to credit round %d earnings: %w", round, err)
		}
	}
	logx.Info("ROUNDS", fmt.Sprintf("Round %d closed at height %d, %d generators credited", round, block.Height, len(earnings)))
	return nil
}

// BackwardTick reverses Tick for the old tip while walking one block
// backwards onto newTip.
func (c *Controller) BackwardTick(ctx context.Context, dbtx db.Tx, oldTip, newTip *types.Block) error {
	round := c.CalcRound(oldTip.Height)

	// un-crossing a round boundary takes the distributed earnings back first
	if c.isRoundEnd(oldTip.Height) {
		earnings, err := c.roundEarnings(ctx, dbtx, round)
		if err != nil {
			return err
		}
		for _, e := range earnings {
			acc, err := c.accounts.GetAccount(ctx, dbtx, e.generator)
			if err != nil {
				return fmt.Errorf("failed to resolve generator %s: %w", e.generator, err)
			}
			if err := c.accounts.DebitBalance(ctx, dbtx, acc.Address, e.total); err != nil {
				return fmt.Errorf("failed to revert round %d earnings: %w", round, err)
			}
			if err := c.accounts.DebitUnconfirmed(ctx, dbtx, acc.Address, e.total); err != nil {
				return fmt.Errorf("failed to revert round %d earnings: %w", round, err)
			}
		}
		logx.Info("ROUNDS", fmt.Sprintf("Round %d reopened at height %d", round, oldTip.Height))
	}

	_, err := dbtx.ExecContext(ctx,
		`DELETE FROM round_changes WHERE round = $1 AND height = $2`, round, oldTip.Height)
	if err != nil {
		return fmt.Errorf("failed to delete round change at height %d: %w", oldTip.Height, err)
	}
	return nil
}

type roundEarning struct {
	generator string
	total     *uint256.Int
}

// roundEarnings aggregates fees+rewards per generator for the round
func (c *Controller) roundEarnings(ctx context.Context, dbtx db.Tx, round uint64) ([]roundEarning, error) {
	rows, err := dbtx.QueryContext(ctx,
		`SELECT generator_public_key, SUM(fees + reward)
		 FROM round_changes WHERE round = $1
		 GROUP BY generator_public_key
		 ORDER BY generator_public_key`, round)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate round %d: %w", round, err)
	}
	defer rows.Close()

	earnings := make([]roundEarning, 0)
	for rows.Next() {
		var (
			generator string
			total     string
		)
		if err := rows.Scan(&generator, &total); err != nil {
			return nil, err
		}
		earnings = append(earnings, roundEarning{
			generator: generator,
			total:     utils.Uint256FromString(total),
		})
	}
	return earnings, rows.Err()
}
