package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/events"
	"github.com/Sephra1/lisk-sdk/interfaces"
	"github.com/Sephra1/lisk-sdk/logx"
	"github.com/Sephra1/lisk-sdk/monitoring"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

// Deps is the construction-time dependency record of the chain mutator.
// Every collaborator is injected here; nothing is looked up late.
type Deps struct {
	Blocks    store.BlockStore
	Accounts  store.AccountStore
	TxMeta    store.TxMetaStore
	Executor  interfaces.TransactionExecutor
	Pool      interfaces.TransactionPool
	Rounds    interfaces.RoundController
	TxManager db.TxManager
	Bus       *events.Bus
	Genesis   *types.Block
}

// Chain orchestrates block apply/undo sequences. It is the only component
// that sequences persistent writes: at most one of saveGenesisBlock,
// applyGenesisBlock, applyBlock, deleteLastBlock runs at any instant,
// serialized by mu. isActive is the observable assertion of that exclusion,
// never its implementation.
type Chain struct {
	deps Deps

	mu        sync.Mutex
	isActive  atomic.Bool
	lastBlock lastBlockRegister
}

func New(deps Deps) (*Chain, error) {
	if deps.Blocks == nil || deps.Accounts == nil || deps.Executor == nil ||
		deps.Pool == nil || deps.Rounds == nil || deps.TxManager == nil ||
		deps.Bus == nil || deps.Genesis == nil {
		return nil, fmt.Errorf("chain dependencies are incomplete")
	}
	return &Chain{deps: deps}, nil
}

// LastBlock returns the current tip. Callers outside the mutator are
// read-only consumers.
func (c *Chain) LastBlock() *types.Block {
	return c.lastBlock.Get()
}

// IsActive reports whether a block application is in flight. Readers use it
// to refuse work that would race.
func (c *Chain) IsActive() bool {
	return c.isActive.Load()
}

// LoadLastBlock initializes the last-block register from storage
func (c *Chain) LoadLastBlock(ctx context.Context) error {
	block, err := c.deps.Blocks.LoadLastBlock(ctx)
	if err != nil {
		return &StorageError{Op: "loadLastBlock", Err: err}
	}
	if block == nil {
		return fmt.Errorf("storage holds no blocks; bootstrap with saveGenesisBlock first")
	}
	c.lastBlock.Set(block)
	monitoring.SetBlockHeight(block.Height)
	return nil
}

// SaveGenesisBlock is the idempotent bootstrap: when the genesis block is
// already persisted it succeeds as a no-op, otherwise it writes the genesis
// header and transactions in one persistence transaction.
func (c *Chain) SaveGenesisBlock(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	genesis := c.deps.Genesis
	exists, err := c.deps.Blocks.ExistsByID(ctx, nil, genesis.ID)
	if err != nil {
		return &StorageError{Op: "saveGenesisBlock", Err: err}
	}
	if exists {
		logx.Info("CHAIN", "Genesis block already persisted, id ", genesis.ID)
		return nil
	}

	err = c.deps.TxManager.WithTx(ctx, "chain:saveGenesisBlock", func(dbtx db.Tx) error {
		return c.deps.Blocks.SaveBlock(ctx, dbtx, genesis)
	})
	if err != nil {
		return &StorageError{Op: "saveGenesisBlock", Err: err}
	}
	logx.Info("CHAIN", "Genesis block persisted, id ", genesis.ID)
	return nil
}

// ApplyGenesisBlock replays the genesis transactions against a clean account
// store. Votes are applied after every other type, preserving relative order
// within each group. Any failure here is unrecoverable: the returned
// ConsistencyFatal tells the supervisor to halt.
func (c *Chain) ApplyGenesisBlock(ctx context.Context, block *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := sortGenesisTransactions(block.Transactions)

	err := c.deps.TxManager.WithTx(ctx, "chain:applyGenesisBlock", func(dbtx db.Tx) error {
		for _, tx := range sorted {
			sender, err := c.deps.Accounts.SetAccountAndGet(ctx, dbtx, tx.SenderPublicKey)
			if err != nil {
				return fmt.Errorf("genesis sender of tx %s: %w", tx.ID, err)
			}
			if err := c.deps.Executor.ApplyUnconfirmed(ctx, dbtx, tx, sender); err != nil {
				return err
			}
			if err := c.deps.Executor.Apply(ctx, dbtx, tx, block, sender); err != nil {
				return err
			}
		}
		return c.deps.Rounds.Tick(ctx, dbtx, block)
	})
	if err != nil {
		return &ConsistencyFatal{Step: "applyGenesisBlock", Err: err}
	}

	c.lastBlock.Set(block)
	monitoring.SetBlockHeight(block.Height)
	logx.Info("CHAIN", "Genesis block applied, height ", block.Height)
	return nil
}

// sortGenesisTransactions partitions votes after every other type, keeping
// relative order within each group
func sortGenesisTransactions(txs []*types.Transaction) []*types.Transaction {
	sorted := make([]*types.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsVote() {
			sorted = append(sorted, tx)
		}
	}
	for _, tx := range txs {
		if tx.IsVote() {
			sorted = append(sorted, tx)
		}
	}
	return sorted
}

// ApplyBlock atomically advances the chain by one height. saveBlock is false
// only during fast resync, when blocks arrive pre-persisted.
//
// The pool's unconfirmed effects are rolled back first, outside the
// persistence transaction; everything from the first balance write to the
// round tick commits or rolls back together. The last-block register moves
// only after commit.
func (c *Chain) ApplyBlock(ctx context.Context, block *types.Block, saveBlock bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isActive.Load() {
		return &ValidationError{Reason: "another block application is in flight"}
	}
	last := c.lastBlock.Get()
	if last == nil {
		return &ValidationError{Reason: "chain has no tip; bootstrap first"}
	}
	if block.Height != last.Height+1 {
		return &ValidationError{Reason: fmt.Sprintf("expected height %d, got %d", last.Height+1, block.Height)}
	}
	if block.PreviousBlock != last.ID {
		return &ValidationError{Reason: fmt.Sprintf("expected previous block %s, got %s", last.ID, block.PreviousBlock)}
	}

	if _, err := c.deps.Pool.UndoUnconfirmedList(ctx); err != nil {
		// the unconfirmed view has diverged from the account store
		return &ConsistencyFatal{Step: "undoUnconfirmedList", Err: err}
	}

	c.isActive.Store(true)

	err := c.deps.TxManager.WithTx(ctx, "chain:applyBlock", func(dbtx db.Tx) error {
		for _, tx := range block.Transactions {
			sender, err := c.deps.Accounts.SetAccountAndGet(ctx, dbtx, tx.SenderPublicKey)
			if err != nil {
				return &TransactionApplyError{TxID: tx.ID, Err: err}
			}
			if err := c.deps.Executor.ApplyUnconfirmed(ctx, dbtx, tx, sender); err != nil {
				return &TransactionApplyError{TxID: tx.ID, Err: err}
			}
		}
		for _, tx := range block.Transactions {
			sender, err := c.deps.Accounts.SetAccountAndGet(ctx, dbtx, tx.SenderPublicKey)
			if err != nil {
				return &TransactionApplyError{TxID: tx.ID, Err: err}
			}
			if err := c.deps.Executor.Apply(ctx, dbtx, tx, block, sender); err != nil {
				return &TransactionApplyError{TxID: tx.ID, Err: err}
			}
		}
		if saveBlock {
			if err := c.deps.Blocks.SaveBlock(ctx, dbtx, block); err != nil {
				return &StorageError{Op: "saveBlock", Err: err}
			}
		}
		return c.deps.Rounds.Tick(ctx, dbtx, block)
	})
	if err != nil {
		c.isActive.Store(false)
		if errors.Is(err, ErrSnapshotComplete) {
			logx.Info("CHAIN", "Snapshot finished at height ", last.Height)
			return ErrSnapshotComplete
		}
		c.reapplyPool(ctx)
		return err
	}

	for _, tx := range block.Transactions {
		c.deps.Pool.RemoveUnconfirmedTransaction(tx.ID)
	}
	c.lastBlock.Set(block)
	c.isActive.Store(false)
	c.reapplyPool(ctx)

	monitoring.SetBlockHeight(block.Height)
	monitoring.IncreaseBlocksApplied(len(block.Transactions))
	c.recordTxMetas(block, types.TxStatusConfirmed)

	c.deps.Bus.Publish(events.NewNewBlock(block))
	if saveBlock && len(block.Transactions) > 0 {
		c.deps.Bus.Publish(events.NewTransactionsSaved(block.Transactions))
	}
	logx.Info("CHAIN", fmt.Sprintf("Applied block %s at height %d (%d txs)", block.ID, block.Height, len(block.Transactions)))
	return nil
}

// reapplyPool restores the unconfirmed effects of the transactions still in
// the pool after a block application settled either way
func (c *Chain) reapplyPool(ctx context.Context) {
	for _, err := range c.deps.Pool.ReapplyUnconfirmedList(ctx) {
		logx.Warn("CHAIN", "Dropped pool transaction on reapply: ", err.Error())
	}
}

// DeleteLastBlock removes the tip, restoring account balances and round
// bookkeeping, and returns the undone transactions to the pool. Genesis may
// never be deleted. Any failure inside the persistence transaction leaves
// memory and storage diverged and is fatal.
func (c *Chain) DeleteLastBlock(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastBlock.Get()
	if last == nil {
		return &ValidationError{Reason: "chain has no tip; bootstrap first"}
	}
	if last.Height <= 1 {
		return ErrCannotDeleteGenesis
	}

	var parent *types.Block
	err := c.deps.TxManager.WithTx(ctx, "chain:deleteLastBlock", func(dbtx db.Tx) error {
		p, err := c.deps.Blocks.GetByID(ctx, dbtx, last.PreviousBlock)
		if err != nil {
			return &ConsistencyFatal{Step: "loadParent", Err: err}
		}
		if p == nil {
			return &ConsistencyFatal{Step: "loadParent", Err: fmt.Errorf("parent block %s missing", last.PreviousBlock)}
		}
		parent = p

		for i := len(last.Transactions) - 1; i >= 0; i-- {
			tx := last.Transactions[i]
			sender, err := c.deps.Accounts.GetAccount(ctx, dbtx, tx.SenderPublicKey)
			if err != nil {
				return &ConsistencyFatal{Step: "undoTransactions", Err: err}
			}
			if err := c.deps.Executor.Undo(ctx, dbtx, tx, last, sender); err != nil {
				return &ConsistencyFatal{Step: "undoTransactions", Err: err}
			}
			if err := c.deps.Executor.UndoUnconfirmed(ctx, dbtx, tx); err != nil {
				return &ConsistencyFatal{Step: "undoTransactions", Err: err}
			}
		}

		if err := c.deps.Rounds.BackwardTick(ctx, dbtx, last, parent); err != nil {
			return &ConsistencyFatal{Step: "backwardTick", Err: err}
		}
		if err := c.deps.Blocks.DeleteBlock(ctx, dbtx, last.ID); err != nil {
			return &ConsistencyFatal{Step: "deleteBlock", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.lastBlock.Set(parent)

	// reinsert outside the persistence transaction, newest first
	reversed := make([]*types.Transaction, 0, len(last.Transactions))
	for i := len(last.Transactions) - 1; i >= 0; i-- {
		tx := last.Transactions[i]
		tx.BlockID = ""
		reversed = append(reversed, tx)
	}
	if len(reversed) > 0 {
		for _, rerr := range c.deps.Pool.ReceiveTransactions(ctx, reversed) {
			logx.Warn("CHAIN", "Could not return transaction to pool: ", rerr.Error())
		}
	}

	monitoring.SetBlockHeight(parent.Height)
	monitoring.IncreaseBlocksReverted()
	c.recordTxMetas(last, types.TxStatusReverted)

	logx.Info("CHAIN", fmt.Sprintf("Deleted block %s, tip back at height %d", last.ID, parent.Height))
	return nil
}

// RecoverChain deletes the tip as remediation after a failed consistency
// check (fork detection)
func (c *Chain) RecoverChain(ctx context.Context) error {
	logx.Warn("CHAIN", "Chain comparison failed, starting recovery")
	if err := c.DeleteLastBlock(ctx); err != nil {
		logx.Error("CHAIN", "Recovery failed: ", err.Error())
		return err
	}
	logx.Info("CHAIN", "Recovery complete, new tip height ", c.lastBlock.Get().Height)
	return nil
}

// BroadcastReducedBlock emits the broadcastBlock bus message the peer
// networking collaborator subscribes to. The core's only outbound
// networking touchpoint.
func (c *Chain) BroadcastReducedBlock(block *types.Block, broadcast bool) {
	c.deps.Bus.Publish(events.NewBroadcastBlock(block.Reduced(), broadcast))
}

func (c *Chain) recordTxMetas(block *types.Block, status types.TxStatus) {
	if c.deps.TxMeta == nil || len(block.Transactions) == 0 {
		return
	}
	metas := make([]*types.TransactionMeta, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		metas = append(metas, &types.TransactionMeta{
			TxID:    tx.ID,
			BlockID: block.ID,
			Height:  block.Height,
			Status:  status,
		})
	}
	if err := c.deps.TxMeta.StoreBatch(metas); err != nil {
		logx.Error("CHAIN", "Failed to record tx metas: ", err.Error())
	}
}
