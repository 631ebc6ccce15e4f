package mempool

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sephra1/lisk-sdk/interfaces"
	"github.com/Sephra1/lisk-sdk/logx"
	"github.com/Sephra1/lisk-sdk/monitoring"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

// Pool buffers unconfirmed transactions in arrival order. Every transaction
// held by the pool has had its unconfirmed effect applied against the
// account store, except transiently while the chain core rolls them back
// around a block application.
type Pool struct {
	mu       sync.Mutex
	executor interfaces.TransactionExecutor
	accounts store.AccountStore

	unconfirmed map[string]*types.Transaction
	order       []string
	maxSize     int
}

// NewPool creates an empty pool. maxSize bounds the unconfirmed set; 0 means
// unbounded.
func NewPool(executor interfaces.TransactionExecutor, accounts store.AccountStore, maxSize int) *Pool {
	return &Pool{
		executor:    executor,
		accounts:    accounts,
		unconfirmed: make(map[string]*types.Transaction),
		order:       make([]string, 0),
		maxSize:     maxSize,
	}
}

// ReceiveTransactions buffers transactions and applies their unconfirmed
// effects. Failures are collected per transaction; a failed transaction is
// not added.
func (p *Pool) ReceiveTransactions(ctx context.Context, txs []*types.Transaction) []error {
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]error, 0)
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = tx.ComputeID()
		}
		if _, exists := p.unconfirmed[tx.ID]; exists {
			continue
		}
		if p.maxSize > 0 && len(p.order) >= p.maxSize {
			errs = append(errs, fmt.Errorf("pool is full, rejecting tx %s", tx.ID))
			continue
		}

		sender, err := p.accounts.SetAccountAndGet(ctx, nil, tx.SenderPublicKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("could not resolve sender of tx %s: %w", tx.ID, err))
			continue
		}
		if err := p.executor.ApplyUnconfirmed(ctx, nil, tx, sender); err != nil {
			logx.Warn("MEMPOOL", fmt.Sprintf("Rejecting tx %s: %v", tx.ID, err))
			errs = append(errs, err)
			continue
		}

		p.unconfirmed[tx.ID] = tx
		p.order = append(p.order, tx.ID)
	}

	monitoring.SetPoolSize(len(p.order))
	return errs
}

// UndoUnconfirmedList rolls back the unconfirmed effect of every pending
// transaction, newest first, and returns the affected ids. A failure leaves
// the in-memory view inconsistent with the account store; the caller must
// treat it as fatal.
func (p *Pool) UndoUnconfirmedList(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.order))
	for i := len(p.order) - 1; i >= 0; i-- {
		id := p.order[i]
		tx := p.unconfirmed[id]
		if err := p.executor.UndoUnconfirmed(ctx, nil, tx); err != nil {
			return ids, fmt.Errorf("failed to undo unconfirmed tx %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReapplyUnconfirmedList re-applies the unconfirmed effects of the remaining
// pool transactions in arrival order. Transactions that no longer apply
// (their sender spent the funds in a committed block) are dropped.
func (p *Pool) ReapplyUnconfirmedList(ctx context.Context) []error {
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]error, 0)
	kept := p.order[:0]
	for _, id := range p.order {
		tx := p.unconfirmed[id]
		sender, err := p.accounts.SetAccountAndGet(ctx, nil, tx.SenderPublicKey)
		if err == nil {
			err = p.executor.ApplyUnconfirmed(ctx, nil, tx, sender)
		}
		if err != nil {
			logx.Warn("MEMPOOL", fmt.Sprintf("Dropping tx %s on reapply: %v", id, err))
			delete(p.unconfirmed, id)
			errs = append(errs, err)
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept

	monitoring.SetPoolSize(len(p.order))
	return errs
}

// RemoveUnconfirmedTransaction drops a transaction without undoing its
// effect. Used after a block commit, when the effect has become confirmed
// state.
func (p *Pool) RemoveUnconfirmedTransaction(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.unconfirmed[id]; !exists {
		return
	}
	delete(p.unconfirmed, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}

	monitoring.SetPoolSize(len(p.order))
}

// Has reports whether the transaction id is in the unconfirmed set
func (p *Pool) Has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.unconfirmed[id]
	return exists
}

// Get returns the buffered transaction, nil when absent
func (p *Pool) Get(id string) *types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unconfirmed[id]
}

// Count returns the number of unconfirmed transactions
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// UnconfirmedIDs returns the buffered transaction ids in arrival order
func (p *Pool) UnconfirmedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.order))
	copy(ids, p.order)
	return ids
}
