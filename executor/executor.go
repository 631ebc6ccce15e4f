package executor

import (
	"context"
	"fmt"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/store"
	"github.com/Sephra1/lisk-sdk/types"
)

// TypeHandler applies and undoes the type-specific state of a transaction.
// Balance debits of the sender are handled by the Executor itself; handlers
// own everything beyond that (recipient credit, votes, delegate rows).
//
// The unconfirmed hooks mutate only the tentative balance view, so that a
// transaction later in the same block can spend what an earlier one sent.
type TypeHandler interface {
	ApplyUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error
	UndoUnconfirmedAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error
	ApplyAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error
	UndoAsset(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error
}

// Executor applies and undoes single transactions against the account store,
// in both unconfirmed and confirmed modes. Within a block, confirmed effects
// run only after every transaction's unconfirmed effect has succeeded; undo
// reverses per transaction, confirmed first.
type Executor struct {
	accounts store.AccountStore
	handlers map[types.TxType]TypeHandler

	// genesisPublicKey is exempt from sender balance checks so the genesis
	// block can seed the initial supply
	genesisPublicKey string
}

func NewExecutor(accounts store.AccountStore, genesisPublicKey string) *Executor {
	e := &Executor{
		accounts:         accounts,
		handlers:         make(map[types.TxType]TypeHandler),
		genesisPublicKey: genesisPublicKey,
	}
	e.handlers[types.TxTypeTransfer] = &TransferHandler{accounts: accounts}
	e.handlers[types.TxTypeDelegate] = &DelegateHandler{accounts: accounts}
	e.handlers[types.TxTypeVote] = &VoteHandler{accounts: accounts}
	return e
}

func (e *Executor) handler(t types.TxType) (TypeHandler, error) {
	h, ok := e.handlers[t]
	if !ok {
		return nil, fmt.Errorf("unknown transaction type %d", t)
	}
	return h, nil
}

func (e *Executor) isGenesisSender(tx *types.Transaction) bool {
	return e.genesisPublicKey != "" && tx.SenderPublicKey == e.genesisPublicKey
}

// ApplyUnconfirmed records the transaction's effect against the tentative
// balance view: the sender's unconfirmed balance is debited and the handler
// credits whatever the transaction tentatively produces
func (e *Executor) ApplyUnconfirmed(ctx context.Context, dbtx db.Tx, tx *types.Transaction, sender *types.Account) error {
	h, err := e.handler(tx.Type)
	if err != nil {
		return err
	}
	if !e.isGenesisSender(tx) {
		if err := e.accounts.DebitUnconfirmed(ctx, dbtx, sender.Address, tx.TotalSpend()); err != nil {
			return fmt.Errorf("unconfirmed apply of tx %s: %w", tx.ID, err)
		}
	}
	if err := h.ApplyUnconfirmedAsset(ctx, dbtx, tx); err != nil {
		return fmt.Errorf("unconfirmed apply of tx %s: %w", tx.ID, err)
	}
	return nil
}

// UndoUnconfirmed reverses ApplyUnconfirmed. The sender is resolved from the
// transaction itself.
func (e *Executor) UndoUnconfirmed(ctx context.Context, dbtx db.Tx, tx *types.Transaction) error {
	h, err := e.handler(tx.Type)
	if err != nil {
		return err
	}
	if err := h.UndoUnconfirmedAsset(ctx, dbtx, tx); err != nil {
		return fmt.Errorf("unconfirmed undo of tx %s: %w", tx.ID, err)
	}
	if e.isGenesisSender(tx) {
		return nil
	}
	sender, err := e.accounts.GetAccount(ctx, dbtx, tx.SenderPublicKey)
	if err != nil {
		return fmt.Errorf("unconfirmed undo of tx %s: %w", tx.ID, err)
	}
	if err := e.accounts.CreditUnconfirmed(ctx, dbtx, sender.Address, tx.TotalSpend()); err != nil {
		return fmt.Errorf("unconfirmed undo of tx %s: %w", tx.ID, err)
	}
	return nil
}

// Apply deducts the confirmed effect from the sender and writes the
// type-specific state
func (e *Executor) Apply(ctx context.Context, dbtx db.Tx, tx *types.Transaction, block *types.Block, sender *types.Account) error {
	h, err := e.handler(tx.Type)
	if err != nil {
		return err
	}
	if !e.isGenesisSender(tx) {
		if err := e.accounts.DebitBalance(ctx, dbtx, sender.Address, tx.TotalSpend()); err != nil {
			return fmt.Errorf("confirmed apply of tx %s: %w", tx.ID, err)
		}
	}
	if err := h.ApplyAsset(ctx, dbtx, tx, sender); err != nil {
		return fmt.Errorf("confirmed apply of tx %s: %w", tx.ID, err)
	}
	return nil
}

// Undo reverses Apply: the type-specific state first, then the sender's
// confirmed balance
func (e *Executor) Undo(ctx context.Context, dbtx db.Tx, tx *types.Transaction, block *types.Block, sender *types.Account) error {
	h, err := e.handler(tx.Type)
	if err != nil {
		return err
	}
	if err := h.UndoAsset(ctx, dbtx, tx, sender); err != nil {
		return fmt.Errorf("confirmed undo of tx %s: %w", tx.ID, err)
	}
	if !e.isGenesisSender(tx) {
		if err := e.accounts.CreditBalance(ctx, dbtx, sender.Address, tx.TotalSpend()); err != nil {
			return fmt.Errorf("confirmed undo of tx %s: %w", tx.ID, err)
		}
	}
	return nil
}
