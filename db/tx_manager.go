package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Sephra1/lisk-sdk/logx"
)

// Tx is the handle every write inside a persistence transaction receives.
// *sql.Tx satisfies it; tests substitute fakes.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxManager opens persistence transactions for atomic multi-store writes.
type TxManager interface {
	WithTx(ctx context.Context, name string, fn func(dbtx Tx) error) error
}

// SQLTxManager implements TxManager on a *sql.DB
type SQLTxManager struct {
	db *sql.DB
}

// NewTxManager creates a transaction manager over the given database
func NewTxManager(pg *Postgres) *SQLTxManager {
	return &SQLTxManager{db: pg.DB}
}

// WithTx executes the given function within a database transaction.
// If the function returns nil, the transaction is committed; otherwise it is
// rolled back and the error propagates.
func (tm *SQLTxManager) WithTx(ctx context.Context, name string, fn func(dbtx Tx) error) error {
	sqlTx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx %s: %w", name, err)
	}

	if err := fn(sqlTx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logx.Error("TX_MANAGER", "Failed to rollback tx ", name, ": ", rbErr)
		}
		return fmt.Errorf("tx %s failed: %w", name, err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit of tx %s failed: %w", name, err)
	}

	return nil
}
