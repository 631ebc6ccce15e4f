package chain

import (
	"fmt"

	"github.com/Sephra1/lisk-sdk/rounds"
)

// ErrSnapshotComplete is the orderly termination signal from the rounds
// controller in snapshot mode. Re-exported so embedders only need the chain
// package to classify outcomes.
var ErrSnapshotComplete = rounds.ErrSnapshotComplete

// ValidationError reports a violated precondition: wrong height, wrong
// parent, or a genesis delete attempt. Recoverable; the caller may submit a
// different block.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ErrCannotDeleteGenesis rejects deleteLastBlock at height 1
var ErrCannotDeleteGenesis = &ValidationError{Reason: "cannot delete genesis block"}

// TransactionApplyError reports that a transaction's effect could not be
// committed. The persistence transaction rolls back; the caller may
// re-request a different block.
type TransactionApplyError struct {
	TxID string
	Err  error
}

func (e *TransactionApplyError) Error() string {
	return fmt.Sprintf("failed to apply transaction %s: %v", e.TxID, e.Err)
}

func (e *TransactionApplyError) Unwrap() error {
	return e.Err
}

// StorageError reports a persistence-layer I/O failure. The transaction
// rolls back; the caller may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConsistencyFatal reports that in-memory tables have diverged from storage:
// an undo step failed, a parent load failed, or a round tick failed after a
// partial write. The node cannot continue; the embedding process must map
// this to shutdown.
type ConsistencyFatal struct {
	Step string
	Err  error
}

func (e *ConsistencyFatal) Error() string {
	return fmt.Sprintf("consistency lost in %s: %v", e.Step, e.Err)
}

func (e *ConsistencyFatal) Unwrap() error {
	return e.Err
}
