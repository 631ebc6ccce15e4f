package store

import (
	"fmt"
	"sync"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/jsonx"
	"github.com/Sephra1/lisk-sdk/logx"
	"github.com/Sephra1/lisk-sdk/types"
)

// TxMetaStore keeps per-transaction confirmation metadata for lookup by id.
// It is written after the persistence transaction commits and is advisory:
// the SQL tables remain the source of truth.
type TxMetaStore interface {
	StoreBatch(metas []*types.TransactionMeta) error
	GetByTxID(txID string) (*types.TransactionMeta, error)
	DeleteBatch(txIDs []string) error
	MustClose()
}

// GenericTxMetaStore is a database-agnostic implementation over DatabaseProvider
type GenericTxMetaStore struct {
	mu         sync.RWMutex
	dbProvider db.DatabaseProvider
}

// NewGenericTxMetaStore creates a tx meta store with the given provider
func NewGenericTxMetaStore(dbProvider db.DatabaseProvider) (*GenericTxMetaStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &GenericTxMetaStore{dbProvider: dbProvider}, nil
}

// StoreBatch writes the given metadata entries atomically
func (ts *GenericTxMetaStore) StoreBatch(metas []*types.TransactionMeta) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	batch := ts.dbProvider.Batch()
	defer batch.Close()

	for _, meta := range metas {
		data, err := jsonx.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to marshal tx meta %s: %w", meta.TxID, err)
		}
		batch.Put(ts.getDbKey(meta.TxID), data)
	}

	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write batch of tx metas: %w", err)
	}
	return nil
}

// GetByTxID returns metadata for the transaction id, nil when unknown
func (ts *GenericTxMetaStore) GetByTxID(txID string) (*types.TransactionMeta, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	data, err := ts.dbProvider.Get(ts.getDbKey(txID))
	if err != nil {
		return nil, fmt.Errorf("could not get tx meta %s: %w", txID, err)
	}
	if data == nil {
		return nil, nil
	}

	var meta types.TransactionMeta
	if err := jsonx.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tx meta %s: %w", txID, err)
	}
	return &meta, nil
}

// DeleteBatch removes metadata for the given transaction ids
func (ts *GenericTxMetaStore) DeleteBatch(txIDs []string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	batch := ts.dbProvider.Batch()
	defer batch.Close()

	for _, id := range txIDs {
		batch.Delete(ts.getDbKey(id))
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to delete batch of tx metas: %w", err)
	}
	return nil
}

// MustClose closes the underlying database provider
func (ts *GenericTxMetaStore) MustClose() {
	if err := ts.dbProvider.Close(); err != nil {
		logx.Error("TX_META_STORE", "Failed to close db provider:", err.Error())
	}
}

func (ts *GenericTxMetaStore) getDbKey(txID string) []byte {
	return []byte(PrefixTxMeta + txID)
}
