package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/types"
	"github.com/Sephra1/lisk-sdk/utils"
)

// BlockStore persists blocks and their transactions. Write operations take
// the active persistence transaction handle; read operations accept one too
// and fall back to the base connection when given nil.
type BlockStore interface {
	SaveBlock(ctx context.Context, dbtx db.Tx, b *types.Block) error
	DeleteBlock(ctx context.Context, dbtx db.Tx, id string) error
	GetByID(ctx context.Context, dbtx db.Tx, id string) (*types.Block, error)
	GetByHeight(ctx context.Context, dbtx db.Tx, height uint64) (*types.Block, error)
	ExistsByID(ctx context.Context, dbtx db.Tx, id string) (bool, error)
	LoadLastBlock(ctx context.Context) (*types.Block, error)
	MaxHeight(ctx context.Context) (uint64, error)
}

// SQLBlockStore is the PostgreSQL implementation of BlockStore
type SQLBlockStore struct {
	base *sql.DB
}

// NewSQLBlockStore creates a block store over the given postgres backend
func NewSQLBlockStore(pg *db.Postgres) (*SQLBlockStore, error) {
	if pg == nil {
		return nil, fmt.Errorf("postgres backend cannot be nil")
	}
	return &SQLBlockStore{base: pg.DB}, nil
}

func (s *SQLBlockStore) querier(dbtx db.Tx) db.Tx {
	if dbtx != nil {
		return dbtx
	}
	return s.base
}

// SaveBlock writes the block row and all transaction rows. It must run
// inside a persistence transaction so the block and its transactions commit
// together.
func (s *SQLBlockStore) SaveBlock(ctx context.Context, dbtx db.Tx, b *types.Block) error {
	q := s.querier(dbtx)

	var prev interface{}
	if b.PreviousBlock != "" {
		prev = b.PreviousBlock
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO blocks (id, height, previous_block_id, timestamp, generator_public_key,
			block_signature, height_previous, height_prevoted, number_of_transactions, payload_length, reward)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Height, prev, b.Timestamp, b.GeneratorPublicKey,
		b.BlockSignature, b.HeightPrevious, b.HeightPrevoted, len(b.Transactions), b.PayloadLength,
		utils.Uint256ToString(b.Reward))
	if err != nil {
		return fmt.Errorf("failed to insert block %s: %w", b.ID, err)
	}

	for i, tx := range b.Transactions {
		var asset interface{}
		if tx.Asset != nil {
			raw, err := marshalAsset(tx.Asset)
			if err != nil {
				return fmt.Errorf("failed to marshal asset of tx %s: %w", tx.ID, err)
			}
			asset = raw
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO transactions (id, block_id, row_index, type, sender_public_key,
				recipient_address, amount, fee, timestamp, signature, asset)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			tx.ID, b.ID, i, tx.Type, tx.SenderPublicKey,
			tx.RecipientAddress, utils.Uint256ToString(tx.Amount), utils.Uint256ToString(tx.Fee),
			tx.Timestamp, tx.Signature, asset)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s of block %s: %w", tx.ID, b.ID, err)
		}
	}

	return nil
}

// DeleteBlock removes the block row; transaction rows cascade per schema
func (s *SQLBlockStore) DeleteBlock(ctx context.Context, dbtx db.Tx, id string) error {
	res, err := s.querier(dbtx).ExecContext(ctx, `DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete block %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result for block %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("block %s does not exist", id)
	}
	return nil
}

// GetByID loads a block together with its transactions in row order, nil
// when absent
func (s *SQLBlockStore) GetByID(ctx context.Context, dbtx db.Tx, id string) (*types.Block, error) {
	q := s.querier(dbtx)

	row := q.QueryRowContext(ctx,
		`SELECT id, height, previous_block_id, timestamp, generator_public_key,
			block_signature, height_previous, height_prevoted, number_of_transactions, payload_length, reward
		 FROM blocks WHERE id = $1`, id)

	b, err := scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load block %s: %w", id, err)
	}

	if err := s.loadTransactions(ctx, q, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByHeight loads the block at the given height with its transactions,
// nil when absent
func (s *SQLBlockStore) GetByHeight(ctx context.Context, dbtx db.Tx, height uint64) (*types.Block, error) {
	q := s.querier(dbtx)

	row := q.QueryRowContext(ctx,
		`SELECT id, height, previous_block_id, timestamp, generator_public_key,
			block_signature, height_previous, height_prevoted, number_of_transactions, payload_length, reward
		 FROM blocks WHERE height = $1`, height)

	b, err := scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load block at height %d: %w", height, err)
	}

	if err := s.loadTransactions(ctx, q, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ExistsByID checks presence of a block id
func (s *SQLBlockStore) ExistsByID(ctx context.Context, dbtx db.Tx, id string) (bool, error) {
	var exists bool
	err := s.querier(dbtx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blocks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check block %s: %w", id, err)
	}
	return exists, nil
}

// LoadLastBlock returns the block of greatest height with its transactions
func (s *SQLBlockStore) LoadLastBlock(ctx context.Context) (*types.Block, error) {
	row := s.base.QueryRowContext(ctx,
		`SELECT id, height, previous_block_id, timestamp, generator_public_key,
			block_signature, height_previous, height_prevoted, number_of_transactions, payload_length, reward
		 FROM blocks ORDER BY height DESC LIMIT 1`)

	b, err := scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load last block: %w", err)
	}

	if err := s.loadTransactions(ctx, s.base, b); err != nil {
		return nil, err
	}
	return b, nil
}

// MaxHeight returns the greatest persisted height, 0 for empty storage
func (s *SQLBlockStore) MaxHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.base.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(height), 0) FROM blocks`).Scan(&height)
	if err != nil {
		return 0, fmt.Errorf("failed to read max height: %w", err)
	}
	return height, nil
}

func (s *SQLBlockStore) loadTransactions(ctx context.Context, q db.Tx, b *types.Block) error {
	rows, err := q.QueryContext(ctx,
		`SELECT id, type, sender_public_key, recipient_address, amount, fee, timestamp, signature, asset
		 FROM transactions WHERE block_id = $1 ORDER BY row_index ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("failed to load transactions of block %s: %w", b.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return fmt.Errorf("failed to scan transaction of block %s: %w", b.ID, err)
		}
		tx.BlockID = b.ID
		b.Transactions = append(b.Transactions, tx)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*types.Block, error) {
	var (
		b      types.Block
		prev   sql.NullString
		sig    sql.NullString
		reward string
	)
	err := row.Scan(&b.ID, &b.Height, &prev, &b.Timestamp, &b.GeneratorPublicKey,
		&sig, &b.HeightPrevious, &b.HeightPrevoted, &b.NumberOfTransactions, &b.PayloadLength, &reward)
	if err != nil {
		return nil, err
	}
	b.PreviousBlock = prev.String
	b.BlockSignature = sig.String
	b.Reward = utils.Uint256FromString(reward)
	return &b, nil
}

func scanTransaction(row rowScanner) (*types.Transaction, error) {
	var (
		tx        types.Transaction
		recipient sql.NullString
		amount    string
		fee       string
		sig       sql.NullString
		asset     sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.Type, &tx.SenderPublicKey, &recipient, &amount, &fee,
		&tx.Timestamp, &sig, &asset)
	if err != nil {
		return nil, err
	}
	tx.RecipientAddress = recipient.String
	tx.Amount = utils.Uint256FromString(amount)
	tx.Fee = utils.Uint256FromString(fee)
	tx.Signature = sig.String
	if asset.Valid && asset.String != "" {
		parsed, err := unmarshalAsset(asset.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse asset of tx %s: %w", tx.ID, err)
		}
		tx.Asset = parsed
	}
	return &tx, nil
}
