package store

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/types"
)

func newMockBlockStore(t *testing.T) (*SQLBlockStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	s, err := NewSQLBlockStore(&db.Postgres{DB: mockDB})
	require.NoError(t, err)
	return s, mock, func() { mockDB.Close() }
}

func blockColumns() []string {
	return []string{"id", "height", "previous_block_id", "timestamp", "generator_public_key",
		"block_signature", "height_previous", "height_prevoted", "number_of_transactions",
		"payload_length", "reward"}
}

func txColumns() []string {
	return []string{"id", "type", "sender_public_key", "recipient_address", "amount", "fee",
		"timestamp", "signature", "asset"}
}

func sampleBlock() *types.Block {
	tx := &types.Transaction{
		ID:               "tx-1",
		Type:             types.TxTypeTransfer,
		SenderPublicKey:  strings.Repeat("aa", 32),
		RecipientAddress: "addr-recipient",
		Amount:           uint256.NewInt(2500000000),
		Fee:              uint256.NewInt(10000000),
		Timestamp:        1010,
	}
	return &types.Block{
		ID:                   "block-2",
		Height:               2,
		PreviousBlock:        "block-1",
		Timestamp:            1010,
		GeneratorPublicKey:   strings.Repeat("dd", 32),
		Reward:               uint256.NewInt(500000000),
		NumberOfTransactions: 1,
		Transactions:         []*types.Transaction{tx},
	}
}

func TestSaveBlockWritesBlockAndTransactions(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	b := sampleBlock()

	mock.ExpectExec("INSERT INTO blocks").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveBlock(context.Background(), nil, b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBlockMissingRow(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectExec("DELETE FROM blocks").
		WithArgs("block-unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteBlock(context.Background(), nil, "block-unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestGetByIDLoadsTransactionsInRowOrder(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, height, previous_block_id").
		WithArgs("block-2").
		WillReturnRows(sqlmock.NewRows(blockColumns()).
			AddRow("block-2", uint64(2), "block-1", uint64(1010), strings.Repeat("dd", 32),
				nil, uint32(0), uint32(0), uint32(2), uint32(0), "500000000"))
	mock.ExpectQuery("SELECT id, type, sender_public_key").
		WithArgs("block-2").
		WillReturnRows(sqlmock.NewRows(txColumns()).
			AddRow("tx-1", int32(0), strings.Repeat("aa", 32), "addr-1", "10", "1", uint64(1010), nil, nil).
			AddRow("tx-2", int32(3), strings.Repeat("bb", 32), nil, "0", "1", uint64(1010), nil, `{"votes":["+dd"]}`))

	b, err := s.GetByID(context.Background(), nil, "block-2")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, uint64(2), b.Height)
	assert.Equal(t, "block-1", b.PreviousBlock)
	assert.Equal(t, uint256.NewInt(500000000), b.Reward)

	require.Len(t, b.Transactions, 2)
	assert.Equal(t, "tx-1", b.Transactions[0].ID)
	assert.Equal(t, "tx-2", b.Transactions[1].ID)
	assert.Equal(t, "block-2", b.Transactions[0].BlockID)
	require.NotNil(t, b.Transactions[1].Asset)
	assert.Equal(t, []string{"+dd"}, b.Transactions[1].Asset.Votes)
}

func TestGetByIDAbsent(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, height, previous_block_id").
		WithArgs("block-unknown").
		WillReturnRows(sqlmock.NewRows(blockColumns()))

	b, err := s.GetByID(context.Background(), nil, "block-unknown")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestGetByHeightAbsent(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, height, previous_block_id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(blockColumns()))

	b, err := s.GetByHeight(context.Background(), nil, 42)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestExistsByID(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("block-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.ExistsByID(context.Background(), nil, "block-2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMaxHeightEmptyStorage(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(uint64(0)))

	height, err := s.MaxHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)
}

func TestLoadLastBlock(t *testing.T) {
	s, mock, done := newMockBlockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, height, previous_block_id").
		WillReturnRows(sqlmock.NewRows(blockColumns()).
			AddRow("block-9", uint64(9), "block-8", uint64(2000), strings.Repeat("dd", 32),
				nil, uint32(0), uint32(0), uint32(0), uint32(0), "0"))
	mock.ExpectQuery("SELECT id, type, sender_public_key").
		WithArgs("block-9").
		WillReturnRows(sqlmock.NewRows(txColumns()))

	b, err := s.LoadLastBlock(context.Background())
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, uint64(9), b.Height)
	assert.Empty(t, b.Transactions)
}
