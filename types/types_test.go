package types

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTx() *Transaction {
	return &Transaction{
		Type:             TxTypeTransfer,
		SenderPublicKey:  strings.Repeat("aa", 32),
		RecipientAddress: "addr-recipient",
		Amount:           uint256.NewInt(2500000000),
		Fee:              uint256.NewInt(10000000),
		Timestamp:        1010,
	}
}

func TestTransactionComputeIDStable(t *testing.T) {
	tx := sampleTx()
	id := tx.ComputeID()
	require.NotEmpty(t, id)
	assert.Equal(t, id, tx.ComputeID())

	// the id ignores embedding and signature
	tx.BlockID = "block-9"
	tx.Signature = "sig"
	assert.Equal(t, id, tx.ComputeID())

	// but tracks the payload
	other := sampleTx()
	other.Amount = uint256.NewInt(1)
	assert.NotEqual(t, id, other.ComputeID())
}

func TestTransactionTotalSpend(t *testing.T) {
	tx := sampleTx()
	assert.Equal(t, uint256.NewInt(2510000000), tx.TotalSpend())

	empty := &Transaction{}
	assert.True(t, empty.TotalSpend().IsZero())
}

func TestTransactionIsVote(t *testing.T) {
	assert.False(t, sampleTx().IsVote())
	vote := &Transaction{Type: TxTypeVote}
	assert.True(t, vote.IsVote())
}

func TestBlockComputeIDTracksHeader(t *testing.T) {
	b := &Block{
		Height:             2,
		PreviousBlock:      "block-1",
		Timestamp:          1010,
		GeneratorPublicKey: strings.Repeat("dd", 32),
		Reward:             uint256.NewInt(0),
	}
	id := b.ComputeID()
	require.NotEmpty(t, id)
	assert.Equal(t, id, b.ComputeID())

	b2 := *b
	b2.Height = 3
	assert.NotEqual(t, id, b2.ComputeID())

	// transactions are part of the identity
	b3 := *b
	b3.Transactions = []*Transaction{sampleTx()}
	assert.NotEqual(t, id, b3.ComputeID())
}

func TestReducedBlockDropsPayload(t *testing.T) {
	b := &Block{
		ID:                   "block-2",
		Height:               2,
		PreviousBlock:        "block-1",
		Timestamp:            1010,
		GeneratorPublicKey:   strings.Repeat("dd", 32),
		HeightPrevious:       1,
		HeightPrevoted:       1,
		NumberOfTransactions: 1,
		Reward:               uint256.NewInt(0),
		Transactions:         []*Transaction{sampleTx()},
	}

	r := b.Reduced()
	assert.Equal(t, b.ID, r.ID)
	assert.Equal(t, b.Height, r.Height)
	assert.Equal(t, b.PreviousBlock, r.PreviousBlock)
	assert.Equal(t, uint32(1), r.NumberOfTransactions)
}
