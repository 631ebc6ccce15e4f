package events

import (
	"time"

	"github.com/Sephra1/lisk-sdk/types"
)

// Topic is an enum-like string type for chain bus topics
type Topic string

const (
	TopicNewBlock          Topic = "newBlock"
	TopicBroadcastBlock    Topic = "broadcastBlock"
	TopicTransactionsSaved Topic = "transactionsSaved"
)

// ChainEvent represents any cross-component notification on the bus
type ChainEvent interface {
	Topic() Topic
	Timestamp() time.Time
}

// NewBlock is emitted after a block commits and the tip advances
type NewBlock struct {
	block     *types.Block
	timestamp time.Time
}

func NewNewBlock(block *types.Block) *NewBlock {
	return &NewBlock{
		block:     block,
		timestamp: time.Now(),
	}
}

func (e *NewBlock) Topic() Topic {
	return TopicNewBlock
}

func (e *NewBlock) Timestamp() time.Time {
	return e.timestamp
}

func (e *NewBlock) Block() *types.Block {
	return e.block
}

// BroadcastBlock instructs the peer-networking collaborator to relay the
// reduced block
type BroadcastBlock struct {
	block     *types.ReducedBlock
	broadcast bool
	timestamp time.Time
}

func NewBroadcastBlock(block *types.ReducedBlock, broadcast bool) *BroadcastBlock {
	return &BroadcastBlock{
		block:     block,
		broadcast: broadcast,
		timestamp: time.Now(),
	}
}

func (e *BroadcastBlock) Topic() Topic {
	return TopicBroadcastBlock
}

func (e *BroadcastBlock) Timestamp() time.Time {
	return e.timestamp
}

func (e *BroadcastBlock) Block() *types.ReducedBlock {
	return e.block
}

func (e *BroadcastBlock) Broadcast() bool {
	return e.broadcast
}

// TransactionsSaved is emitted after transaction rows reach durable storage
type TransactionsSaved struct {
	transactions []*types.Transaction
	timestamp    time.Time
}

func NewTransactionsSaved(transactions []*types.Transaction) *TransactionsSaved {
	return &TransactionsSaved{
		transactions: transactions,
		timestamp:    time.Now(),
	}
}

func (e *TransactionsSaved) Topic() Topic {
	return TopicTransactionsSaved
}

func (e *TransactionsSaved) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionsSaved) Transactions() []*types.Transaction {
	return e.transactions
}
