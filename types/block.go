package types

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"

	"github.com/holiman/uint256"
)

// Block is a finalized unit of state change. Once received from the network
// or loaded from storage it is treated as immutable; the transaction order is
// authoritative and preserved on apply, reversed on undo.
type Block struct {
	ID                   string         `json:"id"`
	Height               uint64         `json:"height"` // genesis = 1
	PreviousBlock        string         `json:"previous_block,omitempty"`
	Timestamp            uint64         `json:"timestamp"`
	GeneratorPublicKey   string         `json:"generator_public_key"`
	BlockSignature       string         `json:"block_signature,omitempty"`
	HeightPrevious       uint32         `json:"height_previous"`
	HeightPrevoted       uint32         `json:"height_prevoted"`
	NumberOfTransactions uint32         `json:"number_of_transactions"`
	PayloadLength        uint32         `json:"payload_length"`
	Reward               *uint256.Int   `json:"reward"`
	Transactions         []*Transaction `json:"transactions"`
}

// TotalFee sums the fees of the block's transactions
func (b *Block) TotalFee() *uint256.Int {
	total := new(uint256.Int)
	for _, tx := range b.Transactions {
		if tx.Fee != nil {
			total.Add(total, tx.Fee)
		}
	}
	return total
}

func (b *Block) computeHash() [32]byte {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, b.Height)
	h.Write(buf)
	h.Write([]byte(b.PreviousBlock))
	h.Write([]byte(b.GeneratorPublicKey))
	binary.BigEndian.PutUint64(buf, b.Timestamp)
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, uint64(b.HeightPrevious))
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, uint64(b.HeightPrevoted))
	h.Write(buf)
	for _, tx := range b.Transactions {
		h.Write(tx.Serialize())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ComputeID derives the block id from the first 8 bytes of the hash over the
// header fields and the serialized transactions, rendered as a decimal string.
func (b *Block) ComputeID() string {
	hash := b.computeHash()
	return strconv.FormatUint(binary.BigEndian.Uint64(hash[:8]), 10)
}

// ReducedBlock is the broadcast form of a block: the header without the
// transaction payload, the reward and the payload length. Peers re-request
// transactions they miss.
type ReducedBlock struct {
	ID                   string `json:"id"`
	Height               uint64 `json:"height"`
	PreviousBlock        string `json:"previous_block,omitempty"`
	Timestamp            uint64 `json:"timestamp"`
	GeneratorPublicKey   string `json:"generator_public_key"`
	BlockSignature       string `json:"block_signature,omitempty"`
	HeightPrevious       uint32 `json:"height_previous"`
	HeightPrevoted       uint32 `json:"height_prevoted"`
	NumberOfTransactions uint32 `json:"number_of_transactions"`
}

// Reduced strips the transaction payload for outbound broadcast
func (b *Block) Reduced() *ReducedBlock {
	return &ReducedBlock{
		ID:                   b.ID,
		Height:               b.Height,
		PreviousBlock:        b.PreviousBlock,
		Timestamp:            b.Timestamp,
		GeneratorPublicKey:   b.GeneratorPublicKey,
		BlockSignature:       b.BlockSignature,
		HeightPrevious:       b.HeightPrevious,
		HeightPrevoted:       b.HeightPrevoted,
		NumberOfTransactions: b.NumberOfTransactions,
	}
}
