package types

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/Sephra1/lisk-sdk/jsonx"
)

// TxType enumerates the supported transaction kinds
type TxType int32

const (
	TxTypeTransfer TxType = 0
	TxTypeDelegate TxType = 2
	TxTypeVote     TxType = 3
)

// Asset carries the type-specific payload of a transaction. Only the field
// matching the transaction's type is set.
type Asset struct {
	// Delegate username for TxTypeDelegate
	Username string `json:"username,omitempty"`
	// Vote list for TxTypeVote; each entry is "+<delegatePublicKey>" or
	// "-<delegatePublicKey>"
	Votes []string `json:"votes,omitempty"`
}

type Transaction struct {
	ID               string       `json:"id"`
	Type             TxType       `json:"type"`
	SenderPublicKey  string       `json:"sender_public_key"`
	RecipientAddress string       `json:"recipient_address,omitempty"`
	Amount           *uint256.Int `json:"amount"`
	Fee              *uint256.Int `json:"fee"`
	Timestamp        uint64       `json:"timestamp"`
	BlockID          string       `json:"block_id,omitempty"` // assigned when embedded in a block
	Signature        string       `json:"signature,omitempty"`
	Asset            *Asset       `json:"asset,omitempty"`
}

// Serialize returns the canonical byte form used for hashing. Signature and
// BlockID are excluded so the id is stable across embedding.
func (tx *Transaction) Serialize() []byte {
	amountStr := uint256ToString(tx.Amount)
	feeStr := uint256ToString(tx.Fee)
	metadata := fmt.Sprintf(
		"%d|%s|%s|%s|%s|%d|%s",
		tx.Type, tx.SenderPublicKey, tx.RecipientAddress, amountStr, feeStr, tx.Timestamp, tx.assetString(),
	)
	return []byte(metadata)
}

func (tx *Transaction) assetString() string {
	if tx.Asset == nil {
		return ""
	}
	b, _ := jsonx.Marshal(tx.Asset)
	return string(b)
}

func (tx *Transaction) Bytes() []byte {
	b, _ := jsonx.Marshal(tx)
	return b
}

// ComputeID derives the transaction id from the first 8 bytes of the
// serialized payload's SHA-256 digest, rendered as a decimal string.
func (tx *Transaction) ComputeID() string {
	sum256 := sha256.Sum256(tx.Serialize())
	return strconv.FormatUint(binary.BigEndian.Uint64(sum256[:8]), 10)
}

// IsVote reports whether the transaction is a vote transaction. Genesis
// replay sorts votes after every other type.
func (tx *Transaction) IsVote() bool {
	return tx.Type == TxTypeVote
}

// TotalSpend returns amount + fee, the unconfirmed debit of the sender
func (tx *Transaction) TotalSpend() *uint256.Int {
	total := new(uint256.Int)
	if tx.Amount != nil {
		total.Add(total, tx.Amount)
	}
	if tx.Fee != nil {
		total.Add(total, tx.Fee)
	}
	return total
}

// uint256ToString converts a *uint256.Int to string, returning "0" if nil
func uint256ToString(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.Dec()
}
