package types

import (
	"github.com/holiman/uint256"
)

// Account is the ledger view of a public key. Balance is the confirmed
// balance after all committed blocks; UBalance is the unconfirmed balance,
// confirmed minus the pending effects of pool transactions.
type Account struct {
	Address    string       `json:"address"`
	PublicKey  string       `json:"public_key"`
	Balance    *uint256.Int `json:"balance"`
	UBalance   *uint256.Int `json:"u_balance"`
	Username   string       `json:"username,omitempty"`
	IsDelegate bool         `json:"is_delegate"`
	Votes      []string     `json:"votes,omitempty"` // delegate public keys voted for
}

// TxStatus records the outcome of a transaction once its block committed
type TxStatus string

const (
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusReverted  TxStatus = "reverted"
)

// TransactionMeta is the confirmation metadata kept alongside the ledger for
// lookup by transaction id. It lives outside the SQL atomic boundary.
type TransactionMeta struct {
	TxID    string   `json:"tx_id"`
	BlockID string   `json:"block_id"`
	Height  uint64   `json:"height"`
	Status  TxStatus `json:"status"`
}
