package config

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Sephra1/lisk-sdk/types"
	"github.com/Sephra1/lisk-sdk/utils"
)

// BuildGenesisBlock materializes the genesis block from its configuration.
// Block and transaction ids are derived, never configured.
func BuildGenesisBlock(cfg *GenesisConfig) (*types.Block, error) {
	block := &types.Block{
		Height:             1,
		Timestamp:          cfg.Timestamp,
		GeneratorPublicKey: cfg.GeneratorPublicKey,
		BlockSignature:     cfg.BlockSignature,
		Reward:             uint256.NewInt(0),
	}

	for i, gtx := range cfg.Transactions {
		tx, err := buildGenesisTransaction(cfg, gtx)
		if err != nil {
			return nil, fmt.Errorf("genesis transaction %d: %w", i, err)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	block.NumberOfTransactions = uint32(len(block.Transactions))

	block.ID = block.ComputeID()
	for _, tx := range block.Transactions {
		tx.BlockID = block.ID
	}
	return block, nil
}

func buildGenesisTransaction(cfg *GenesisConfig, gtx GenesisTransaction) (*types.Transaction, error) {
	sender := gtx.SenderPublicKey
	if sender == "" {
		sender = cfg.GeneratorPublicKey
	}

	tx := &types.Transaction{
		Type:             types.TxType(gtx.Type),
		SenderPublicKey:  sender,
		RecipientAddress: gtx.RecipientAddress,
		Amount:           utils.Uint256FromString(gtx.Amount),
		Fee:              utils.Uint256FromString(gtx.Fee),
		Timestamp:        cfg.Timestamp,
	}

	switch tx.Type {
	case types.TxTypeTransfer:
		if tx.RecipientAddress == "" {
			return nil, fmt.Errorf("transfer requires recipient_address")
		}
	case types.TxTypeDelegate:
		if gtx.Username == "" {
			return nil, fmt.Errorf("delegate registration requires username")
		}
		tx.Asset = &types.Asset{Username: gtx.Username}
	case types.TxTypeVote:
		if len(gtx.Votes) == 0 {
			return nil, fmt.Errorf("vote requires votes")
		}
		tx.Asset = &types.Asset{Votes: gtx.Votes}
	default:
		return nil, fmt.Errorf("unsupported genesis transaction type %d", gtx.Type)
	}

	tx.ID = tx.ComputeID()
	return tx, nil
}
