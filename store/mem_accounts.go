package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/Sephra1/lisk-sdk/common"
	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/types"
)

// MemoryAccountStore is the in-memory AccountStore used by tooling and tests
// that do not need durable accounts. It ignores the persistence transaction
// handle; callers that need atomicity use the SQL store.
type MemoryAccountStore struct {
	mu     sync.RWMutex
	byAddr map[string]*types.Account
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{byAddr: make(map[string]*types.Account)}
}

func copyAccount(a *types.Account) *types.Account {
	c := *a
	c.Balance = new(uint256.Int).Set(a.Balance)
	c.UBalance = new(uint256.Int).Set(a.UBalance)
	c.Votes = append([]string(nil), a.Votes...)
	return &c
}

func (m *MemoryAccountStore) lookupByPublicKey(publicKey string) *types.Account {
	for _, acc := range m.byAddr {
		if acc.PublicKey == publicKey {
			return acc
		}
	}
	return nil
}

func (m *MemoryAccountStore) SetAccountAndGet(ctx context.Context, dbtx db.Tx, publicKey string) (*types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if acc := m.lookupByPublicKey(publicKey); acc != nil {
		return copyAccount(acc), nil
	}
	address, err := common.AddressFromPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	if acc, ok := m.byAddr[address]; ok {
		acc.PublicKey = publicKey
		return copyAccount(acc), nil
	}
	acc := &types.Account{
		Address:   address,
		PublicKey: publicKey,
		Balance:   uint256.NewInt(0),
		UBalance:  uint256.NewInt(0),
	}
	m.byAddr[address] = acc
	return copyAccount(acc), nil
}

func (m *MemoryAccountStore) GetAccount(ctx context.Context, dbtx db.Tx, publicKey string) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if acc := m.lookupByPublicKey(publicKey); acc != nil {
		return copyAccount(acc), nil
	}
	return nil, fmt.Errorf("account for key %s: %w", publicKey, ErrAccountNotFound)
}

func (m *MemoryAccountStore) GetByAddress(ctx context.Context, dbtx db.Tx, address string) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if acc, ok := m.byAddr[address]; ok {
		return copyAccount(acc), nil
	}
	return nil, nil
}

func (m *MemoryAccountStore) EnsureAccountByAddress(ctx context.Context, dbtx db.Tx, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byAddr[address]; !ok {
		m.byAddr[address] = &types.Account{
			Address:  address,
			Balance:  uint256.NewInt(0),
			UBalance: uint256.NewInt(0),
		}
	}
	return nil
}

func (m *MemoryAccountStore) adjust(address string, apply func(acc *types.Account) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.byAddr[address]
	if !ok {
		return fmt.Errorf("account %s: %w", address, ErrAccountNotFound)
	}
	return apply(acc)
}

func (m *MemoryAccountStore) CreditBalance(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return m.adjust(address, func(acc *types.Account) error {
		acc.Balance.Add(acc.Balance, amount)
		return nil
	})
}

func (m *MemoryAccountStore) DebitBalance(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return m.adjust(address, func(acc *types.Account) error {
		if acc.Balance.Lt(amount) {
			return fmt.Errorf("account %s: %w", address, ErrInsufficientFunds)
		}
		acc.Balance.Sub(acc.Balance, amount)
		return nil
	})
}

func (m *MemoryAccountStore) CreditUnconfirmed(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return m.adjust(address, func(acc *types.Account) error {
		acc.UBalance.Add(acc.UBalance, amount)
		return nil
	})
}

func (m *MemoryAccountStore) DebitUnconfirmed(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return m.adjust(address, func(acc *types.Account) error {
		if acc.UBalance.Lt(amount) {
			return fmt.Errorf("account %s: %w", address, ErrInsufficientFunds)
		}
		acc.UBalance.Sub(acc.UBalance, amount)
		return nil
	})
}

func (m *MemoryAccountStore) SetDelegate(ctx context.Context, dbtx db.Tx, address, username string) error {
	return m.adjust(address, func(acc *types.Account) error {
		acc.Username = username
		acc.IsDelegate = true
		return nil
	})
}

func (m *MemoryAccountStore) UnsetDelegate(ctx context.Context, dbtx db.Tx, address string) error {
	return m.adjust(address, func(acc *types.Account) error {
		acc.Username = ""
		acc.IsDelegate = false
		return nil
	})
}

func (m *MemoryAccountStore) AddVote(ctx context.Context, dbtx db.Tx, address, delegatePublicKey string) error {
	return m.adjust(address, func(acc *types.Account) error {
		for _, v := range acc.Votes {
			if v == delegatePublicKey {
				return nil
			}
		}
		acc.Votes = append(acc.Votes, delegatePublicKey)
		return nil
	})
}

func (m *MemoryAccountStore) RemoveVote(ctx context.Context, dbtx db.Tx, address, delegatePublicKey string) error {
	return m.adjust(address, func(acc *types.Account) error {
		for i, v := range acc.Votes {
			if v == delegatePublicKey {
				acc.Votes = append(acc.Votes[:i], acc.Votes[i+1:]...)
				break
			}
		}
		return nil
	})
}

func (m *MemoryAccountStore) GetVotes(ctx context.Context, dbtx db.Tx, address string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.byAddr[address]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", address, ErrAccountNotFound)
	}
	return append([]string(nil), acc.Votes...), nil
}
