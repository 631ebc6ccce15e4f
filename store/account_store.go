package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Sephra1/lisk-sdk/common"
	"github.com/Sephra1/lisk-sdk/db"
	"github.com/Sephra1/lisk-sdk/types"
	"github.com/Sephra1/lisk-sdk/utils"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// AccountStore owns account rows. The chain core never touches them
// directly; every balance mutation goes through these operations, debits
// guarded so a balance can never go negative.
type AccountStore interface {
	// SetAccountAndGet resolves the account for the public key, creating it
	// with zero balances when absent
	SetAccountAndGet(ctx context.Context, dbtx db.Tx, publicKey string) (*types.Account, error)
	// GetAccount is the strict lookup variant; ErrAccountNotFound when absent
	GetAccount(ctx context.Context, dbtx db.Tx, publicKey string) (*types.Account, error)
	// GetByAddress returns nil, nil when the address is unknown
	GetByAddress(ctx context.Context, dbtx db.Tx, address string) (*types.Account, error)
	// EnsureAccountByAddress creates an empty account row when the address
	// has never been seen (recipients are known by address only)
	EnsureAccountByAddress(ctx context.Context, dbtx db.Tx, address string) error

	CreditBalance(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error
	DebitBalance(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error
	CreditUnconfirmed(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error
	DebitUnconfirmed(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error

	SetDelegate(ctx context.Context, dbtx db.Tx, address, username string) error
	UnsetDelegate(ctx context.Context, dbtx db.Tx, address string) error
	AddVote(ctx context.Context, dbtx db.Tx, address, delegatePublicKey string) error
	RemoveVote(ctx context.Context, dbtx db.Tx, address, delegatePublicKey string) error
	GetVotes(ctx context.Context, dbtx db.Tx, address string) ([]string, error)
}

// SQLAccountStore is the PostgreSQL implementation of AccountStore
type SQLAccountStore struct {
	base *sql.DB
}

// NewSQLAccountStore creates an account store over the given postgres backend
func NewSQLAccountStore(pg *db.Postgres) (*SQLAccountStore, error) {
	if pg == nil {
		return nil, fmt.Errorf("postgres backend cannot be nil")
	}
	return &SQLAccountStore{base: pg.DB}, nil
}

func (s *SQLAccountStore) querier(dbtx db.Tx) db.Tx {
	if dbtx != nil {
		return dbtx
	}
	return s.base
}

// SetAccountAndGet resolves or creates the sender account by public key
func (s *SQLAccountStore) SetAccountAndGet(ctx context.Context, dbtx db.Tx, publicKey string) (*types.Account, error) {
	q := s.querier(dbtx)

	acc, err := s.getByPublicKey(ctx, q, publicKey)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		return acc, nil
	}

	address, err := common.AddressFromPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO accounts (address, public_key, balance, u_balance)
		 VALUES ($1, $2, 0, 0)
		 ON CONFLICT (address) DO UPDATE SET public_key = EXCLUDED.public_key`,
		address, publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create account for key %s: %w", publicKey, err)
	}

	return s.getByPublicKey(ctx, q, publicKey)
}

// GetAccount returns the account for the public key, ErrAccountNotFound when absent
func (s *SQLAccountStore) GetAccount(ctx context.Context, dbtx db.Tx, publicKey string) (*types.Account, error) {
	acc, err := s.getByPublicKey(ctx, s.querier(dbtx), publicKey)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("account for key %s: %w", publicKey, ErrAccountNotFound)
	}
	return acc, nil
}

// GetByAddress returns the account for the address, nil when absent
func (s *SQLAccountStore) GetByAddress(ctx context.Context, dbtx db.Tx, address string) (*types.Account, error) {
	row := s.querier(dbtx).QueryRowContext(ctx,
		`SELECT address, public_key, balance, u_balance, username, is_delegate
		 FROM accounts WHERE address = $1`, address)
	return scanAccount(row)
}

// EnsureAccountByAddress creates an empty account row for an address-only
// recipient; a no-op when the row exists
func (s *SQLAccountStore) EnsureAccountByAddress(ctx context.Context, dbtx db.Tx, address string) error {
	_, err := s.querier(dbtx).ExecContext(ctx,
		`INSERT INTO accounts (address, balance, u_balance) VALUES ($1, 0, 0)
		 ON CONFLICT (address) DO NOTHING`, address)
	if err != nil {
		return fmt.Errorf("failed to ensure account %s: %w", address, err)
	}
	return nil
}

func (s *SQLAccountStore) getByPublicKey(ctx context.Context, q db.Tx, publicKey string) (*types.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT address, public_key, balance, u_balance, username, is_delegate
		 FROM accounts WHERE public_key = $1`, publicKey)
	return scanAccount(row)
}

// CreditBalance adds to the confirmed balance
func (s *SQLAccountStore) CreditBalance(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return s.adjust(ctx, dbtx, address,
		`UPDATE accounts SET balance = balance + $1 WHERE address = $2`, amount, nil)
}

// DebitBalance subtracts from the confirmed balance, failing with
// ErrInsufficientFunds when it would go negative
func (s *SQLAccountStore) DebitBalance(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return s.adjust(ctx, dbtx, address,
		`UPDATE accounts SET balance = balance - $1 WHERE address = $2 AND balance >= $1`, amount, ErrInsufficientFunds)
}

// CreditUnconfirmed adds to the unconfirmed balance
func (s *SQLAccountStore) CreditUnconfirmed(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return s.adjust(ctx, dbtx, address,
		`UPDATE accounts SET u_balance = u_balance + $1 WHERE address = $2`, amount, nil)
}

// DebitUnconfirmed subtracts from the unconfirmed balance, failing with
// ErrInsufficientFunds when it would go negative
func (s *SQLAccountStore) DebitUnconfirmed(ctx context.Context, dbtx db.Tx, address string, amount *uint256.Int) error {
	return s.adjust(ctx, dbtx, address,
		`UPDATE accounts SET u_balance = u_balance - $1 WHERE address = $2 AND u_balance >= $1`, amount, ErrInsufficientFunds)
}

func (s *SQLAccountStore) adjust(ctx context.Context, dbtx db.Tx, address, query string, amount *uint256.Int, guardErr error) error {
	res, err := s.querier(dbtx).ExecContext(ctx, query, utils.Uint256ToString(amount), address)
	if err != nil {
		return fmt.Errorf("failed to adjust balance of %s: %w", address, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read balance update result for %s: %w", address, err)
	}
	if affected == 0 {
		if guardErr != nil {
			// distinguish a missing row from a failed guard
			acc, lookupErr := s.GetByAddress(ctx, dbtx, address)
			if lookupErr == nil && acc != nil {
				return fmt.Errorf("account %s: %w", address, guardErr)
			}
		}
		return fmt.Errorf("account %s: %w", address, ErrAccountNotFound)
	}
	return nil
}

// SetDelegate marks the account as a registered delegate
func (s *SQLAccountStore) SetDelegate(ctx context.Context, dbtx db.Tx, address, username string) error {
	_, err := s.querier(dbtx).ExecContext(ctx,
		`UPDATE accounts SET username = $1, is_delegate = TRUE WHERE address = $2`, username, address)
	if err != nil {
		return fmt.Errorf("failed to set delegate %s: %w", address, err)
	}
	return nil
}

// UnsetDelegate reverts a delegate registration
func (s *SQLAccountStore) UnsetDelegate(ctx context.Context, dbtx db.Tx, address string) error {
	_, err := s.querier(dbtx).ExecContext(ctx,
		`UPDATE accounts SET username = NULL, is_delegate = FALSE WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to unset delegate %s: %w", address, err)
	}
	return nil
}

// AddVote records a vote for a delegate public key
func (s *SQLAccountStore) AddVote(ctx context.Context, dbtx db.Tx, address, delegatePublicKey string) error {
	_, err := s.querier(dbtx).ExecContext(ctx,
		`INSERT INTO account_votes (account_address, delegate_public_key) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, address, delegatePublicKey)
	if err != nil {
		return fmt.Errorf("failed to add vote of %s: %w", address, err)
	}
	return nil
}

// RemoveVote removes a vote for a delegate public key
func (s *SQLAccountStore) RemoveVote(ctx context.Context, dbtx db.Tx, address, delegatePublicKey string) error {
	_, err := s.querier(dbtx).ExecContext(ctx,
		`DELETE FROM account_votes WHERE account_address = $1 AND delegate_public_key = $2`,
		address, delegatePublicKey)
	if err != nil {
		return fmt.Errorf("failed to remove vote of %s: %w", address, err)
	}
	return nil
}

// GetVotes lists the delegate public keys the account votes for
func (s *SQLAccountStore) GetVotes(ctx context.Context, dbtx db.Tx, address string) ([]string, error) {
	rows, err := s.querier(dbtx).QueryContext(ctx,
		`SELECT delegate_public_key FROM account_votes WHERE account_address = $1 ORDER BY delegate_public_key`,
		address)
	if err != nil {
		return nil, fmt.Errorf("failed to load votes of %s: %w", address, err)
	}
	defer rows.Close()

	votes := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		votes = append(votes, key)
	}
	return votes, rows.Err()
}

func scanAccount(row rowScanner) (*types.Account, error) {
	var (
		acc      types.Account
		pubKey   sql.NullString
		balance  string
		uBalance string
		username sql.NullString
	)
	err := row.Scan(&acc.Address, &pubKey, &balance, &uBalance, &username, &acc.IsDelegate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	acc.PublicKey = pubKey.String
	acc.Balance = utils.Uint256FromString(balance)
	acc.UBalance = utils.Uint256FromString(uBalance)
	acc.Username = username.String
	return &acc, nil
}
