package store

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sephra1/lisk-sdk/common"
	"github.com/Sephra1/lisk-sdk/db"
)

var accountPub = strings.Repeat("ab", 32)

func newMockAccountStore(t *testing.T) (*SQLAccountStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	s, err := NewSQLAccountStore(&db.Postgres{DB: mockDB})
	require.NoError(t, err)
	return s, mock, func() { mockDB.Close() }
}

func accountColumns() []string {
	return []string{"address", "public_key", "balance", "u_balance", "username", "is_delegate"}
}

func TestSetAccountAndGetCreatesMissingAccount(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	address, err := common.AddressFromPublicKey(accountPub)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT address, public_key").
		WithArgs(accountPub).
		WillReturnRows(sqlmock.NewRows(accountColumns()))
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(address, accountPub).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT address, public_key").
		WithArgs(accountPub).
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(address, accountPub, "0", "0", nil, false))

	acc, err := s.SetAccountAndGet(context.Background(), nil, accountPub)
	require.NoError(t, err)
	assert.Equal(t, address, acc.Address)
	assert.True(t, acc.Balance.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAccountAndGetReturnsExisting(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	mock.ExpectQuery("SELECT address, public_key").
		WithArgs(accountPub).
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("addr-1", accountPub, "500", "450", "forger_1", true))

	acc, err := s.SetAccountAndGet(context.Background(), nil, accountPub)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(500), acc.Balance)
	assert.Equal(t, uint256.NewInt(450), acc.UBalance)
	assert.True(t, acc.IsDelegate)
	assert.Equal(t, "forger_1", acc.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountNotFound(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	mock.ExpectQuery("SELECT address, public_key").
		WithArgs(accountPub).
		WillReturnRows(sqlmock.NewRows(accountColumns()))

	_, err := s.GetAccount(context.Background(), nil, accountPub)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreditBalance(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	mock.ExpectExec("UPDATE accounts SET balance = balance \\+").
		WithArgs("250", "addr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreditBalance(context.Background(), nil, "addr-1", uint256.NewInt(250))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebitBalanceGuardsAgainstOverdraft(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	// the guarded UPDATE touches no row while the account exists, so the
	// failure is the balance guard
	mock.ExpectExec("UPDATE accounts SET balance = balance -").
		WithArgs("100", "addr-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT address, public_key").
		WithArgs("addr-1").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow("addr-1", accountPub, "50", "50", nil, false))

	err := s.DebitBalance(context.Background(), nil, "addr-1", uint256.NewInt(100))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebitBalanceMissingAccount(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	mock.ExpectExec("UPDATE accounts SET balance = balance -").
		WithArgs("100", "addr-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT address, public_key").
		WithArgs("addr-missing").
		WillReturnRows(sqlmock.NewRows(accountColumns()))

	err := s.DebitBalance(context.Background(), nil, "addr-missing", uint256.NewInt(100))
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVoteRows(t *testing.T) {
	s, mock, done := newMockAccountStore(t)
	defer done()

	delegateKey := strings.Repeat("dd", 32)

	mock.ExpectExec("INSERT INTO account_votes").
		WithArgs("addr-1", delegateKey).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT delegate_public_key FROM account_votes").
		WithArgs("addr-1").
		WillReturnRows(sqlmock.NewRows([]string{"delegate_public_key"}).AddRow(delegateKey))
	mock.ExpectExec("DELETE FROM account_votes").
		WithArgs("addr-1", delegateKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, s.AddVote(ctx, nil, "addr-1", delegateKey))

	votes, err := s.GetVotes(ctx, nil, "addr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{delegateKey}, votes)

	require.NoError(t, s.RemoveVote(ctx, nil, "addr-1", delegateKey))
	require.NoError(t, mock.ExpectationsWereMet())
}
