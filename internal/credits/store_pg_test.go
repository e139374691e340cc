package credits

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*pgStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db, 30), mock
}

func expectEnsure(mock sqlmock.Sqlmock, userID string, inserted int64) {
	mock.ExpectExec(`INSERT INTO credit_balances \(user_id, balance\) VALUES \(\$1, \$2\)\s+ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs(userID, 30).
		WillReturnResult(sqlmock.NewResult(0, inserted))
}

func TestPGApplyDebitsAndRecordsTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectEnsure(mock, "u1", 0)
	mock.ExpectQuery(`SELECT balance FROM credit_balances WHERE user_id = \$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(25))
	mock.ExpectExec(`UPDATE credit_balances SET balance`).
		WithArgs(15, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO credit_transactions`).
		WithArgs(sqlmock.AnyArg(), "u1", -10, "cv_parse").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := NewPostgresService(store).Consume(context.Background(), "u1", 10, "cv_parse")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGApplyInsufficientRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectEnsure(mock, "u1", 0)
	mock.ExpectQuery(`SELECT balance FROM credit_balances`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(5))
	mock.ExpectRollback()

	_, err := store.Apply(context.Background(), "u1", -10, "cv_parse")
	if !errors.Is(err, ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGBalanceOpensAccount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectEnsure(mock, "guest:abc", 1)
	mock.ExpectQuery(`SELECT balance FROM credit_balances WHERE user_id = \$1 FOR UPDATE`).
		WithArgs("guest:abc").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(30))
	mock.ExpectCommit()

	got, err := store.Balance(context.Background(), "guest:abc")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 30 {
		t.Fatalf("expected starting balance 30, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGUpdateFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	expectEnsure(mock, "u1", 0)
	mock.ExpectQuery(`SELECT balance FROM credit_balances`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(30))
	mock.ExpectExec(`UPDATE credit_balances`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := store.Apply(context.Background(), "u1", -10, "cv_parse"); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGFirstDebitInsertsBeforeLocking(t *testing.T) {
	store, mock := newMockStore(t)

	// A concurrent first call already opened the account: the insert is a no-op
	// and the lock returns the committed balance.
	mock.ExpectBegin()
	expectEnsure(mock, "guest:new", 0)
	mock.ExpectQuery(`SELECT balance FROM credit_balances WHERE user_id = \$1 FOR UPDATE`).
		WithArgs("guest:new").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(20))
	mock.ExpectExec(`UPDATE credit_balances SET balance`).
		WithArgs(10, "guest:new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO credit_transactions`).
		WithArgs(sqlmock.AnyArg(), "guest:new", -10, "cv_parse").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := store.Apply(context.Background(), "guest:new", -10, "cv_parse")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGEnsureFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO credit_balances`).
		WithArgs("u1", 30).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := store.Balance(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
