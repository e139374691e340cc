package credits

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type pgStore struct {
	DB       *sql.DB
	starting int
}

// NewPGStore constructs a Postgres-backed ledger store.
func NewPGStore(db *sql.DB, startingBalance int) *pgStore {
	return &pgStore{DB: db, starting: startingBalance}
}

func (s *pgStore) Balance(ctx context.Context, userID string) (balance int, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	balance, err = s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// Apply updates the balance and records the transaction in one database
// transaction. The row lock serializes concurrent debits for a user.
func (s *pgStore) Apply(ctx context.Context, userID string, delta int, reason string) (balance int, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	balance, err = s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if balance+delta < 0 {
		err = ErrInsufficient
		return balance, err
	}
	balance += delta
	if _, err = tx.ExecContext(ctx, `
UPDATE credit_balances SET balance = $1, updated_at = now() WHERE user_id = $2`, balance, userID); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO credit_transactions (id, user_id, delta, reason) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userID, delta, reason); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// lockAndEnsure opens the account if needed and locks its row. The insert runs
// first so concurrent first calls for a user all end up waiting on one row.
func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO credit_balances (user_id, balance) VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING`, userID, s.starting); err != nil {
		return 0, err
	}
	var balance int
	if err := tx.QueryRowContext(ctx, `
SELECT balance FROM credit_balances WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}
