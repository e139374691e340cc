// Package credits is the prepaid credit ledger consulted before a parse and
// debited after a successful AI structuring call.
package credits

import (
	"context"
	"strings"

	"resume-ingest/internal/shared/telemetry"
)

// DefaultStartingBalance is granted to a user the ledger has never seen.
const DefaultStartingBalance = 30

// Balance is a user's current credit balance.
type Balance struct {
	UserID  string `json:"userId"`
	Balance int    `json:"balance"`
}

type store interface {
	Balance(ctx context.Context, userID string) (int, error)
	Apply(ctx context.Context, userID string, delta int, reason string) (int, error)
}

// Service manages balances via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store.
func NewService(startingBalance int) *Service {
	return &Service{store: newMemoryStore(startingBalance)}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Balance returns the user's balance, opening the account if needed.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	return s.store.Balance(ctx, userID)
}

// Consume atomically debits n credits, failing with ErrInsufficient when the
// balance is lower than n. It returns the new balance.
func (s *Service) Consume(ctx context.Context, userID string, n int, reason string) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.store.Apply(ctx, userID, -n, reasonOr(reason, "consume"))
	if err != nil {
		return 0, err
	}
	telemetry.Info("credits.consume", map[string]any{
		"user_id": userID,
		"amount":  n,
		"reason":  reason,
		"balance": balance,
	})
	return balance, nil
}

// Grant credits n to the user and returns the new balance.
func (s *Service) Grant(ctx context.Context, userID string, n int, reason string) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.store.Apply(ctx, userID, n, reasonOr(reason, "grant"))
	if err != nil {
		return 0, err
	}
	telemetry.Info("credits.grant", map[string]any{
		"user_id": userID,
		"amount":  n,
		"balance": balance,
	})
	return balance, nil
}

func reasonOr(reason, fallback string) string {
	if strings.TrimSpace(reason) == "" {
		return fallback
	}
	return reason
}
