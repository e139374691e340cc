package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports process and ledger health.
type Service struct {
	DB       Pinger
	Provider string
}

// NewService constructs a health service. A nil db means the in-memory ledger.
func NewService(db Pinger, provider string) *Service {
	return &Service{DB: db, Provider: provider}
}

// Status returns the health payload and whether every dependency is up.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true, "llm_provider": s.Provider}
	if s.DB == nil {
		out["ledger"] = "memory"
		return out, true
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		out["ok"] = false
		out["ledger"] = "down"
		return out, false
	}
	out["ledger"] = "postgres"
	return out, true
}
