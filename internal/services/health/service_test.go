package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestStatusMemoryLedger(t *testing.T) {
	out, ok := NewService(nil, "none").Status(context.Background())
	if !ok || out["ledger"] != "memory" || out["ok"] != true {
		t.Fatalf("unexpected status: %v ok=%v", out, ok)
	}
}

func TestStatusPostgres(t *testing.T) {
	out, ok := NewService(fakePinger{}, "openai").Status(context.Background())
	if !ok || out["ledger"] != "postgres" {
		t.Fatalf("unexpected status: %v ok=%v", out, ok)
	}

	out, ok = NewService(fakePinger{err: errors.New("down")}, "openai").Status(context.Background())
	if ok || out["ledger"] != "down" || out["ok"] != false {
		t.Fatalf("expected unhealthy status, got %v ok=%v", out, ok)
	}
}
