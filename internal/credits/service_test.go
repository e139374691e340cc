package credits

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemoryStartingBalance(t *testing.T) {
	svc := NewService(30)
	got, err := svc.Balance(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
}

func TestConsumeInsufficient(t *testing.T) {
	svc := NewService(5)
	_, err := svc.Consume(context.Background(), "u1", 10, "cv_parse")
	if !errors.Is(err, ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	got, _ := svc.Balance(context.Background(), "u1")
	if got != 5 {
		t.Fatalf("balance must be untouched, got %d", got)
	}
}

func TestConsumeAndGrant(t *testing.T) {
	svc := NewService(30)
	ctx := context.Background()
	left, err := svc.Consume(ctx, "u1", 10, "cv_parse")
	if err != nil || left != 20 {
		t.Fatalf("Consume = %d, %v", left, err)
	}
	left, err = svc.Grant(ctx, "u1", 5, "")
	if err != nil || left != 25 {
		t.Fatalf("Grant = %d, %v", left, err)
	}
	if _, err := svc.Grant(ctx, "u1", 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Consume(ctx, "u1", -1, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestConcurrentConsumeNeverOverdraws(t *testing.T) {
	svc := NewService(30)
	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Consume(context.Background(), "u1", 10, "cv_parse"); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	if ok != 3 {
		t.Fatalf("expected exactly 3 successful debits, got %d", ok)
	}
	got, _ := svc.Balance(context.Background(), "u1")
	if got != 0 {
		t.Fatalf("expected 0 left, got %d", got)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewService(30).Balance(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
