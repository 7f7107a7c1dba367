package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/gateway/internal/core/domain"
)

func TestRetrier_Run(t *testing.T) {
	tests := []struct {
		name         string
		maxAttempts  int
		succeedOn    int // 0 = never
		wantState    State
		wantAttempts int
	}{
		{"first try", 5, 1, StateSucceeded, 1},
		{"third try", 5, 3, StateSucceeded, 3},
		{"last try", 3, 3, StateSucceeded, 3},
		{"exhausted", 3, 0, StateExhausted, 3},
		{"single attempt", 1, 0, StateExhausted, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			fetch := func(ctx context.Context, txID string) (*domain.Transaction, error) {
				calls++
				if tt.succeedOn > 0 && calls >= tt.succeedOn {
					return &domain.Transaction{ID: txID}, nil
				}
				return nil, errors.New("upstream error")
			}

			r := NewRetrier(testConfig(1, tt.maxAttempts, 0), fetch)
			res := r.Run(context.Background(), "tx")

			if res.State != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, res.State)
			}
			if res.Attempts != tt.wantAttempts || calls != tt.wantAttempts {
				t.Errorf("expected %d attempts, got %d (calls %d)", tt.wantAttempts, res.Attempts, calls)
			}
			if tt.wantState == StateSucceeded && res.Tx == nil {
				t.Error("expected transaction on success")
			}
			if tt.wantState == StateExhausted && res.LastErr == nil {
				t.Error("expected last error on exhaustion")
			}
			if !res.State.Terminal() {
				t.Errorf("state %s should be terminal", res.State)
			}
		})
	}
}

func TestRetrier_NilResultIsFailure(t *testing.T) {
	fetch := func(ctx context.Context, txID string) (*domain.Transaction, error) {
		return nil, nil
	}
	res := NewRetrier(testConfig(1, 2, 0), fetch).Run(context.Background(), "tx")

	if res.State != StateExhausted {
		t.Errorf("expected exhausted, got %s", res.State)
	}
	if !errors.Is(res.LastErr, ErrEmptyResult) {
		t.Errorf("expected ErrEmptyResult, got %v", res.LastErr)
	}
}

func TestRetrier_FixedWaitBetweenFailures(t *testing.T) {
	var stamps []time.Time
	fetch := func(ctx context.Context, txID string) (*domain.Transaction, error) {
		stamps = append(stamps, time.Now())
		return nil, errors.New("fail")
	}

	wait := 30 * time.Millisecond
	res := NewRetrier(testConfig(1, 3, wait), fetch).Run(context.Background(), "tx")
	if res.State != StateExhausted {
		t.Fatalf("expected exhausted, got %s", res.State)
	}
	if len(stamps) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(stamps))
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < wait {
			t.Errorf("gap %d was %v, expected at least %v", i, gap, wait)
		}
	}
}

func TestRetrier_CancelledDuringWait(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, txID string) (*domain.Transaction, error) {
		calls++
		return nil, errors.New("fail")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := NewRetrier(testConfig(1, 5, time.Hour), fetch).Run(ctx, "tx")

	if res.State != StateCancelled {
		t.Errorf("expected cancelled, got %s", res.State)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("retry wait was not interrupted by cancellation")
	}
}
