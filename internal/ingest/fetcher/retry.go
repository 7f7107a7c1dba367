package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/indexing/metrics"
)

// ErrEmptyResult is reported when a chain source returns neither a transaction nor an error.
var ErrEmptyResult = errors.New("chain source returned no transaction")

// State is the lifecycle position of a single queued transaction.
type State string

const (
	StatePending   State = "pending"
	StateFetching  State = "fetching"
	StateRetrying  State = "retrying"
	StateSucceeded State = "succeeded"
	StateExhausted State = "exhausted"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further processing happens in this state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted || s == StateCancelled
}

// FetchFunc fetches one transaction by ID.
type FetchFunc func(ctx context.Context, txID string) (*domain.Transaction, error)

// Result is the outcome of running one transaction through the retrier.
type Result struct {
	TxID     string
	State    State
	Attempts int
	Tx       *domain.Transaction
	LastErr  error
	Duration time.Duration
}

// Retrier calls a FetchFunc up to MaxAttempts times with a fixed wait between failures.
// It holds no per-item state; every Run owns its own attempt counter.
type Retrier struct {
	fetch       FetchFunc
	chainID     string
	maxAttempts int
	wait        time.Duration
	log         *slog.Logger
}

// NewRetrier creates a retrier from the fetcher configuration.
func NewRetrier(cfg Config, fetch FetchFunc) *Retrier {
	return &Retrier{
		fetch:       fetch,
		chainID:     cfg.ChainID,
		maxAttempts: cfg.MaxAttempts,
		wait:        cfg.RetryWait,
		log:         slog.Default().With("component", "retrier", "chain", cfg.ChainID),
	}
}

// Run drives txID to a terminal state. The wait is skipped after the final failed attempt.
func (r *Retrier) Run(ctx context.Context, txID string) Result {
	start := time.Now()
	log := r.log.With("tx_id", txID)
	res := Result{TxID: txID, State: StatePending}

	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		res.State = StateFetching
		res.Attempts++
		metrics.FetchAttempts.WithLabelValues(r.chainID).Inc()
		log.Info("Fetching transaction", "attempt", res.Attempts)

		tx, err := r.fetch(ctx, txID)
		if err == nil && tx == nil {
			err = ErrEmptyResult
		}
		if err != nil {
			res.LastErr = err
			res.State = StateRetrying
			metrics.FetchFailures.WithLabelValues(r.chainID).Inc()
			log.Warn("Failed to fetch transaction", "attempt", res.Attempts, "error", err)
			return retry.RetryableError(err)
		}

		res.Tx = tx
		return nil
	})
	res.Duration = time.Since(start)

	switch {
	case err == nil:
		res.State = StateSucceeded
	case ctx.Err() != nil && res.Attempts < r.maxAttempts:
		res.State = StateCancelled
	default:
		res.State = StateExhausted
	}
	return res
}

func (r *Retrier) backoff() retry.Backoff {
	wait := r.wait
	constant := retry.BackoffFunc(func() (time.Duration, bool) {
		return wait, false
	})
	return retry.WithMaxRetries(uint64(r.maxAttempts-1), constant)
}
