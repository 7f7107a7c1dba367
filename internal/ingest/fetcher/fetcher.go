// Package fetcher turns transaction IDs into fetched transactions.
//
// IDs are admitted with QueueTxID into an unbounded FIFO. A fixed pool of
// workers pulls from the queue, fetches each transaction through a Retrier
// (fixed wait, bounded attempts) and hands successes to a Publisher, which
// delivers them to every registered Subscriber. Transactions that exhaust
// their attempts are dropped without any further signal.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/indexing/metrics"
)

const (
	DefaultWorkers        = 1
	DefaultMaxAttempts    = 5
	DefaultRetryWait      = 5 * time.Second
	DefaultPublishTimeout = 30 * time.Second
)

var (
	// ErrStopped is returned by QueueTxID once Stop has been called.
	ErrStopped = errors.New("fetcher stopped")

	// ErrEmptyTxID is returned by QueueTxID for an empty ID.
	ErrEmptyTxID = errors.New("empty transaction id")

	ErrAlreadyStarted = errors.New("fetcher already started")
)

// ChainSource fetches full transactions from an upstream chain.
type ChainSource interface {
	GetTx(ctx context.Context, txID string) (*domain.Transaction, error)
}

// Config holds the fetcher settings. It is fixed for the fetcher's lifetime.
type Config struct {
	ChainID        string
	Workers        int           // concurrent fetches (>= 1)
	MaxAttempts    int           // attempts per transaction (>= 1)
	RetryWait      time.Duration // wait between failed attempts (>= 0)
	PublishTimeout time.Duration // per-subscriber delivery bound (0 = default)
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        DefaultWorkers,
		MaxAttempts:    DefaultMaxAttempts,
		RetryWait:      DefaultRetryWait,
		PublishTimeout: DefaultPublishTimeout,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.RetryWait < 0 {
		return fmt.Errorf("retry wait must be >= 0, got %v", c.RetryWait)
	}
	if c.PublishTimeout < 0 {
		return fmt.Errorf("publish timeout must be >= 0, got %v", c.PublishTimeout)
	}
	return nil
}

// Stats is a point-in-time view of the fetcher.
type Stats struct {
	Running     bool `json:"running"`
	Workers     int  `json:"workers"`
	QueueDepth  int  `json:"queue_depth"`
	InFlight    int  `json:"in_flight"`
	Subscribers int  `json:"subscribers"`
}

// Fetcher is the bounded worker pool that drains the transaction queue.
type Fetcher struct {
	cfg       Config
	queue     *txQueue
	retrier   *Retrier
	publisher *Publisher
	log       *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	inFlight atomic.Int64
}

// New creates a fetcher. A nil publisher gets a fresh one.
func New(cfg Config, source ChainSource, publisher *Publisher) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fetcher config: %w", err)
	}
	if source == nil {
		return nil, errors.New("chain source is required")
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	if publisher == nil {
		publisher = NewPublisher(cfg.ChainID, cfg.PublishTimeout)
	}

	return &Fetcher{
		cfg:       cfg,
		queue:     newTxQueue(),
		retrier:   NewRetrier(cfg, source.GetTx),
		publisher: publisher,
		log:       slog.Default().With("component", "fetcher", "chain", cfg.ChainID),
	}, nil
}

// Publisher returns the publisher that receives fetched transactions.
func (f *Fetcher) Publisher() *Publisher {
	return f.publisher
}

// Subscribe registers s with the fetcher's publisher.
func (f *Fetcher) Subscribe(s Subscriber) SubscriptionID {
	return f.publisher.Subscribe(s)
}

// QueueTxID admits a transaction ID for fetching. It never blocks.
// The same ID queued twice is fetched twice.
func (f *Fetcher) QueueTxID(txID string) error {
	if txID == "" {
		return ErrEmptyTxID
	}
	if !f.queue.Push(txID) {
		metrics.TxRejected.WithLabelValues(f.cfg.ChainID).Inc()
		f.log.Warn("Fetcher stopped, TX not queued", "tx_id", txID)
		return ErrStopped
	}

	f.log.Info("Queuing TX to fetch", "tx_id", txID)
	metrics.TxQueued.WithLabelValues(f.cfg.ChainID).Inc()
	metrics.QueueDepth.WithLabelValues(f.cfg.ChainID).Set(float64(f.queue.Len()))
	return nil
}

// Start launches the workers. IDs queued before Start are processed once it runs.
// Cancelling ctx abandons queued work; use Stop for a graceful drain.
func (f *Fetcher) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return ErrAlreadyStarted
	}
	f.started = true

	ctx, f.cancel = context.WithCancel(ctx)
	for i := 0; i < f.cfg.Workers; i++ {
		f.wg.Add(1)
		go f.worker(ctx, i)
	}

	f.log.Info("Fetcher started",
		"workers", f.cfg.Workers,
		"max_attempts", f.cfg.MaxAttempts,
		"retry_wait", f.cfg.RetryWait,
	)
	return nil
}

// Stop refuses new IDs and waits for the workers to drain the queue.
// If ctx expires first, in-flight work is cancelled and queued IDs are abandoned.
func (f *Fetcher) Stop(ctx context.Context) error {
	f.queue.Close()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		f.mu.Lock()
		if f.cancel != nil {
			f.cancel()
		}
		f.mu.Unlock()
		err = fmt.Errorf("stop fetcher: %w", ctx.Err())
	}

	if dropped := f.queue.Drain(); len(dropped) > 0 {
		metrics.TxAbandoned.WithLabelValues(f.cfg.ChainID).Add(float64(len(dropped)))
		f.log.Warn("Abandoned queued transactions", "count", len(dropped))
	}
	metrics.QueueDepth.WithLabelValues(f.cfg.ChainID).Set(0)

	if err == nil {
		f.log.Info("Fetcher stopped")
	}
	return err
}

// Stats returns the current queue and worker state.
func (f *Fetcher) Stats() Stats {
	f.mu.Lock()
	started := f.started
	f.mu.Unlock()

	return Stats{
		Running:     started && !f.queue.Closed(),
		Workers:     f.cfg.Workers,
		QueueDepth:  f.queue.Len(),
		InFlight:    int(f.inFlight.Load()),
		Subscribers: f.publisher.Len(),
	}
}

func (f *Fetcher) worker(ctx context.Context, id int) {
	defer f.wg.Done()
	log := f.log.With("worker", id)
	log.Debug("Worker started")

	for {
		txID, ok := f.queue.Pop(ctx)
		if !ok {
			log.Debug("Worker exiting")
			return
		}
		metrics.QueueDepth.WithLabelValues(f.cfg.ChainID).Set(float64(f.queue.Len()))
		f.process(ctx, txID)
	}
}

func (f *Fetcher) process(ctx context.Context, txID string) {
	f.inFlight.Add(1)
	metrics.InFlight.WithLabelValues(f.cfg.ChainID).Inc()
	defer func() {
		f.inFlight.Add(-1)
		metrics.InFlight.WithLabelValues(f.cfg.ChainID).Dec()
	}()

	res := f.retrier.Run(ctx, txID)
	metrics.FetchLatency.WithLabelValues(f.cfg.ChainID, string(res.State)).
		Observe(res.Duration.Seconds())

	switch res.State {
	case StateSucceeded:
		metrics.TxFetched.WithLabelValues(f.cfg.ChainID).Inc()
		// A fetched record is still handed off while shutting down
		f.publisher.Publish(context.WithoutCancel(ctx), res.Tx)
	case StateExhausted:
		metrics.TxExhausted.WithLabelValues(f.cfg.ChainID).Inc()
		f.log.Debug("Giving up on transaction", "tx_id", txID, "attempts", res.Attempts)
	case StateCancelled:
		metrics.TxAbandoned.WithLabelValues(f.cfg.ChainID).Inc()
		f.log.Debug("Transaction fetch cancelled", "tx_id", txID, "attempts", res.Attempts)
	}
}
