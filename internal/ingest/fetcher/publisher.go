package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/indexing/metrics"
)

// Subscriber receives every successfully fetched transaction.
type Subscriber interface {
	// Name identifies the subscriber in logs and metrics
	Name() string

	// OnTxFetched handles a fetched transaction. It should honour ctx.
	OnTxFetched(ctx context.Context, tx *domain.Transaction) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc struct {
	name string
	fn   func(ctx context.Context, tx *domain.Transaction) error
}

// NewSubscriberFunc wraps fn as a named Subscriber.
func NewSubscriberFunc(
	name string,
	fn func(ctx context.Context, tx *domain.Transaction) error,
) *SubscriberFunc {
	return &SubscriberFunc{name: name, fn: fn}
}

func (s *SubscriberFunc) Name() string { return s.name }

func (s *SubscriberFunc) OnTxFetched(ctx context.Context, tx *domain.Transaction) error {
	return s.fn(ctx, tx)
}

// SubscriptionID identifies a registration returned by Subscribe.
type SubscriptionID string

type subscription struct {
	id  SubscriptionID
	sub Subscriber
}

// Publisher fans fetched transactions out to registered subscribers.
type Publisher struct {
	chainID string
	timeout time.Duration
	log     *slog.Logger

	mu   sync.RWMutex
	subs []subscription
}

// NewPublisher creates a publisher whose deliveries are each bounded by timeout.
func NewPublisher(chainID string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Publisher{
		chainID: chainID,
		timeout: timeout,
		log:     slog.Default().With("component", "publisher", "chain", chainID),
	}
}

// Subscribe registers s and returns an ID for Unsubscribe.
func (p *Publisher) Subscribe(s Subscriber) SubscriptionID {
	id := SubscriptionID(uuid.New().String())

	p.mu.Lock()
	p.subs = append(p.subs, subscription{id: id, sub: s})
	p.mu.Unlock()

	p.log.Info("Subscriber registered", "subscriber", s.Name(), "id", id)
	return id
}

// Unsubscribe removes a registration. It reports whether id was registered.
func (p *Publisher) Unsubscribe(id SubscriptionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, s := range p.subs {
		if s.id != id {
			continue
		}
		// Copy so snapshots held by in-progress publishes stay intact
		subs := make([]subscription, 0, len(p.subs)-1)
		subs = append(subs, p.subs[:i]...)
		subs = append(subs, p.subs[i+1:]...)
		p.subs = subs
		p.log.Info("Subscriber removed", "subscriber", s.sub.Name(), "id", id)
		return true
	}
	return false
}

// Len returns the number of registered subscribers.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Publish delivers tx to the current subscribers in registration order and
// returns how many accepted it. Failures are logged and never propagated.
func (p *Publisher) Publish(ctx context.Context, tx *domain.Transaction) int {
	p.mu.RLock()
	subs := p.subs
	p.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if err := p.deliver(ctx, s.sub, tx); err != nil {
			metrics.SubscriberErrors.WithLabelValues(p.chainID, s.sub.Name()).Inc()
			p.log.Warn("Subscriber failed",
				"subscriber", s.sub.Name(),
				"tx_id", tx.ID,
				"error", err,
			)
			continue
		}
		delivered++
	}
	return delivered
}

// deliver runs one subscriber with a deadline. A subscriber that ignores its
// context is left running and the worker moves on.
func (p *Publisher) deliver(ctx context.Context, s Subscriber, tx *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("subscriber panic: %v", r)
			}
		}()
		errCh <- s.OnTxFetched(ctx, tx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("deliver to %s: %w", s.Name(), ctx.Err())
	}
}
