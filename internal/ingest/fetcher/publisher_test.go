package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/gateway/internal/core/domain"
)

func TestPublisher_RegistrationOrder(t *testing.T) {
	p := NewPublisher("test", time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) Subscriber {
		return NewSubscriberFunc(name, func(ctx context.Context, tx *domain.Transaction) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}
	p.Subscribe(record("indexer"))
	p.Subscribe(record("store"))
	p.Subscribe(record("cache"))

	if n := p.Publish(context.Background(), &domain.Transaction{ID: "tx"}); n != 3 {
		t.Errorf("expected 3 deliveries, got %d", n)
	}
	want := []string{"indexer", "store", "cache"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	p := NewPublisher("test", time.Second)
	count := 0
	id := p.Subscribe(NewSubscriberFunc("counter", func(ctx context.Context, tx *domain.Transaction) error {
		count++
		return nil
	}))

	p.Publish(context.Background(), &domain.Transaction{ID: "1"})
	if !p.Unsubscribe(id) {
		t.Fatal("expected Unsubscribe to find the subscription")
	}
	if p.Unsubscribe(id) {
		t.Error("second Unsubscribe should report false")
	}
	p.Publish(context.Background(), &domain.Transaction{ID: "2"})

	if count != 1 {
		t.Errorf("expected 1 delivery, got %d", count)
	}
	if p.Len() != 0 {
		t.Errorf("expected no subscribers, got %d", p.Len())
	}
}

func TestPublisher_FailuresAreIsolated(t *testing.T) {
	p := NewPublisher("test", time.Second)
	p.Subscribe(NewSubscriberFunc("err", func(ctx context.Context, tx *domain.Transaction) error {
		return errors.New("write failed")
	}))
	p.Subscribe(NewSubscriberFunc("panic", func(ctx context.Context, tx *domain.Transaction) error {
		panic("nil map")
	}))
	got := false
	p.Subscribe(NewSubscriberFunc("ok", func(ctx context.Context, tx *domain.Transaction) error {
		got = true
		return nil
	}))

	if n := p.Publish(context.Background(), &domain.Transaction{ID: "tx"}); n != 1 {
		t.Errorf("expected 1 successful delivery, got %d", n)
	}
	if !got {
		t.Error("healthy subscriber did not receive the transaction")
	}
}

func TestPublisher_SlowSubscriberBounded(t *testing.T) {
	p := NewPublisher("test", 30*time.Millisecond)
	block := make(chan struct{})
	defer close(block)
	p.Subscribe(NewSubscriberFunc("stuck", func(ctx context.Context, tx *domain.Transaction) error {
		<-block // ignores ctx
		return nil
	}))

	start := time.Now()
	if n := p.Publish(context.Background(), &domain.Transaction{ID: "tx"}); n != 0 {
		t.Errorf("expected no successful delivery, got %d", n)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("publish blocked for %v", elapsed)
	}
}
