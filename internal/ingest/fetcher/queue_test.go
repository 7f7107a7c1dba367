package fetcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTxQueue_FIFO(t *testing.T) {
	q := newTxQueue()
	for i := 0; i < 5; i++ {
		q.Push(fmt.Sprintf("tx-%d", i))
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		got, ok := q.Pop(ctx)
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly closed", i)
		}
		if want := fmt.Sprintf("tx-%d", i); got != want {
			t.Errorf("pop %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestTxQueue_PopBlocksUntilPush(t *testing.T) {
	q := newTxQueue()
	got := make(chan string, 1)
	go func() {
		id, _ := q.Pop(context.Background())
		got <- id
	}()

	select {
	case id := <-got:
		t.Fatalf("Pop returned %q before anything was pushed", id)
	case <-time.After(20 * time.Millisecond):
	}

	q.Push("late")
	select {
	case id := <-got:
		if id != "late" {
			t.Errorf("expected late, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestTxQueue_PopHonoursContext(t *testing.T) {
	q := newTxQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, ok := q.Pop(ctx); ok {
		t.Error("expected Pop to fail on cancelled context")
	}
}

func TestTxQueue_EachItemDeliveredOnce(t *testing.T) {
	q := newTxQueue()
	const items = 500

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				id, ok := q.Pop(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				seen[id]++
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < items; i++ {
		q.Push(fmt.Sprintf("tx-%d", i))
	}
	q.Close()
	wg.Wait()

	if len(seen) != items {
		t.Fatalf("expected %d distinct items, got %d", items, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s delivered %d times", id, n)
		}
	}
}

func TestTxQueue_CloseRefusesPush(t *testing.T) {
	q := newTxQueue()
	q.Push("kept")
	q.Close()
	q.Close()

	if q.Push("refused") {
		t.Error("expected Push to fail after Close")
	}
	if id, ok := q.Pop(context.Background()); !ok || id != "kept" {
		t.Errorf("expected queued item to survive Close, got %q %v", id, ok)
	}
	if _, ok := q.Pop(context.Background()); ok {
		t.Error("expected closed empty queue to report done")
	}
}

func TestTxQueue_Drain(t *testing.T) {
	q := newTxQueue()
	q.Push("a")
	q.Push("b")

	if got := q.Drain(); len(got) != 2 {
		t.Fatalf("expected 2 drained items, got %d", len(got))
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}
