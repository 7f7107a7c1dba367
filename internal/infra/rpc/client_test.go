package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/gateway/internal/infra/rpc/provider"
)

// mockProvider implements provider.Provider for testing
type mockProvider struct {
	name      string
	available bool
	getFunc   func(ctx context.Context, path string) ([]byte, error)
	calls     int
}

func (m *mockProvider) GetName() string { return m.name }
func (m *mockProvider) GetHealth() provider.HealthStatus {
	return provider.HealthStatus{Available: m.available}
}
func (m *mockProvider) IsAvailable() bool { return m.available }
func (m *mockProvider) Close() error      { return nil }

func (m *mockProvider) Call(ctx context.Context, method string, params []any) (any, error) {
	m.calls++
	body, err := m.getFunc(ctx, method)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

func (m *mockProvider) Get(ctx context.Context, path string) ([]byte, error) {
	m.calls++
	return m.getFunc(ctx, path)
}

func ok(body string) func(context.Context, string) ([]byte, error) {
	return func(context.Context, string) ([]byte, error) { return []byte(body), nil }
}

func fail(err error) func(context.Context, string) ([]byte, error) {
	return func(context.Context, string) ([]byte, error) { return nil, err }
}

func TestClient_Failover(t *testing.T) {
	bad := &mockProvider{name: "bad", available: true, getFunc: fail(errors.New("connection refused"))}
	good := &mockProvider{name: "good", available: true, getFunc: ok("tx")}
	client := NewClient("test", bad, good)

	// Two calls so both rotation orders are exercised
	for i := 0; i < 2; i++ {
		body, err := client.Get(context.Background(), "tx/1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(body) != "tx" {
			t.Errorf("unexpected body %q", body)
		}
	}
	if good.calls != 2 {
		t.Errorf("expected good provider to serve both calls, got %d", good.calls)
	}
}

func TestClient_RoundRobin(t *testing.T) {
	a := &mockProvider{name: "a", available: true, getFunc: ok("a")}
	b := &mockProvider{name: "b", available: true, getFunc: ok("b")}
	client := NewClient("test", a, b)

	for i := 0; i < 4; i++ {
		if _, err := client.Call(context.Background(), "eth_getTransactionByHash", nil); err != nil {
			t.Fatalf("Call failed: %v", err)
		}
	}
	if a.calls != 2 || b.calls != 2 {
		t.Errorf("expected calls to alternate, got a=%d b=%d", a.calls, b.calls)
	}
}

func TestClient_SkipsUnavailable(t *testing.T) {
	down := &mockProvider{name: "down", available: false, getFunc: ok("down")}
	up := &mockProvider{name: "up", available: true, getFunc: ok("up")}
	client := NewClient("test", down, up)

	for i := 0; i < 3; i++ {
		body, err := client.Get(context.Background(), "x")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(body) != "up" {
			t.Errorf("expected available provider, got %s", body)
		}
	}
	if down.calls != 0 {
		t.Errorf("unavailable provider should not be called, got %d", down.calls)
	}
}

func TestClient_FatalStopsFailover(t *testing.T) {
	first := &mockProvider{name: "first", available: true, getFunc: fail(errors.New("rpc error (-32602): invalid argument"))}
	second := &mockProvider{name: "second", available: false, getFunc: fail(errors.New("rpc error (-32602): invalid argument"))}
	client := NewClient("test", first, second)

	if _, err := client.Call(context.Background(), "eth_getTransactionByHash", []any{"bad"}); err == nil {
		t.Fatal("expected error")
	}
	if second.calls != 0 {
		t.Errorf("fatal error should not fail over, second called %d times", second.calls)
	}
}

func TestClient_AllFail(t *testing.T) {
	client := NewClient("test",
		&mockProvider{name: "a", available: true, getFunc: fail(errors.New("timeout"))},
		&mockProvider{name: "b", available: true, getFunc: fail(errors.New("timeout"))},
	)
	if _, err := client.Get(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}

	if _, err := NewClient("empty").Get(context.Background(), "x"); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders, got %v", err)
	}
}
