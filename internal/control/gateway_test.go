package control

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/gateway/internal/core/config"
	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/ingest/fetcher"
)

const testTxJSON = `{"format":2,"id":"tx-1","owner":"o","tags":[{"name":"QXBwLU5hbWU","value":"QXJEcml2ZQ"}],"quantity":"0","reward":"10","data_size":"5"}`

func newTestConfig(url string) *config.AppConfig {
	zero := time.Duration(0)
	return &config.AppConfig{
		Fetcher: config.FetcherConfig{
			Workers:        2,
			MaxAttempts:    3,
			RetryWait:      &zero,
			PublishTimeout: time.Second,
		},
		Chain: config.ChainConfig{
			ChainID: domain.ChainIDArweave,
			Type:    domain.ChainTypeArweave,
			Providers: []config.ProviderConfig{
				{Name: "mock", URL: url, Timeout: 5 * time.Second},
			},
		},
	}
}

func TestGateway_Lifecycle(t *testing.T) {
	var txCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tx/tx-1":
			// First attempt fails, the retry succeeds
			if txCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(testTxJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	g, err := NewGateway(context.Background(), newTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := g.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if report := g.Health(ctx); !report.Chain.Fetcher.Running {
		t.Errorf("expected running fetcher in health report: %+v", report.Chain.Fetcher)
	}

	if err := g.QueueTxID("tx-1"); err != nil {
		t.Fatalf("QueueTxID failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	var stored *domain.Transaction
	for time.Now().Before(deadline) {
		if tx, err := g.Store().GetByID(ctx, domain.ChainIDArweave, "tx-1"); err == nil {
			stored = tx
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if stored == nil {
		t.Fatal("transaction was not stored")
	}
	if len(stored.Tags) != 1 || stored.Tags[0].Value != "ArDrive" {
		t.Errorf("unexpected stored tags: %+v", stored.Tags)
	}
	if got := txCalls.Load(); got != 2 {
		t.Errorf("expected 2 upstream calls, got %d", got)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := g.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if err := g.QueueTxID("tx-2"); !errors.Is(err, fetcher.ErrStopped) {
		t.Errorf("expected ErrStopped after stop, got %v", err)
	}
	if g.Fetcher().Stats().Running {
		t.Error("fetcher should not report running after stop")
	}
}

func TestNewSource(t *testing.T) {
	cfg := newTestConfig("http://localhost:1984")

	source, client, err := NewSource(cfg.Chain)
	if err != nil {
		t.Fatalf("arweave source: %v", err)
	}
	if source.GetChainID() != domain.ChainIDArweave || len(client.Providers()) != 1 {
		t.Errorf("unexpected source %s with %d providers", source.GetChainID(), len(client.Providers()))
	}

	cfg.Chain.Type = domain.ChainTypeEVM
	cfg.Chain.ChainID = domain.ChainIDEthereum
	source, _, err = NewSource(cfg.Chain)
	if err != nil {
		t.Fatalf("evm source: %v", err)
	}
	if source.GetChainID() != domain.ChainIDEthereum {
		t.Errorf("expected chain 1, got %s", source.GetChainID())
	}

	cfg.Chain.Type = "solana"
	if _, _, err := NewSource(cfg.Chain); err == nil {
		t.Error("expected error for unsupported chain type")
	}
}

func TestFetcherConfig(t *testing.T) {
	cfg := newTestConfig("http://x")
	fc := FetcherConfig(cfg)
	if fc.Workers != 2 || fc.MaxAttempts != 3 || fc.RetryWait != 0 || fc.ChainID != domain.ChainIDArweave {
		t.Errorf("unexpected fetcher config: %+v", fc)
	}
}
