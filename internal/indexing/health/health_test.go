package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/gateway/internal/ingest/fetcher"
	"github.com/vietddude/gateway/internal/infra/rpc/provider"
)

// =============================================================================
// Mocks
// =============================================================================

type stubStats struct {
	stats fetcher.Stats
}

func (s *stubStats) Stats() fetcher.Stats { return s.stats }

type stubProviders struct {
	health map[string]provider.HealthStatus
}

func (s *stubProviders) Health() map[string]provider.HealthStatus { return s.health }

type stubPinger struct {
	err error
}

func (s *stubPinger) Health(ctx context.Context) error { return s.err }

func providers(available ...bool) *stubProviders {
	h := make(map[string]provider.HealthStatus)
	names := []string{"p0", "p1", "p2"}
	for i, ok := range available {
		h[names[i]] = provider.HealthStatus{Available: ok}
	}
	return &stubProviders{health: h}
}

func newTestMonitor(stats fetcher.Stats, prov *stubProviders) *Monitor {
	m := NewMonitor("arweave", &stubStats{stats: stats}, prov)
	m.cacheTTL = 0
	return m
}

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_Healthy(t *testing.T) {
	monitor := newTestMonitor(fetcher.Stats{Running: true, Workers: 2}, providers(true, true))

	report := monitor.CheckHealth(context.Background())
	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
	if report.Chain.Fetcher.Workers != 2 {
		t.Errorf("expected fetcher stats in report, got %+v", report.Chain.Fetcher)
	}
}

func TestMonitor_Degraded(t *testing.T) {
	tests := []struct {
		name    string
		stats   fetcher.Stats
		prov    *stubProviders
		pingErr error
	}{
		{"provider down", fetcher.Stats{Running: true}, providers(true, false), nil},
		{"backlog", fetcher.Stats{Running: true, QueueDepth: backlogThreshold + 1}, providers(true), nil},
		{"dependency down", fetcher.Stats{Running: true}, providers(true), errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := newTestMonitor(tt.stats, tt.prov)
			if tt.pingErr != nil {
				monitor.AddDependency("postgres", &stubPinger{err: tt.pingErr})
			}

			report := monitor.CheckHealth(context.Background())
			if report.SystemStatus != StatusDegraded {
				t.Errorf("expected degraded, got %s", report.SystemStatus)
			}
		})
	}
}

func TestMonitor_Critical(t *testing.T) {
	monitor := newTestMonitor(fetcher.Stats{Running: true}, providers(false, false))
	if s := monitor.CheckHealth(context.Background()).SystemStatus; s != StatusCritical {
		t.Errorf("expected critical with no providers available, got %s", s)
	}

	monitor = newTestMonitor(fetcher.Stats{Running: false}, providers(true))
	if s := monitor.CheckHealth(context.Background()).SystemStatus; s != StatusCritical {
		t.Errorf("expected critical when fetcher stopped, got %s", s)
	}
}

func TestMonitor_CachesReport(t *testing.T) {
	stats := &stubStats{stats: fetcher.Stats{Running: true, QueueDepth: 1}}
	monitor := NewMonitor("arweave", stats, providers(true))

	first := monitor.CheckHealth(context.Background())
	stats.stats.QueueDepth = 99
	second := monitor.CheckHealth(context.Background())

	if first.Chain.Fetcher.QueueDepth != second.Chain.Fetcher.QueueDepth {
		t.Error("expected cached report within TTL")
	}
}

func TestServer_Health(t *testing.T) {
	monitor := newTestMonitor(fetcher.Stats{Running: false}, providers(true))
	srv := NewServer(monitor, 0, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for critical, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode detailed report: %v", err)
	}
	if report.Chain.ChainID != "arweave" {
		t.Errorf("unexpected chain %s", report.Chain.ChainID)
	}
}

func TestServer_QueueTx(t *testing.T) {
	monitor := newTestMonitor(fetcher.Stats{Running: true}, providers(true))

	var admitted []string
	admitErr := error(nil)
	srv := NewServer(monitor, 0, func(txID string) error {
		if admitErr != nil {
			return admitErr
		}
		admitted = append(admitted, txID)
		return nil
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tx/abc", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(admitted) != 1 || admitted[0] != "abc" {
		t.Errorf("expected abc admitted, got %v", admitted)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tx/abc", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}

	admitErr = fetcher.ErrStopped
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tx/def", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after stop, got %d", rec.Code)
	}
}
