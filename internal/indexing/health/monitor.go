package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/gateway/internal/ingest/fetcher"
	"github.com/vietddude/gateway/internal/infra/rpc/provider"
)

const (
	// Queue backlog above which the fetcher is reported degraded.
	backlogThreshold = 1000
	defaultCacheTTL  = 5 * time.Second
	pingTimeout      = 2 * time.Second
)

// StatsSource reports fetcher state.
type StatsSource interface {
	Stats() fetcher.Stats
}

// ProviderSource reports upstream provider health.
type ProviderSource interface {
	Health() map[string]provider.HealthStatus
}

// Pinger is a dependency that can be health-checked (database, redis).
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from various system components.
type Monitor struct {
	chainID      string
	stats        StatsSource
	providers    ProviderSource
	dependencies map[string]Pinger
	cacheTTL     time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor.
func NewMonitor(chainID string, stats StatsSource, providers ProviderSource) *Monitor {
	return &Monitor{
		chainID:      chainID,
		stats:        stats,
		providers:    providers,
		dependencies: make(map[string]Pinger),
		cacheTTL:     defaultCacheTTL,
	}
}

// AddDependency registers a named dependency checked on every report.
func (m *Monitor) AddDependency(name string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencies[name] = p
}

// CheckHealth builds a health report, reusing a recent one when available.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid pinging dependencies on every request
	if m.lastReport != nil && time.Since(m.lastCheck) < m.cacheTTL {
		return *m.lastReport
	}

	health := ChainHealth{
		ChainID: m.chainID,
		Status:  StatusHealthy,
		Fetcher: m.stats.Stats(),
	}
	if m.providers != nil {
		health.Providers = m.providers.Health()
	}

	depDown := false
	if len(m.dependencies) > 0 {
		health.Dependencies = make(map[string]string, len(m.dependencies))
		for name, dep := range m.dependencies {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := dep.Health(pctx)
			cancel()
			if err != nil {
				health.Dependencies[name] = err.Error()
				depDown = true
				continue
			}
			health.Dependencies[name] = "ok"
		}
	}

	available := 0
	for _, p := range health.Providers {
		if p.Available {
			available++
		}
	}

	// Evaluate Status
	switch {
	case !health.Fetcher.Running, len(health.Providers) > 0 && available == 0:
		health.Status = StatusCritical
	case depDown, available < len(health.Providers), health.Fetcher.QueueDepth > backlogThreshold:
		health.Status = StatusDegraded
	}

	report := &HealthReport{SystemStatus: health.Status, Chain: health}
	m.lastCheck = time.Now()
	m.lastReport = report
	return *report
}
