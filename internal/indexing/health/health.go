// Package health provides system health monitoring and status reporting.
package health

import (
	"github.com/vietddude/gateway/internal/ingest/fetcher"
	"github.com/vietddude/gateway/internal/infra/rpc/provider"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ChainHealth contains health metrics for the fetcher of one chain.
type ChainHealth struct {
	ChainID      string                           `json:"chain_id"`
	Status       SystemStatus                     `json:"status"`
	Fetcher      fetcher.Stats                    `json:"fetcher"`
	Providers    map[string]provider.HealthStatus `json:"providers"`
	Dependencies map[string]string                `json:"dependencies,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus `json:"system_status"`
	Chain        ChainHealth  `json:"chain"`
}
