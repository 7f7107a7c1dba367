// Package rpc provides a failover client over one or more upstream providers.
//
//	client := rpc.NewClient("arweave",
//	    provider.NewHTTPProvider("arweave.net", "https://arweave.net", 30*time.Second),
//	    provider.NewHTTPProvider("ar-io.dev", "https://ar-io.dev", 30*time.Second),
//	)
//	body, err := client.Get(ctx, "tx/"+txID)
//
// Requests rotate round-robin across available providers and fail over to the
// next one on provider-specific errors. The client never sleeps or retries the
// same provider; retry timing belongs to the caller.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vietddude/gateway/internal/indexing/metrics"
	"github.com/vietddude/gateway/internal/infra/rpc/provider"
)

// ErrNoProviders is returned when the client has no providers configured.
var ErrNoProviders = errors.New("no rpc providers configured")

// Client routes calls across providers for a single chain.
type Client struct {
	chainID   string
	providers []provider.Provider
	next      atomic.Uint64
	log       *slog.Logger
}

// NewClient creates a client over the given providers.
func NewClient(chainID string, providers ...provider.Provider) *Client {
	return &Client{
		chainID:   chainID,
		providers: providers,
		log:       slog.Default().With("component", "rpc", "chain", chainID),
	}
}

// Call makes a JSON-RPC call with failover.
func (c *Client) Call(ctx context.Context, method string, params []any) (any, error) {
	var result any
	err := c.execute(ctx, method, func(p provider.Provider) error {
		var err error
		result, err = p.Call(ctx, method, params)
		return err
	})
	return result, err
}

// Get performs a REST GET with failover.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := c.execute(ctx, "GET", func(p provider.Provider) error {
		var err error
		body, err = p.Get(ctx, path)
		return err
	})
	return body, err
}

// Providers returns the configured providers.
func (c *Client) Providers() []provider.Provider {
	return c.providers
}

// Health returns the health of every provider keyed by name.
func (c *Client) Health() map[string]provider.HealthStatus {
	out := make(map[string]provider.HealthStatus, len(c.providers))
	for _, p := range c.providers {
		out[p.GetName()] = p.GetHealth()
	}
	return out
}

// Close closes every provider.
func (c *Client) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.GetName(), err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) execute(ctx context.Context, method string, call func(p provider.Provider) error) error {
	order := c.order()
	if len(order) == 0 {
		return ErrNoProviders
	}

	var lastErr error
	for _, p := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := p.GetName()
		start := time.Now()
		err := call(p)
		metrics.RPCCallsTotal.WithLabelValues(c.chainID, name, method).Inc()
		metrics.RPCLatency.WithLabelValues(c.chainID, name, method).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}

		lastErr = err
		action := ClassifyError(err)
		metrics.RPCErrorsTotal.WithLabelValues(c.chainID, name, action.String()).Inc()

		// A malformed request fails the same way on every provider
		if action == ActionFatal {
			return err
		}
		c.log.Debug("Provider call failed, trying next", "provider", name, "method", method, "error", err)
	}

	return fmt.Errorf("all providers failed: %w", lastErr)
}

// order returns providers starting at the round-robin cursor, available ones first.
func (c *Client) order() []provider.Provider {
	n := len(c.providers)
	if n == 0 {
		return nil
	}
	start := int(c.next.Add(1)-1) % n

	available := make([]provider.Provider, 0, n)
	var unavailable []provider.Provider
	for i := 0; i < n; i++ {
		p := c.providers[(start+i)%n]
		if p.IsAvailable() {
			available = append(available, p)
		} else {
			unavailable = append(unavailable, p)
		}
	}
	return append(available, unavailable...)
}
