package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vietddude/gateway/internal/core/config"
	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/indexing/health"
	"github.com/vietddude/gateway/internal/ingest/fetcher"
	"github.com/vietddude/gateway/internal/infra/chain"
	"github.com/vietddude/gateway/internal/infra/chain/arweave"
	"github.com/vietddude/gateway/internal/infra/chain/evm"
	redisclient "github.com/vietddude/gateway/internal/infra/redis"
	"github.com/vietddude/gateway/internal/infra/rpc"
	"github.com/vietddude/gateway/internal/infra/rpc/provider"
	"github.com/vietddude/gateway/internal/infra/storage"
	"github.com/vietddude/gateway/internal/infra/storage/memory"
	"github.com/vietddude/gateway/internal/infra/storage/postgres"
)

// Gateway wires the fetch queue to its upstream source, subscribers and servers.
type Gateway struct {
	cfg          *config.AppConfig
	fetcher      *fetcher.Fetcher
	rpcClient    *rpc.Client
	source       chain.Source
	txRepo       storage.TransactionRepository
	healthMon    *health.Monitor
	healthServer *health.Server
	grpcServer   *health.GRPCServer
	db           *postgres.DB
	redisClient  *redisclient.Client
	redisQueue   *redisclient.Queue
	log          *slog.Logger

	mu             sync.Mutex
	stopProducer   context.CancelFunc
	stopBackground context.CancelFunc
	producers      sync.WaitGroup
}

// NewSource builds the rpc client and chain adapter for the configured chain.
func NewSource(cfg config.ChainConfig) (chain.Source, *rpc.Client, error) {
	providers := make([]provider.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, provider.NewHTTPProvider(p.Name, p.URL, p.Timeout))
	}
	client := rpc.NewClient(cfg.ChainID, providers...)

	switch cfg.Type {
	case domain.ChainTypeArweave:
		return arweave.NewAdapter(cfg.ChainID, client), client, nil
	case domain.ChainTypeEVM:
		return evm.NewAdapter(cfg.ChainID, client), client, nil
	default:
		_ = client.Close()
		return nil, nil, fmt.Errorf("unsupported chain type %q", cfg.Type)
	}
}

// FetcherConfig converts the application config into fetcher settings.
func FetcherConfig(cfg *config.AppConfig) fetcher.Config {
	return fetcher.Config{
		ChainID:        cfg.Chain.ChainID,
		Workers:        cfg.Fetcher.Workers,
		MaxAttempts:    cfg.Fetcher.MaxAttempts,
		RetryWait:      cfg.Fetcher.RetryWaitOrDefault(),
		PublishTimeout: cfg.Fetcher.PublishTimeout,
	}
}

// NewGateway creates a Gateway with all dependencies initialized.
func NewGateway(ctx context.Context, cfg *config.AppConfig) (*Gateway, error) {
	g := &Gateway{
		cfg: cfg,
		log: slog.Default().With("component", "gateway", "chain", cfg.Chain.ChainID),
	}

	// 1. Upstream source
	source, client, err := NewSource(cfg.Chain)
	if err != nil {
		return nil, err
	}
	g.source = source
	g.rpcClient = client

	// 2. Fetch queue
	f, err := fetcher.New(FetcherConfig(cfg), source, nil)
	if err != nil {
		g.closeResources()
		return nil, err
	}
	g.fetcher = f

	// 3. Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			g.closeResources()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		g.db = db
		if err := db.Migrate(ctx); err != nil {
			g.closeResources()
			return nil, err
		}
		g.txRepo = postgres.NewTxRepo(db)
		g.log.Info("Using PostgreSQL storage", "driver", cfg.Database.Driver)
	} else {
		g.txRepo = memory.NewTxRepo()
		g.log.Info("Using Memory storage")
	}

	// 4. Subscribers, in delivery order
	f.Subscribe(NewLogSubscriber(g.log))
	f.Subscribe(storage.NewSink("store", g.txRepo))

	// 5. Redis publisher and queue
	if cfg.Redis.Enabled() && (cfg.Redis.Publish || cfg.Redis.Consume) {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			g.closeResources()
			return nil, err
		}
		g.redisClient = rc

		if cfg.Redis.Publish {
			pub, err := redisclient.NewPublisher(rc, cfg.Chain.ChainID, cfg.Redis.Encoding)
			if err != nil {
				g.closeResources()
				return nil, err
			}
			f.Subscribe(pub)
			g.log.Info("Publishing fetched transactions", "channel", pub.Channel(), "encoding", cfg.Redis.Encoding)
		}
		if cfg.Redis.Consume {
			g.redisQueue = redisclient.NewQueue(rc, cfg.Chain.ChainID)
		}
	}

	// 6. Health
	g.healthMon = health.NewMonitor(cfg.Chain.ChainID, f, client)
	if g.db != nil {
		g.healthMon.AddDependency("postgres", g.db)
	}
	if g.redisClient != nil {
		g.healthMon.AddDependency("redis", g.redisClient)
	}
	g.healthServer = health.NewServer(g.healthMon, cfg.Server.Port, f.QueueTxID)
	if cfg.Server.GRPCPort > 0 {
		g.grpcServer = health.NewGRPCServer(cfg.Server.GRPCPort)
	}

	return g, nil
}

// QueueTxID admits a transaction ID for fetching.
func (g *Gateway) QueueTxID(txID string) error {
	return g.fetcher.QueueTxID(txID)
}

// Fetcher returns the underlying fetch queue.
func (g *Gateway) Fetcher() *fetcher.Fetcher {
	return g.fetcher
}

// Store returns the repository fetched transactions are written to.
func (g *Gateway) Store() storage.TransactionRepository {
	return g.txRepo
}

// Health returns the current health report.
func (g *Gateway) Health(ctx context.Context) health.HealthReport {
	return g.healthMon.CheckHealth(ctx)
}

// Start starts the fetcher, producers and servers. It does not block.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// The fetcher outlives ctx so Stop can drain it.
	if err := g.fetcher.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	bgCtx, bgCancel := context.WithCancel(ctx)
	g.stopBackground = bgCancel
	if g.db != nil {
		g.db.StartMetricsCollector(bgCtx)
	}

	// Start Health Server
	go func() {
		if err := g.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("Health server failed", "error", err)
		}
	}()

	if g.grpcServer != nil {
		go func() {
			if err := g.grpcServer.Start(); err != nil {
				g.log.Error("gRPC health server failed", "error", err)
			}
		}()
		g.grpcServer.SetServing(true)
	}

	// Start Redis queue consumer
	if g.redisQueue != nil {
		prodCtx, prodCancel := context.WithCancel(ctx)
		g.stopProducer = prodCancel
		g.producers.Add(1)
		go func() {
			defer g.producers.Done()
			if err := g.redisQueue.Run(prodCtx, g.fetcher.QueueTxID); err != nil {
				g.log.Warn("Redis queue consumer stopped", "error", err)
			}
		}()
	}

	g.log.Info("Gateway started", "port", g.cfg.Server.Port, "grpc_port", g.cfg.Server.GRPCPort)
	return nil
}

// Stop stops producers, drains the fetcher and closes every resource.
// The fetcher drain is bounded by ctx.
func (g *Gateway) Stop(ctx context.Context) error {
	g.log.Info("Stopping Gateway...")

	g.mu.Lock()
	stopProducer, stopBackground := g.stopProducer, g.stopBackground
	g.mu.Unlock()

	if g.grpcServer != nil {
		g.grpcServer.SetServing(false)
	}

	// Producers first so nothing is admitted into a closing queue
	if stopProducer != nil {
		stopProducer()
		g.producers.Wait()
	}

	var errs []error
	if err := g.fetcher.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := g.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop health server: %w", err))
	}
	if g.grpcServer != nil {
		g.grpcServer.Stop()
	}
	if stopBackground != nil {
		stopBackground()
	}
	if err := g.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (g *Gateway) closeResources() error {
	var errs []error
	if g.rpcClient != nil {
		if err := g.rpcClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rpc client: %w", err))
		}
	}
	if g.redisClient != nil {
		if err := g.redisClient.Close(); err != nil {
			g.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
