package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	redisclient "github.com/vietddude/gateway/internal/infra/redis"
)

var queueCmd = &cobra.Command{
	Use:   "queue [tx_id...]",
	Short: "Push transaction IDs onto the Redis fetch queue",
	Args:  cobra.MinimumNArgs(1),
	Run:   runQueue,
}

func init() {
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if !cfg.Redis.Enabled() {
		slog.Error("redis.url is not configured")
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	q := redisclient.NewQueue(client, cfg.Chain.ChainID)
	n, err := q.Push(ctx, args...)
	if err != nil {
		slog.Error("Failed to queue transactions", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Queued %d transaction(s) for %s, queue length %d\n", len(args), cfg.Chain.ChainID, n)
}
