package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	redisclient "github.com/vietddude/gateway/internal/infra/redis"
	"github.com/vietddude/gateway/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored transaction counts and the Redis queue length",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	defer func() {
		_ = w.Flush()
	}()

	if cfg.Redis.Enabled() {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis", "error", err)
		} else {
			n, err := redisclient.NewQueue(client, cfg.Chain.ChainID).Len(ctx)
			if err == nil {
				_, _ = fmt.Fprintf(w, "QUEUE\t%s\t%d\n", cfg.Chain.ChainID, n)
			}
			_ = client.Close()
		}
	}

	if cfg.Database.URL == "" {
		return
	}
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.QueryContext(ctx, "SELECT chain_id, COUNT(*), MAX(fetched_at) FROM transactions GROUP BY chain_id ORDER BY chain_id")
	if err != nil {
		slog.Error("Failed to query transactions", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	_, _ = fmt.Fprintln(w, "CHAIN\tSTORED\tLAST FETCHED")
	for rows.Next() {
		var chainID string
		var count int64
		var last time.Time
		if err := rows.Scan(&chainID, &count, &last); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", chainID, count, last.Format(time.RFC3339))
	}
}
