package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/gateway/internal/control"
	"github.com/vietddude/gateway/internal/ingest/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [tx_id]",
	Short: "Fetch a single transaction with retries and print it as JSON",
	Args:  cobra.ExactArgs(1),
	Run:   runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	source, client, err := control.NewSource(cfg.Chain)
	if err != nil {
		slog.Error("Failed to initialize chain source", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := fetcher.NewRetrier(control.FetcherConfig(cfg), source.GetTx).Run(ctx, args[0])
	if res.State != fetcher.StateSucceeded {
		slog.Error("Failed to fetch transaction",
			"tx_id", res.TxID,
			"state", res.State,
			"attempts", res.Attempts,
			"error", res.LastErr,
		)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Tx); err != nil {
		slog.Error("Failed to encode transaction", "error", err)
		os.Exit(1)
	}
}
