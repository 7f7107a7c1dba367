package control

import (
	"context"
	"log/slog"

	"github.com/vietddude/gateway/internal/core/domain"
)

// LogSubscriber logs every fetched transaction.
type LogSubscriber struct {
	log *slog.Logger
}

func NewLogSubscriber(log *slog.Logger) *LogSubscriber {
	return &LogSubscriber{log: log}
}

func (s *LogSubscriber) Name() string { return "log" }

func (s *LogSubscriber) OnTxFetched(ctx context.Context, tx *domain.Transaction) error {
	s.log.Debug("TX fetched",
		"tx_id", tx.ID,
		"status", tx.Status,
		"block_height", tx.BlockHeight,
		"tags", len(tx.Tags),
	)
	return nil
}
