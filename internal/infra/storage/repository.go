package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/gateway/internal/core/domain"
)

var (
	// ErrTxNotFound is returned when a transaction is not stored
	ErrTxNotFound = errors.New("transaction not stored")
)

// TransactionRepository handles transaction storage operations
type TransactionRepository interface {
	// Save inserts or replaces a transaction keyed by (chain, id)
	Save(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, chainID string, txID string) (*domain.Transaction, error)

	// Count returns the number of stored transactions for a chain
	Count(ctx context.Context, chainID string) (int, error)
}

// Sink persists every fetched transaction into a repository.
// It satisfies the fetcher's subscriber contract.
type Sink struct {
	name string
	repo TransactionRepository
}

// NewSink wraps repo as a named subscriber.
func NewSink(name string, repo TransactionRepository) *Sink {
	return &Sink{name: name, repo: repo}
}

func (s *Sink) Name() string { return s.name }

func (s *Sink) OnTxFetched(ctx context.Context, tx *domain.Transaction) error {
	if err := s.repo.Save(ctx, tx); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}
