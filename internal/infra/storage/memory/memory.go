package memory

import (
	"context"
	"sync"

	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/infra/storage"
)

// TxRepo keeps fetched transactions in memory.
type TxRepo struct {
	mu  sync.RWMutex
	txs map[string]*domain.Transaction
}

func NewTxRepo() *TxRepo {
	return &TxRepo{txs: make(map[string]*domain.Transaction)}
}

func key(chainID, txID string) string {
	return chainID + ":" + txID
}

func (r *TxRepo) Save(ctx context.Context, tx *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	cp.Tags = append([]domain.Tag(nil), tx.Tags...)
	r.txs[key(tx.ChainID, tx.ID)] = &cp
	return nil
}

func (r *TxRepo) GetByID(ctx context.Context, chainID string, txID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[key(chainID, txID)]
	if !ok {
		return nil, storage.ErrTxNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r *TxRepo) Count(ctx context.Context, chainID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, tx := range r.txs {
		if tx.ChainID == chainID {
			n++
		}
	}
	return n, nil
}
