package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/infra/storage"
)

// TxRepo implements storage.TransactionRepository using PostgreSQL.
type TxRepo struct {
	db *DB
}

// NewTxRepo creates a new PostgreSQL transaction repository.
func NewTxRepo(db *DB) *TxRepo {
	return &TxRepo{db: db}
}

const upsertTx = `
	INSERT INTO transactions (
		chain_id, tx_id, format, owner, target, quantity, reward, last_tx,
		data_size, data_root, signature, tag_names, tag_values,
		block_height, block_hash, status, raw_data, fetched_at, updated_at
	) VALUES (
		:chain_id, :tx_id, :format, :owner, :target, :quantity, :reward, :last_tx,
		:data_size, :data_root, :signature, :tag_names, :tag_values,
		:block_height, :block_hash, :status, :raw_data, :fetched_at, NOW()
	)
	ON CONFLICT (chain_id, tx_id) DO UPDATE SET
		block_height = EXCLUDED.block_height,
		block_hash   = EXCLUDED.block_hash,
		status       = EXCLUDED.status,
		raw_data     = EXCLUDED.raw_data,
		fetched_at   = EXCLUDED.fetched_at,
		updated_at   = NOW()
`

// Save upserts a transaction.
func (r *TxRepo) Save(ctx context.Context, tx *domain.Transaction) error {
	if _, err := r.db.NamedExecContext(ctx, upsertTx, fromDomain(tx)); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TxRepo) GetByID(ctx context.Context, chainID string, txID string) (*domain.Transaction, error) {
	query := `
		SELECT chain_id, tx_id, format, owner, target, quantity, reward, last_tx,
		       data_size, data_root, signature, tag_names, tag_values,
		       block_height, block_hash, status, raw_data, fetched_at
		FROM transactions
		WHERE chain_id = $1 AND tx_id = $2
	`

	var row txRow
	err := r.db.GetContext(ctx, &row, query, chainID, txID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return row.toDomain(), nil
}

// Count returns the number of stored transactions for a chain.
func (r *TxRepo) Count(ctx context.Context, chainID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM transactions WHERE chain_id = $1`, chainID); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

type txRow struct {
	ChainID     string         `db:"chain_id"`
	TxID        string         `db:"tx_id"`
	Format      int            `db:"format"`
	Owner       string         `db:"owner"`
	Target      string         `db:"target"`
	Quantity    string         `db:"quantity"`
	Reward      string         `db:"reward"`
	LastTx      string         `db:"last_tx"`
	DataSize    int64          `db:"data_size"`
	DataRoot    string         `db:"data_root"`
	Signature   string         `db:"signature"`
	TagNames    pq.StringArray `db:"tag_names"`
	TagValues   pq.StringArray `db:"tag_values"`
	BlockHeight sql.NullInt64  `db:"block_height"`
	BlockHash   sql.NullString `db:"block_hash"`
	Status      string         `db:"status"`
	RawData     []byte         `db:"raw_data"`
	FetchedAt   time.Time      `db:"fetched_at"`
}

func fromDomain(tx *domain.Transaction) txRow {
	row := txRow{
		ChainID:   tx.ChainID,
		TxID:      tx.ID,
		Format:    tx.Format,
		Owner:     tx.Owner,
		Target:    tx.Target,
		Quantity:  numericOrZero(tx.Quantity),
		Reward:    numericOrZero(tx.Reward),
		LastTx:    tx.LastTx,
		DataSize:  int64(tx.DataSize),
		DataRoot:  tx.DataRoot,
		Signature: tx.Signature,
		TagNames:  pq.StringArray(tx.TagNames()),
		TagValues: pq.StringArray(tx.TagValues()),
		Status:    string(tx.Status),
		FetchedAt: tx.FetchedAt,
	}
	if len(tx.RawData) > 0 {
		row.RawData = tx.RawData
	}
	if tx.BlockHeight > 0 {
		row.BlockHeight = sql.NullInt64{Int64: int64(tx.BlockHeight), Valid: true}
		row.BlockHash = sql.NullString{String: tx.BlockHash, Valid: true}
	}
	if row.FetchedAt.IsZero() {
		row.FetchedAt = time.Now().UTC()
	}
	return row
}

func (t *txRow) toDomain() *domain.Transaction {
	tx := &domain.Transaction{
		ID:        t.TxID,
		ChainID:   t.ChainID,
		Format:    t.Format,
		Owner:     t.Owner,
		Target:    t.Target,
		Quantity:  t.Quantity,
		Reward:    t.Reward,
		LastTx:    t.LastTx,
		DataSize:  uint64(t.DataSize),
		DataRoot:  t.DataRoot,
		Signature: t.Signature,
		Status:    domain.TxStatus(t.Status),
		FetchedAt: t.FetchedAt,
		RawData:   t.RawData,
	}
	if t.BlockHeight.Valid {
		tx.BlockHeight = uint64(t.BlockHeight.Int64)
		tx.BlockHash = t.BlockHash.String
	}
	for i, name := range t.TagNames {
		tag := domain.Tag{Name: name}
		if i < len(t.TagValues) {
			tag.Value = t.TagValues[i]
		}
		tx.Tags = append(tx.Tags, tag)
	}
	return tx
}

func numericOrZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
