package chain

import (
	"context"
	"errors"

	"github.com/vietddude/gateway/internal/core/domain"
)

var (
	// ErrTxNotFound means the upstream does not know the transaction (yet).
	ErrTxNotFound = errors.New("transaction not found")

	// ErrTxPending means the upstream knows the transaction but cannot serve it yet.
	ErrTxPending = errors.New("transaction pending")
)

// Source fetches full transactions from an upstream chain.
// Every error is treated as transient by callers.
type Source interface {
	// GetTx fetches a transaction by ID
	GetTx(ctx context.Context, txID string) (*domain.Transaction, error)

	// GetChainID returns the chain identifier
	GetChainID() domain.ChainID
}

// RESTClient is the transport used by REST-based adapters.
type RESTClient interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// RPCClient is the transport used by JSON-RPC adapters.
type RPCClient interface {
	Call(ctx context.Context, method string, params []any) (any, error)
}
