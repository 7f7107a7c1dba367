// Package arweave fetches transactions from Arweave gateway REST endpoints.
package arweave

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/infra/chain"
	"github.com/vietddude/gateway/internal/infra/rpc/provider"
)

// Adapter implements chain.Source for Arweave.
type Adapter struct {
	chainID domain.ChainID
	client  chain.RESTClient
	log     *slog.Logger
}

// NewAdapter creates an Arweave adapter over a REST client.
func NewAdapter(chainID domain.ChainID, client chain.RESTClient) *Adapter {
	return &Adapter{
		chainID: chainID,
		client:  client,
		log:     slog.Default().With("component", "arweave", "chain", chainID),
	}
}

type rawTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type rawTx struct {
	Format    int      `json:"format"`
	ID        string   `json:"id"`
	LastTx    string   `json:"last_tx"`
	Owner     string   `json:"owner"`
	Tags      []rawTag `json:"tags"`
	Target    string   `json:"target"`
	Quantity  string   `json:"quantity"`
	DataSize  string   `json:"data_size"`
	DataRoot  string   `json:"data_root"`
	Reward    string   `json:"reward"`
	Signature string   `json:"signature"`
}

type rawStatus struct {
	BlockHeight           uint64 `json:"block_height"`
	BlockIndepHash        string `json:"block_indep_hash"`
	NumberOfConfirmations uint64 `json:"number_of_confirmations"`
}

// GetTx fetches the transaction header and, best effort, its confirmation status.
func (a *Adapter) GetTx(ctx context.Context, txID string) (*domain.Transaction, error) {
	var (
		body   []byte
		status *rawStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		body, err = a.client.Get(gctx, "tx/"+txID)
		return mapStatusError(err)
	})
	g.Go(func() error {
		s, err := a.getStatus(gctx, txID)
		if err != nil {
			a.log.Debug("TX status unavailable", "tx_id", txID, "error", err)
			return nil
		}
		status = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get tx %s: %w", txID, err)
	}

	tx, err := parseTx(body)
	if err != nil {
		return nil, fmt.Errorf("get tx %s: %w", txID, err)
	}
	if tx.ID != txID {
		return nil, fmt.Errorf("get tx %s: upstream returned id %q", txID, tx.ID)
	}

	tx.ChainID = a.chainID
	tx.Status = domain.TxStatusPending
	if status != nil {
		tx.Status = domain.TxStatusConfirmed
		tx.BlockHeight = status.BlockHeight
		tx.BlockHash = status.BlockIndepHash
	}
	return tx, nil
}

// GetChainID returns the chain identifier.
func (a *Adapter) GetChainID() domain.ChainID {
	return a.chainID
}

func (a *Adapter) getStatus(ctx context.Context, txID string) (*rawStatus, error) {
	body, err := a.client.Get(ctx, "tx/"+txID+"/status")
	if err != nil {
		return nil, mapStatusError(err)
	}
	var s rawStatus
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &s, nil
}

func parseTx(body []byte) (*domain.Transaction, error) {
	var raw rawTx
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse tx: %w", err)
	}

	var dataSize uint64
	if raw.DataSize != "" {
		n, err := strconv.ParseUint(raw.DataSize, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid data_size %q: %w", raw.DataSize, err)
		}
		dataSize = n
	}

	tags := make([]domain.Tag, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		name, err := decodeB64URL(t.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid tag name: %w", err)
		}
		value, err := decodeB64URL(t.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid tag value: %w", err)
		}
		tags = append(tags, domain.Tag{Name: name, Value: value})
	}

	return &domain.Transaction{
		ID:        raw.ID,
		Format:    raw.Format,
		Owner:     raw.Owner,
		Target:    raw.Target,
		Quantity:  raw.Quantity,
		Reward:    raw.Reward,
		LastTx:    raw.LastTx,
		DataSize:  dataSize,
		DataRoot:  raw.DataRoot,
		Signature: raw.Signature,
		Tags:      tags,
		FetchedAt: time.Now().UTC(),
		RawData:   body,
	}, nil
}

// decodeB64URL decodes Arweave's unpadded base64url encoding.
func decodeB64URL(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mapStatusError(err error) error {
	if err == nil {
		return nil
	}
	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", chain.ErrTxNotFound, err)
		case http.StatusAccepted:
			return fmt.Errorf("%w: %v", chain.ErrTxPending, err)
		}
	}
	return err
}
