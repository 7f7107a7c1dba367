// Package evm fetches transactions from EVM-compatible chains over JSON-RPC.
package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/gateway/internal/core/domain"
	"github.com/vietddude/gateway/internal/infra/chain"
)

// Adapter implements chain.Source for EVM chains.
type Adapter struct {
	chainID domain.ChainID
	client  chain.RPCClient
	log     *slog.Logger
}

// NewAdapter creates an EVM adapter over a JSON-RPC client.
func NewAdapter(chainID domain.ChainID, client chain.RPCClient) *Adapter {
	return &Adapter{
		chainID: chainID,
		client:  client,
		log:     slog.Default().With("component", "evm", "chain", chainID),
	}
}

// GetTx fetches the transaction and its receipt concurrently.
// A transaction without a receipt is returned as pending.
func (a *Adapter) GetTx(ctx context.Context, txID string) (*domain.Transaction, error) {
	var rawTx, receipt map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := a.client.Call(gctx, "eth_getTransactionByHash", []any{txID})
		if err != nil {
			return fmt.Errorf("eth_getTransactionByHash: %w", err)
		}
		if result == nil {
			return chain.ErrTxNotFound
		}
		m, ok := result.(map[string]any)
		if !ok {
			return fmt.Errorf("eth_getTransactionByHash: invalid result type %T", result)
		}
		rawTx = m
		return nil
	})
	g.Go(func() error {
		result, err := a.client.Call(gctx, "eth_getTransactionReceipt", []any{txID})
		if err != nil {
			// Receipt is optional; the tx is reported as pending without it.
			a.log.Debug("Receipt unavailable", "tx_id", txID, "error", err)
			return nil
		}
		if m, ok := result.(map[string]any); ok {
			receipt = m
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get tx %s: %w", txID, err)
	}

	tx, err := a.parseTransaction(rawTx)
	if err != nil {
		return nil, fmt.Errorf("get tx %s: %w", txID, err)
	}
	if !strings.EqualFold(tx.ID, txID) {
		return nil, fmt.Errorf("get tx %s: upstream returned hash %q", txID, tx.ID)
	}
	if receipt != nil {
		applyReceipt(tx, receipt)
	}
	return tx, nil
}

// GetChainID returns the chain identifier.
func (a *Adapter) GetChainID() domain.ChainID {
	return a.chainID
}

func (a *Adapter) parseTransaction(raw map[string]any) (*domain.Transaction, error) {
	rawData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal raw tx: %w", err)
	}

	tx := &domain.Transaction{
		ID:        strings.ToLower(getString(raw["hash"])),
		ChainID:   a.chainID,
		Owner:     strings.ToLower(getString(raw["from"])),
		Target:    strings.ToLower(getString(raw["to"])),
		Quantity:  hexToDecimal(getString(raw["value"])),
		Reward:    hexToDecimal(getString(raw["gasPrice"])),
		LastTx:    hexToDecimal(getString(raw["nonce"])),
		Signature: getString(raw["r"]) + strings.TrimPrefix(getString(raw["s"]), "0x"),
		Status:    domain.TxStatusPending,
		FetchedAt: time.Now().UTC(),
		RawData:   rawData,
	}

	if txType, err := parseHexString(getString(raw["type"])); err == nil {
		tx.Format = int(txType)
	}
	if input := strings.TrimPrefix(getString(raw["input"]), "0x"); len(input) > 0 {
		tx.DataSize = uint64(len(input) / 2)
		if len(input) >= 8 {
			tx.Tags = append(tx.Tags, domain.Tag{Name: "Method-Selector", Value: "0x" + input[:8]})
		}
	}
	if bn := getString(raw["blockNumber"]); bn != "" {
		height, err := parseHexString(bn)
		if err != nil {
			return nil, fmt.Errorf("invalid blockNumber: %w", err)
		}
		tx.BlockHeight = height
		tx.BlockHash = getString(raw["blockHash"])
	}
	return tx, nil
}

// applyReceipt sets status and the paid fee from a mined receipt.
func applyReceipt(tx *domain.Transaction, receipt map[string]any) {
	switch getString(receipt["status"]) {
	case "0x1":
		tx.Status = domain.TxStatusConfirmed
	case "0x0":
		tx.Status = domain.TxStatusFailed
	}

	gasUsed, errUsed := parseHexToBigInt(getString(receipt["gasUsed"]))
	price, errPrice := parseHexToBigInt(getString(receipt["effectiveGasPrice"]))
	if errUsed == nil && errPrice == nil {
		tx.Reward = new(big.Int).Mul(gasUsed, price).String()
	}

	if tx.BlockHeight == 0 {
		if height, err := parseHexString(getString(receipt["blockNumber"])); err == nil {
			tx.BlockHeight = height
			tx.BlockHash = getString(receipt["blockHash"])
		}
	}
	if contract := getString(receipt["contractAddress"]); contract != "" && tx.Target == "" {
		tx.Tags = append(tx.Tags, domain.Tag{Name: "Contract-Address", Value: strings.ToLower(contract)})
	}
}

func hexToDecimal(hexStr string) string {
	if hexStr == "" {
		return "0"
	}
	n, err := parseHexToBigInt(hexStr)
	if err != nil {
		return "0"
	}
	return n.String()
}

func parseHexToBigInt(hexStr string) (*big.Int, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n, nil
}

func parseHexString(hexStr string) (uint64, error) {
	n, err := parseHexToBigInt(hexStr)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
