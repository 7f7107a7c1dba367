package domain

import "time"

// Event represents a notification emitted by the gateway.
type Event struct {
	EventType   EventType      `json:"event_type"`
	ChainID     string         `json:"chain_id"`
	Transaction *Transaction   `json:"transaction"`
	EmittedAt   uint64         `json:"emitted_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type EventType string

const (
	EventTypeTxFetched EventType = "tx_fetched"
)

// NewTxFetchedEvent wraps a fetched transaction.
func NewTxFetchedEvent(tx *Transaction) *Event {
	return &Event{
		EventType:   EventTypeTxFetched,
		ChainID:     tx.ChainID,
		Transaction: tx,
		EmittedAt:   uint64(time.Now().Unix()),
	}
}
