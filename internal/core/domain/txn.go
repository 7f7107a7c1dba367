package domain

import "time"

// Transaction is a fully populated record fetched from a chain source.
type Transaction struct {
	ID          string    `json:"id"`
	ChainID     string    `json:"chain_id"`
	Format      int       `json:"format,omitempty"`
	Owner       string    `json:"owner"`
	Target      string    `json:"target,omitempty"`
	Quantity    string    `json:"quantity"`
	Reward      string    `json:"reward"`
	LastTx      string    `json:"last_tx,omitempty"`
	DataSize    uint64    `json:"data_size"`
	DataRoot    string    `json:"data_root,omitempty"`
	Signature   string    `json:"signature,omitempty"`
	Tags        []Tag     `json:"tags,omitempty"`
	BlockHeight uint64    `json:"block_height,omitempty"`
	BlockHash   string    `json:"block_hash,omitempty"`
	Status      TxStatus  `json:"status"`
	FetchedAt   time.Time `json:"fetched_at"`
	RawData     []byte    `json:"-"`
}

// Tag is a name/value pair attached to a transaction.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// TagNames returns the tag names in order.
func (t *Transaction) TagNames() []string {
	names := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		names[i] = tag.Name
	}
	return names
}

// TagValues returns the tag values in order.
func (t *Transaction) TagValues() []string {
	values := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		values[i] = tag.Value
	}
	return values
}
