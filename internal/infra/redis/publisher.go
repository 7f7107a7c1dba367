package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/gateway/internal/core/domain"
)

type pubClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publisher forwards fetched transactions to a Redis pub/sub channel.
type Publisher struct {
	rdb      pubClient
	channel  string
	encoding string
}

// NewPublisher creates a publisher for one chain. Encoding is json or proto.
func NewPublisher(client *Client, chainID, encoding string) (*Publisher, error) {
	return newPublisher(client.rdb, chainID, encoding)
}

func newPublisher(rdb pubClient, chainID, encoding string) (*Publisher, error) {
	switch encoding {
	case "":
		encoding = EncodingJSON
	case EncodingJSON, EncodingProto:
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return &Publisher{rdb: rdb, channel: channelKey(chainID), encoding: encoding}, nil
}

// Name implements the subscriber contract.
func (p *Publisher) Name() string { return "redis" }

// Channel returns the pub/sub channel name.
func (p *Publisher) Channel() string { return p.channel }

// OnTxFetched publishes the transaction as a tx_fetched event.
func (p *Publisher) OnTxFetched(ctx context.Context, tx *domain.Transaction) error {
	payload, err := Encode(p.encoding, domain.NewTxFetchedEvent(tx))
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Encode serializes an event in the given encoding.
func Encode(encoding string, event *domain.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	if encoding != EncodingProto {
		return data, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	out, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal proto: %w", err)
	}
	return out, nil
}

// Decode parses a payload produced by Encode back into a generic map.
func Decode(encoding string, payload []byte) (map[string]any, error) {
	if encoding != EncodingProto {
		var fields map[string]any
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, err
		}
		return fields, nil
	}
	var st structpb.Struct
	if err := proto.Unmarshal(payload, &st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}
