package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	popTimeout   = 5 * time.Second
	errorBackoff = time.Second
)

// listClient is the subset of go-redis used by Queue.
type listClient interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// AdmitFunc hands a popped transaction ID to the fetcher.
type AdmitFunc func(txID string) error

// Queue is a Redis list of transaction IDs waiting to be fetched.
type Queue struct {
	rdb     listClient
	chainID string
	key     string
	log     *slog.Logger
}

// NewQueue creates a queue for one chain.
func NewQueue(client *Client, chainID string) *Queue {
	return newQueue(client.rdb, chainID)
}

func newQueue(rdb listClient, chainID string) *Queue {
	return &Queue{
		rdb:     rdb,
		chainID: chainID,
		key:     queueKey(chainID),
		log:     slog.Default().With("component", "redis_queue", "chain", chainID),
	}
}

// Push appends transaction IDs to the tail of the queue.
func (q *Queue) Push(ctx context.Context, txIDs ...string) (int64, error) {
	if len(txIDs) == 0 {
		return q.Len(ctx)
	}
	values := make([]any, len(txIDs))
	for i, id := range txIDs {
		values[i] = id
	}
	n, err := q.rdb.RPush(ctx, q.key, values...).Result()
	if err != nil {
		return 0, fmt.Errorf("rpush failed: %w", err)
	}
	return n, nil
}

// Len returns the number of IDs waiting in Redis.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// Run pops IDs and admits them until ctx is done or admit fails.
// An ID that cannot be admitted is pushed back to the head of the list.
func (q *Queue) Run(ctx context.Context, admit AdmitFunc) error {
	q.log.Info("Consuming transaction queue", "key", q.key)
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := q.rdb.BLPop(ctx, popTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.log.Warn("Queue pop failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
			continue
		}
		// BLPOP returns [key, value]
		if len(res) != 2 {
			continue
		}

		txID := res[1]
		if err := admit(txID); err != nil {
			pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), popTimeout)
			if perr := q.rdb.LPush(pushCtx, q.key, txID).Err(); perr != nil {
				q.log.Error("Failed to return TX to queue", "tx_id", txID, "error", perr)
			}
			cancel()
			return fmt.Errorf("admit %s: %w", txID, err)
		}
	}
}
