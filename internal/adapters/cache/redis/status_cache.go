package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	goredis "github.com/redis/go-redis/v9"
)

// StatusCache stores ledger rows as JSON under a short TTL.
type StatusCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

var _ external.StatusCache = (*StatusCache)(nil)

func NewStatusCache(client goredis.Cmdable, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

func (c *StatusCache) Get(ctx context.Context, transactionID string) (*domain.Transaction, bool, error) {
	raw, err := c.client.Get(ctx, statusKey(transactionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached status for %s: %w", transactionID, err)
	}
	var txn domain.Transaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		// A bad entry is a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return &txn, true, nil
}

func (c *StatusCache) Set(ctx context.Context, txn domain.Transaction) error {
	raw, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to encode status for %s: %w", txn.TransactionID, err)
	}
	if err := c.client.Set(ctx, statusKey(txn.TransactionID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache status for %s: %w", txn.TransactionID, err)
	}
	return nil
}

func (c *StatusCache) Invalidate(ctx context.Context, transactionIDs ...string) error {
	if len(transactionIDs) == 0 {
		return nil
	}
	keys := make([]string, len(transactionIDs))
	for i, id := range transactionIDs {
		keys[i] = statusKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached status: %w", err)
	}
	return nil
}
