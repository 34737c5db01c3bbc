// Package redis backs the ledger status cache and webhook dedupe with Redis.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix  = "vibepay:txn-status:"
	webhookKeyPrefix = "vibepay:webhook:"
)

func statusKey(transactionID string) string { return statusKeyPrefix + transactionID }

func webhookKey(eventID string) string { return webhookKeyPrefix + eventID }

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr, password string, db int, logger *slog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.Info("Connected to redis", slog.String("addr", addr), slog.Int("db", db))
	return client, nil
}
