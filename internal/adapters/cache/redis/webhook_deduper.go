package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	goredis "github.com/redis/go-redis/v9"
)

// WebhookDeduper records processed webhook event ids with SETNX.
type WebhookDeduper struct {
	client goredis.Cmdable
	ttl    time.Duration
}

var _ external.WebhookDeduper = (*WebhookDeduper)(nil)

func NewWebhookDeduper(client goredis.Cmdable, ttl time.Duration) *WebhookDeduper {
	return &WebhookDeduper{client: client, ttl: ttl}
}

func (d *WebhookDeduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, webhookKey(eventID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event %s: %w", eventID, err)
	}
	return ok, nil
}

func (d *WebhookDeduper) Forget(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, webhookKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to release webhook event %s: %w", eventID, err)
	}
	return nil
}
