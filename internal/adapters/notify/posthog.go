package notify

import (
	"context"

	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
)

// enqueuer is satisfied by utils.PosthogClientWrapper.
type enqueuer interface {
	Enqueue(distinctID, event string, properties map[string]any) error
}

// AnalyticsNotifier records payment events in product analytics, attributed to the buyer.
type AnalyticsNotifier struct {
	client enqueuer
}

var _ external.Notifier = (*AnalyticsNotifier)(nil)

func NewAnalyticsNotifier(client enqueuer) *AnalyticsNotifier {
	return &AnalyticsNotifier{client: client}
}

func (n *AnalyticsNotifier) Notify(_ context.Context, event string, payload map[string]any) error {
	distinctID, _ := payload["buyer_id"].(string)
	if distinctID == "" {
		distinctID = "vibepay-backend"
	}
	return n.client.Enqueue(distinctID, event, payload)
}
