package external

import (
	"context"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
)

// Notification event names.
const (
	EventPurchaseCompleted = "purchase.completed"
	EventPurchaseRefunded  = "purchase.refunded"
	EventPaymentFailed     = "payment.failed"
)

// Notifier delivers fire-and-forget notifications. Failures are logged by callers and
// never affect the ledger.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any) error
}

// ReceiptArchiver stores an immutable copy of every settled receipt.
type ReceiptArchiver interface {
	// Archive stores the receipt and returns its location.
	Archive(ctx context.Context, receipt domain.Receipt) (string, error)
}

// StatusCache is a read-through cache in front of ledger status reads.
type StatusCache interface {
	// Get returns the cached row and whether it was present.
	Get(ctx context.Context, transactionID string) (*domain.Transaction, bool, error)
	Set(ctx context.Context, txn domain.Transaction) error
	Invalidate(ctx context.Context, transactionIDs ...string) error
}

// WebhookDeduper remembers webhook deliveries already processed.
type WebhookDeduper interface {
	// FirstSeen records eventID and reports true only for the first delivery.
	FirstSeen(ctx context.Context, eventID string) (bool, error)

	// Forget releases eventID so a redelivery is processed again.
	Forget(ctx context.Context, eventID string) error
}
