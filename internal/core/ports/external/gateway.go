package external

import (
	"context"
	"errors"
)

// ErrGatewayRejected marks an explicit refusal by the gateway, as opposed to a transport
// failure. Rejections are not retryable.
var ErrGatewayRejected = errors.New("rejected by payment gateway")

// Gateway payment statuses that count as money received.
const (
	PaymentStatusCaptured   = "captured"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusFailed     = "failed"
)

// CreateOrderRequest opens an order at the gateway.
type CreateOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is the gateway's view of an order.
type GatewayOrder struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// GatewayPayment is the gateway's view of a payment attempt.
type GatewayPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// IsSuccessful reports whether the buyer's money was captured. An authorization alone
// can still be released by the gateway.
func (p GatewayPayment) IsSuccessful() bool {
	return p.Status == PaymentStatusCaptured
}

// RefundRequest returns money for a payment; Amount is in the smallest currency unit.
type RefundRequest struct {
	PaymentID string
	Amount    int64
	Notes     map[string]string
}

// GatewayRefund is the gateway's acknowledgement of a refund.
type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

// PaymentGateway is the external payment processor.
// Implementations return apperrors.ErrGateway-kinded errors for transport failures and
// upstream 5xx responses, and errors matching ErrGatewayRejected for explicit 4xx refusals.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	Refund(ctx context.Context, req RefundRequest) (*GatewayRefund, error)
}
