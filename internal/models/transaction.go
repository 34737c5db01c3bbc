package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of payment_transactions. Nullable columns are pointers and
// metadata is the raw jsonb document.
type Transaction struct {
	TransactionID       string              `db:"transaction_id"`
	Kind                string              `db:"kind"`
	Amount              int64               `db:"amount"`
	CurrencyCode        string              `db:"currency_code"`
	Status              string              `db:"status"`
	BuyerID             string              `db:"buyer_id"`
	SellerID            string              `db:"seller_id"`
	ProjectID           string              `db:"project_id"`
	GatewayOrderID      string              `db:"gateway_order_id"`
	GatewayPaymentID    *string             `db:"gateway_payment_id"`
	ParentTransactionID *string             `db:"parent_transaction_id"`
	ReceiptID           string              `db:"receipt_id"`
	CommissionAmount    *int64              `db:"commission_amount"`
	SellerAmount        *int64              `db:"seller_amount"`
	CommissionRate      decimal.NullDecimal `db:"commission_rate"`
	Metadata            []byte              `db:"metadata"`
	CompletedAt         *time.Time          `db:"completed_at"`
	FailedAt            *time.Time          `db:"failed_at"`
	RefundedAt          *time.Time          `db:"refunded_at"`
	AuditFields
}
