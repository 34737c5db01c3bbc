package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger row.
type TransactionKind string

const (
	KindPurchase   TransactionKind = "PURCHASE"
	KindCommission TransactionKind = "COMMISSION"
	KindRefund     TransactionKind = "REFUND"
)

// TransactionStatus is the lifecycle state of a ledger row.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusRefunded   TransactionStatus = "REFUNDED"
	StatusCancelled  TransactionStatus = "CANCELLED"
)

// Failure reasons recorded under Metadata[MetaFailureReason].
const (
	ReasonInvalidSignature      = "InvalidSignature"
	ReasonDuplicatePurchaseRace = "DuplicatePurchaseRace"
	ReasonPaymentMismatch       = "PaymentMismatch"
	ReasonGatewayPaymentFailed  = "GatewayPaymentFailed"
	ReasonNotSettleable         = "NotSettleable"
)

// Well-known metadata keys.
const (
	MetaFailureReason   = "failure_reason"
	MetaGatewayOrder    = "gateway_order"
	MetaGatewayRefundID = "gateway_refund_id"
	MetaRefundReason    = "refund_reason"
	MetaRequestedBy     = "requested_by"
	MetaAttemptedPayID  = "attempted_payment_id"
	MetaCompensation    = "compensation"
	MetaGatewayError    = "gateway_error"
)

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded},
}

// Transaction is one monetary movement in the ledger.
// PURCHASE rows use the gateway order id as TransactionID; COMMISSION and REFUND rows
// reference their purchase through ParentTransactionID.
type Transaction struct {
	TransactionID       string            `json:"transactionID"`
	Kind                TransactionKind   `json:"kind"`
	Amount              int64             `json:"amount"` // smallest currency unit
	CurrencyCode        string            `json:"currencyCode"`
	Status              TransactionStatus `json:"status"`
	BuyerID             string            `json:"buyerID"`
	SellerID            string            `json:"sellerID"`
	ProjectID           string            `json:"projectID"`
	GatewayOrderID      string            `json:"gatewayOrderID"`
	GatewayPaymentID    *string           `json:"gatewayPaymentID,omitempty"`
	ParentTransactionID *string           `json:"parentTransactionID,omitempty"`
	ReceiptID           string            `json:"receiptID"`
	CommissionAmount    *int64            `json:"commissionAmount,omitempty"`
	SellerAmount        *int64            `json:"sellerAmount,omitempty"`
	CommissionRate      *decimal.Decimal  `json:"commissionRate,omitempty"`
	Metadata            map[string]any    `json:"metadata,omitempty"`
	CompletedAt         *time.Time        `json:"completedAt,omitempty"`
	FailedAt            *time.Time        `json:"failedAt,omitempty"`
	RefundedAt          *time.Time        `json:"refundedAt,omitempty"`
	AuditFields
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	for _, s := range allowedTransitions[t.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// IsTerminal is true once no further transition is possible.
func (t *Transaction) IsTerminal() bool {
	return len(allowedTransitions[t.Status]) == 0
}

// IsSettled is true for purchases that reached COMPLETED at some point.
func (t *Transaction) IsSettled() bool {
	return t.Status == StatusCompleted || t.Status == StatusRefunded
}

// IsRefundable returns true if a refund may be issued against this row.
func (t *Transaction) IsRefundable() bool {
	return t.Kind == KindPurchase && t.Status == StatusCompleted
}

// Compensated reports whether paymentID was already refunded back to the buyer
// after this row failed.
func (t *Transaction) Compensated(paymentID string) bool {
	comp, ok := t.Metadata[MetaCompensation].(map[string]any)
	if !ok {
		return false
	}
	return comp["payment_id"] == paymentID && comp["status"] == "refunded"
}

// FailureReason returns the recorded failure reason, if any.
func (t *Transaction) FailureReason() string {
	if t.Metadata == nil {
		return ""
	}
	reason, _ := t.Metadata[MetaFailureReason].(string)
	return reason
}

// StatusTransition describes one state-machine step applied to a stored row.
// The write only succeeds when the row is still in From at ExpectedVersion.
type StatusTransition struct {
	TransactionID    string
	From             TransactionStatus
	To               TransactionStatus
	ExpectedVersion  int
	At               time.Time
	GatewayPaymentID *string
	CommissionAmount *int64
	SellerAmount     *int64
	CommissionRate   *decimal.Decimal
	Metadata         map[string]any // merged into the stored metadata
}

// NewTransition prepares a transition away from the current state of t.
func NewTransition(t *Transaction, to TransactionStatus, at time.Time) StatusTransition {
	return StatusTransition{
		TransactionID:   t.TransactionID,
		From:            t.Status,
		To:              to,
		ExpectedVersion: t.Version,
		At:              at,
	}
}

// Apply returns a copy of t with the transition applied.
func (st StatusTransition) Apply(t Transaction) Transaction {
	t.Status = st.To
	t.LastUpdatedAt = st.At
	t.Version = st.ExpectedVersion + 1
	at := st.At
	switch st.To {
	case StatusCompleted:
		t.CompletedAt = &at
	case StatusFailed, StatusCancelled:
		t.FailedAt = &at
	case StatusRefunded:
		t.RefundedAt = &at
	}
	if st.GatewayPaymentID != nil && t.GatewayPaymentID == nil {
		t.GatewayPaymentID = st.GatewayPaymentID
	}
	if st.CommissionAmount != nil {
		t.CommissionAmount = st.CommissionAmount
	}
	if st.SellerAmount != nil {
		t.SellerAmount = st.SellerAmount
	}
	if st.CommissionRate != nil {
		t.CommissionRate = st.CommissionRate
	}
	t.Metadata = MergeMetadata(t.Metadata, st.Metadata)
	return t
}

// MergeMetadata returns a new map holding base overlaid with extra.
func MergeMetadata(base, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return base
	}
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// TransactionFilter selects ledger rows for listing.
type TransactionFilter struct {
	UserID string
	Role   UserRole
	Offset int
	Limit  int
}
