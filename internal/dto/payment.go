package dto

import (
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest defines the data needed to open a purchase.
// Amount is the price the client saw, in the smallest currency unit; it must match the
// project's authoritative price.
type CreateOrderRequest struct {
	ProjectID    string `json:"projectID" binding:"required"`
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	CurrencyCode string `json:"currencyCode" binding:"required,uppercase,len=3"`
}

// CreateOrderResponse is returned to the client to open the gateway checkout.
type CreateOrderResponse struct {
	OrderID       string `json:"orderID"`
	TransactionID string `json:"transactionID"`
	ReceiptID     string `json:"receiptID"`
	Amount        int64  `json:"amount"`
	CurrencyCode  string `json:"currencyCode"`
	Status        string `json:"status"`
	KeyID         string `json:"keyID,omitempty"`
}

// SettleRequest carries the gateway's checkout callback.
type SettleRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`

	// Set by the server from the authenticated caller, never from the body.
	CallerID   string          `json:"-"`
	CallerRole domain.UserRole `json:"-"`
}

// RefundRequest defines an admin refund. A nil Amount refunds the full purchase.
type RefundRequest struct {
	Amount *int64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Reason string `json:"reason" binding:"required,max=255"`
}

// ListTransactionsParams defines pagination for ledger listings.
type ListTransactionsParams struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// TransactionResponse defines the data returned for a ledger row.
type TransactionResponse struct {
	TransactionID       string           `json:"transactionID"`
	Kind                string           `json:"kind"`
	Status              string           `json:"status"`
	Amount              int64            `json:"amount"`
	CurrencyCode        string           `json:"currencyCode"`
	BuyerID             string           `json:"buyerID"`
	SellerID            string           `json:"sellerID"`
	ProjectID           string           `json:"projectID"`
	GatewayOrderID      string           `json:"gatewayOrderID"`
	GatewayPaymentID    *string          `json:"gatewayPaymentID,omitempty"`
	ParentTransactionID *string          `json:"parentTransactionID,omitempty"`
	ReceiptID           string           `json:"receiptID"`
	CommissionAmount    *int64           `json:"commissionAmount,omitempty"`
	SellerAmount        *int64           `json:"sellerAmount,omitempty"`
	CommissionRate      *decimal.Decimal `json:"commissionRate,omitempty"`
	FailureReason       string           `json:"failureReason,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	CompletedAt         *time.Time       `json:"completedAt,omitempty"`
	FailedAt            *time.Time       `json:"failedAt,omitempty"`
	RefundedAt          *time.Time       `json:"refundedAt,omitempty"`
}

// TransactionDetailsResponse is a ledger row with its COMMISSION and REFUND rows.
type TransactionDetailsResponse struct {
	Transaction TransactionResponse   `json:"transaction"`
	Children    []TransactionResponse `json:"children"`
}

// ListTransactionsResponse is one page of ledger rows.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	Total        int                   `json:"total"`
}

// RefundResponse returns both sides of a refund.
type RefundResponse struct {
	Refund   TransactionResponse `json:"refund"`
	Original TransactionResponse `json:"original"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:       txn.TransactionID,
		Kind:                string(txn.Kind),
		Status:              string(txn.Status),
		Amount:              txn.Amount,
		CurrencyCode:        txn.CurrencyCode,
		BuyerID:             txn.BuyerID,
		SellerID:            txn.SellerID,
		ProjectID:           txn.ProjectID,
		GatewayOrderID:      txn.GatewayOrderID,
		GatewayPaymentID:    txn.GatewayPaymentID,
		ParentTransactionID: txn.ParentTransactionID,
		ReceiptID:           txn.ReceiptID,
		CommissionAmount:    txn.CommissionAmount,
		SellerAmount:        txn.SellerAmount,
		CommissionRate:      txn.CommissionRate,
		FailureReason:       txn.FailureReason(),
		CreatedAt:           txn.CreatedAt,
		CompletedAt:         txn.CompletedAt,
		FailedAt:            txn.FailedAt,
		RefundedAt:          txn.RefundedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
