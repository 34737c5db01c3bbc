package services

import (
	"context"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
)

// OrderResult is what a buyer needs to open the gateway checkout.
type OrderResult struct {
	Order       external.GatewayOrder
	Transaction domain.Transaction
}

// RefundResult holds the compensating REFUND row and the purchase it reversed.
type RefundResult struct {
	Refund   domain.Transaction
	Original domain.Transaction
}

// TransactionDetails is a ledger row together with its derived rows.
type TransactionDetails struct {
	Transaction domain.Transaction
	Children    []domain.Transaction
}

// OrderSvc opens purchases.
type OrderSvc interface {
	// CreateOrder checks eligibility, opens a gateway order and records a PENDING purchase.
	CreateOrder(ctx context.Context, buyerID string, req dto.CreateOrderRequest) (*OrderResult, error)
}

// SettlementSvc turns confirmed gateway payments into ledger entries.
type SettlementSvc interface {
	// Settle verifies the gateway's proof and completes the purchase. Safe to call repeatedly.
	Settle(ctx context.Context, req dto.SettleRequest) (*domain.Transaction, error)

	// MarkPaymentFailed records a gateway-reported payment failure against a pending purchase.
	MarkPaymentFailed(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) (*domain.Transaction, error)
}

// RefundSvc reverses completed purchases.
type RefundSvc interface {
	Refund(ctx context.Context, transactionID string, req dto.RefundRequest, requestedBy string) (*RefundResult, error)
}

// WebhookSvc processes authenticated gateway callbacks.
type WebhookSvc interface {
	// HandleWebhook authenticates rawBody against signature and dispatches the event.
	HandleWebhook(ctx context.Context, rawBody []byte, signature, eventID string) error
}

// LedgerReaderSvc answers status and history queries.
type LedgerReaderSvc interface {
	// GetStatus returns a row through the status cache.
	GetStatus(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// GetTransactionDetails returns a row and its children when the caller is a party to it
	// or an admin.
	GetTransactionDetails(ctx context.Context, transactionID, userID string, role domain.UserRole) (*TransactionDetails, error)

	// ListTransactions returns one page of the caller's ledger rows.
	ListTransactions(ctx context.Context, userID string, role domain.UserRole, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// PaymentSvcFacade combines all payment service interfaces.
type PaymentSvcFacade interface {
	OrderSvc
	SettlementSvc
	RefundSvc
	WebhookSvc
	LedgerReaderSvc
}
