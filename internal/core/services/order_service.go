package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
)

type orderService struct {
	BaseService
	ledger   portsrepo.TransactionRepositoryFacade
	projects external.ProjectStore
	buyers   external.BuyerStore
	gateway  external.PaymentGateway
}

// NewOrderService creates the order initiation service.
func NewOrderService(
	ledger portsrepo.TransactionRepositoryFacade,
	projects external.ProjectStore,
	buyers external.BuyerStore,
	gateway external.PaymentGateway,
	options ...ServiceOption,
) portssvc.OrderSvc {
	return &orderService{
		BaseService: newBaseService(options),
		ledger:      ledger,
		projects:    projects,
		buyers:      buyers,
		gateway:     gateway,
	}
}

var _ portssvc.OrderSvc = (*orderService)(nil)

func (s *orderService) CreateOrder(ctx context.Context, buyerID string, req dto.CreateOrderRequest) (*portssvc.OrderResult, error) {
	logger := s.GetLogger(ctx).With(slog.String("buyer_id", buyerID), slog.String("project_id", req.ProjectID))

	if err := validateOrderRequest(buyerID, req); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(req.CurrencyCode)

	project, err := s.checkEligibility(ctx, buyerID, req.ProjectID)
	if err != nil {
		logger.Info("Order rejected", slog.String("reason", err.Error()))
		return nil, err
	}

	if req.Amount != project.Price || !strings.EqualFold(currency, project.CurrencyCode) {
		logger.Warn("Claimed amount does not match project price",
			slog.Int64("claimed_amount", req.Amount),
			slog.String("claimed_currency", currency),
			slog.Int64("price", project.Price),
			slog.String("price_currency", project.CurrencyCode))
		return nil, fmt.Errorf("create order: %w", domain.ErrAmountMismatch)
	}

	now := s.now()
	receiptID, err := newReceiptID(project.ProjectID, buyerID, now)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to generate receipt id", err)
	}

	order, err := s.openGatewayOrder(ctx, external.CreateOrderRequest{
		Amount:   project.Price,
		Currency: strings.ToUpper(project.CurrencyCode),
		Receipt:  receiptID,
		Notes: map[string]string{
			"project_id": project.ProjectID,
			"buyer_id":   buyerID,
			"seller_id":  project.SellerID,
		},
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create gateway order", slog.String("receipt_id", receiptID))
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID:  order.ID,
		Kind:           domain.KindPurchase,
		Amount:         project.Price,
		CurrencyCode:   strings.ToUpper(project.CurrencyCode),
		Status:         domain.StatusPending,
		BuyerID:        buyerID,
		SellerID:       project.SellerID,
		ProjectID:      project.ProjectID,
		GatewayOrderID: order.ID,
		ReceiptID:      receiptID,
		Metadata: map[string]any{
			domain.MetaGatewayOrder: map[string]any{
				"id":         order.ID,
				"status":     order.Status,
				"created_at": order.CreatedAt,
			},
			"project_title": project.Title,
		},
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now, Version: 1},
	}

	if err := s.ledger.SaveTransaction(ctx, txn); err != nil {
		// The gateway order is left unpaid and expires on its own.
		s.LogError(ctx, err, "Failed to persist pending purchase", slog.String("gateway_order_id", order.ID))
		return nil, fmt.Errorf("persist pending purchase: %w", err)
	}

	s.Metrics.OrderCreated(txn.CurrencyCode)
	logger.Info("Order created",
		slog.String("gateway_order_id", order.ID),
		slog.String("receipt_id", receiptID),
		slog.Int64("amount", txn.Amount))

	return &portssvc.OrderResult{Order: *order, Transaction: txn}, nil
}

// checkEligibility evaluates every purchase precondition that does not depend on the
// claimed price.
func (s *orderService) checkEligibility(ctx context.Context, buyerID, projectID string) (*domain.Project, error) {
	buyer, err := s.buyers.GetBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("buyer not found")
		}
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	if !buyer.IsActive {
		return nil, domain.ErrBuyerInactive
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("project not found")
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if !project.Purchasable {
		return nil, domain.ErrProjectNotPurchasable
	}
	if project.SellerID == buyerID {
		return nil, domain.ErrSelfPurchase
	}

	owned, err := s.ledger.ExistsCompletedPurchase(ctx, buyerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("check existing purchase: %w", err)
	}
	if owned {
		return nil, domain.ErrAlreadyPurchased
	}
	return project, nil
}

func (s *orderService) openGatewayOrder(ctx context.Context, req external.CreateOrderRequest) (*external.GatewayOrder, error) {
	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	start := time.Now()
	order, err := s.gateway.CreateOrder(gwCtx, req)
	s.Metrics.ObserveGateway("create_order", start, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrGateway) {
			return nil, err
		}
		return nil, apperrors.NewGatewayError("failed to create gateway order", err)
	}
	if order == nil || order.ID == "" {
		return nil, apperrors.NewGatewayError("gateway returned an order without id", nil)
	}
	return order, nil
}

func validateOrderRequest(buyerID string, req dto.CreateOrderRequest) error {
	switch {
	case strings.TrimSpace(buyerID) == "":
		return apperrors.NewValidationFailedError("buyer id is required")
	case strings.TrimSpace(req.ProjectID) == "":
		return apperrors.NewValidationFailedError("project id is required")
	case req.Amount <= 0:
		return apperrors.NewValidationFailedError("amount must be positive")
	case len(req.CurrencyCode) != 3:
		return apperrors.NewValidationFailedError("currency code must be a 3-letter ISO code")
	}
	return nil
}
