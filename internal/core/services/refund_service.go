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

type refundService struct {
	BaseService
	ledger  portsrepo.TransactionRepositoryFacade
	gateway external.PaymentGateway
}

// NewRefundService creates the refund handler.
func NewRefundService(ledger portsrepo.TransactionRepositoryFacade, gateway external.PaymentGateway, options ...ServiceOption) portssvc.RefundSvc {
	return &refundService{
		BaseService: newBaseService(options),
		ledger:      ledger,
		gateway:     gateway,
	}
}

var _ portssvc.RefundSvc = (*refundService)(nil)

// Refund issues a gateway refund and records it as a REFUND row. The purchase row stays
// locked while the gateway is called, so two refunds of one purchase cannot both reach it.
func (s *refundService) Refund(ctx context.Context, transactionID string, req dto.RefundRequest, requestedBy string) (*portssvc.RefundResult, error) {
	logger := s.GetLogger(ctx).With(slog.String("transaction_id", transactionID), slog.String("requested_by", requestedBy))

	if strings.TrimSpace(transactionID) == "" {
		return nil, apperrors.NewValidationFailedError("transaction id is required")
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, apperrors.NewValidationFailedError("refund amount must be positive")
	}

	var (
		result   portssvc.RefundResult
		gwRefund *external.GatewayRefund
	)
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		original, err := tx.LockTransactionByID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("transaction not found")
			}
			return err
		}

		amount, err := refundAmount(original, req.Amount)
		if err != nil {
			return err
		}
		if original.GatewayPaymentID == nil {
			return apperrors.NewAppError(500, "completed purchase has no gateway payment id", nil)
		}

		gwRefund, err = s.refundAtGateway(ctx, external.RefundRequest{
			PaymentID: *original.GatewayPaymentID,
			Amount:    amount,
			Notes: map[string]string{
				"transaction_id": original.TransactionID,
				"reason":         req.Reason,
			},
		})
		if err != nil {
			return err
		}

		now := s.now()
		parentID := original.TransactionID
		refund := domain.Transaction{
			TransactionID:       newDerivedTransactionID(),
			Kind:                domain.KindRefund,
			Amount:              amount,
			CurrencyCode:        original.CurrencyCode,
			Status:              domain.StatusCompleted,
			BuyerID:             original.BuyerID,
			SellerID:            original.SellerID,
			ProjectID:           original.ProjectID,
			GatewayOrderID:      original.GatewayOrderID,
			GatewayPaymentID:    original.GatewayPaymentID,
			ParentTransactionID: &parentID,
			ReceiptID:           refundReceiptID(original.ReceiptID),
			Metadata: map[string]any{
				domain.MetaGatewayRefundID: gwRefund.ID,
				domain.MetaRefundReason:    req.Reason,
				domain.MetaRequestedBy:     requestedBy,
				"gateway_refund_status":    gwRefund.Status,
			},
			CompletedAt: &now,
			AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now, Version: 1},
		}
		if err := tx.InsertTransaction(ctx, refund); err != nil {
			return err
		}

		st := domain.NewTransition(original, domain.StatusRefunded, now)
		st.Metadata = map[string]any{
			domain.MetaGatewayRefundID: gwRefund.ID,
			domain.MetaRefundReason:    req.Reason,
			"refunded_amount":          amount,
		}
		if err := tx.ApplyTransition(ctx, st); err != nil {
			return err
		}

		result = portssvc.RefundResult{Refund: refund, Original: st.Apply(*original)}
		return nil
	})
	if err != nil {
		if gwRefund != nil {
			// money left the gateway but the ledger did not record it
			logger.Error("Refund issued at gateway but ledger write failed; reconcile manually",
				slog.String("gateway_refund_id", gwRefund.ID),
				slog.Int64("amount", gwRefund.Amount),
				slog.String("error", err.Error()))
			s.Metrics.Refund("unrecorded")
		} else {
			s.Metrics.Refund("rejected")
			logger.Info("Refund not issued", slog.String("reason", err.Error()))
		}
		return nil, err
	}

	s.Metrics.Refund(outcomeCompleted)
	logger.Info("Refund recorded",
		slog.String("refund_transaction_id", result.Refund.TransactionID),
		slog.String("gateway_refund_id", gwRefund.ID),
		slog.Int64("amount", result.Refund.Amount))

	s.invalidate(ctx, result.Original.TransactionID, result.Refund.TransactionID)
	s.notify(ctx, external.EventPurchaseRefunded, map[string]any{
		"transaction_id":        result.Original.TransactionID,
		"refund_transaction_id": result.Refund.TransactionID,
		"buyer_id":              result.Original.BuyerID,
		"seller_id":             result.Original.SellerID,
		"project_id":            result.Original.ProjectID,
		"amount":                result.Refund.Amount,
		"currency":              result.Refund.CurrencyCode,
		"reason":                req.Reason,
	})
	return &result, nil
}

// refundAmount checks that original can be refunded and resolves the amount to return.
func refundAmount(original *domain.Transaction, requested *int64) (int64, error) {
	if original.Kind != domain.KindPurchase {
		return 0, apperrors.NewValidationFailedError("only purchases can be refunded")
	}
	if original.Status == domain.StatusRefunded {
		return 0, domain.ErrAlreadyRefunded
	}
	if !original.IsRefundable() {
		return 0, fmt.Errorf("refund %s (%s): %w", original.TransactionID, original.Status, domain.ErrNotRefundable)
	}
	if requested == nil {
		return original.Amount, nil
	}
	if *requested > original.Amount {
		return 0, apperrors.NewValidationFailedError(
			fmt.Sprintf("refund amount %d exceeds purchase amount %d", *requested, original.Amount))
	}
	return *requested, nil
}

func (s *refundService) refundAtGateway(ctx context.Context, req external.RefundRequest) (*external.GatewayRefund, error) {
	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	start := time.Now()
	refund, err := s.gateway.Refund(gwCtx, req)
	s.Metrics.ObserveGateway("refund", start, err)
	if err != nil {
		if errors.Is(err, external.ErrGatewayRejected) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRefundRejected, err)
		}
		if errors.Is(err, apperrors.ErrGateway) {
			return nil, err
		}
		return nil, apperrors.NewGatewayError("failed to issue refund", err)
	}
	if refund == nil || refund.ID == "" {
		return nil, apperrors.NewGatewayError("gateway returned a refund without id", nil)
	}
	return refund, nil
}
