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
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
)

// Settlement outcomes, as recorded in metrics.
const (
	outcomeCompleted        = "completed"
	outcomeAlreadySettled   = "already_settled"
	outcomeInvalidSignature = "invalid_signature"
	outcomePaymentMismatch  = "payment_mismatch"
	outcomeNotCaptured      = "not_captured"
	outcomeForbidden        = "forbidden"
	outcomeDuplicateRace    = "duplicate_race"
	outcomeGatewayFailed    = "gateway_failed"
	outcomeStorageFailed    = "storage_failed"
)

type settlementService struct {
	BaseService
	ledger        portsrepo.TransactionRepositoryFacade
	projects      external.ProjectStore
	gateway       external.PaymentGateway
	policy        domain.CommissionPolicy
	signingSecret string
}

// NewSettlementService creates the settlement processor. signingSecret is the gateway key
// secret used to sign checkout callbacks.
func NewSettlementService(
	ledger portsrepo.TransactionRepositoryFacade,
	projects external.ProjectStore,
	gateway external.PaymentGateway,
	policy domain.CommissionPolicy,
	signingSecret string,
	options ...ServiceOption,
) portssvc.SettlementSvc {
	return &settlementService{
		BaseService:   newBaseService(options),
		ledger:        ledger,
		projects:      projects,
		gateway:       gateway,
		policy:        policy,
		signingSecret: signingSecret,
	}
}

var _ portssvc.SettlementSvc = (*settlementService)(nil)

// settleResult is what the settlement transaction decided.
type settleResult struct {
	txn            domain.Transaction
	alreadySettled bool
	raced          bool
}

func (s *settlementService) Settle(ctx context.Context, req dto.SettleRequest) (*domain.Transaction, error) {
	orderID := strings.TrimSpace(req.GatewayOrderID)
	paymentID := strings.TrimSpace(req.GatewayPaymentID)
	if orderID == "" || paymentID == "" || req.Signature == "" {
		return nil, apperrors.NewValidationFailedError("order id, payment id and signature are required")
	}
	logger := s.GetLogger(ctx).With(slog.String("gateway_order_id", orderID), slog.String("gateway_payment_id", paymentID))
	ctx = middleware.WithLogger(ctx, logger)

	purchase, err := s.ledger.FindPurchaseByGatewayOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("no purchase for gateway order")
		}
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	if !maySettle(purchase, req) {
		logger.Warn("Settlement attempted by someone other than the buyer",
			slog.String("caller_id", req.CallerID),
			slog.String("caller_role", string(req.CallerRole)),
			slog.Bool("security_event", true))
		s.Metrics.Settlement(outcomeForbidden)
		return nil, fmt.Errorf("settle %s: %w", orderID, domain.ErrNotOrderBuyer)
	}

	if purchase.IsSettled() {
		s.Metrics.Settlement(outcomeAlreadySettled)
		logger.Info("Purchase already settled", slog.String("status", string(purchase.Status)))
		return purchase, nil
	}
	if purchase.IsTerminal() {
		if err := s.refundStranded(ctx, purchase, paymentID, req.Signature); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("settle %s (%s): %w", orderID, purchase.Status, domain.ErrNotSettleable)
	}

	if !VerifyPaymentSignature(s.signingSecret, orderID, paymentID, req.Signature) {
		logger.Warn("Payment signature verification failed", slog.Bool("security_event", true))
		s.Metrics.Settlement(outcomeInvalidSignature)
		s.failPurchase(ctx, purchase.TransactionID, map[string]any{
			domain.MetaFailureReason:  domain.ReasonInvalidSignature,
			domain.MetaAttemptedPayID: paymentID,
		})
		return nil, fmt.Errorf("settle %s: %w", orderID, domain.ErrInvalidSignature)
	}

	payment, err := s.fetchPayment(ctx, paymentID)
	if err != nil {
		s.Metrics.Settlement(outcomeGatewayFailed)
		s.LogError(ctx, err, "Failed to fetch payment from gateway")
		return nil, err
	}
	mismatch := paymentMismatch(purchase, payment)
	if mismatch == "" && payment.Status == external.PaymentStatusAuthorized {
		// capture is still pending at the gateway; the captured webhook settles it
		logger.Info("Payment authorized but not captured; purchase stays pending")
		s.Metrics.Settlement(outcomeNotCaptured)
		return nil, fmt.Errorf("settle %s: %w", orderID, domain.ErrPaymentNotCaptured)
	}
	if mismatch == "" && !payment.IsSuccessful() {
		mismatch = "payment status " + payment.Status
	}
	if mismatch != "" {
		logger.Warn("Gateway payment does not match purchase", slog.String("mismatch", mismatch), slog.Bool("security_event", true))
		s.Metrics.Settlement(outcomePaymentMismatch)
		meta := map[string]any{
			domain.MetaFailureReason:  domain.ReasonPaymentMismatch,
			domain.MetaAttemptedPayID: paymentID,
			"mismatch":                mismatch,
		}
		if payment != nil {
			meta["gateway_payment_status"] = payment.Status
		}
		failed := s.failPurchase(ctx, purchase.TransactionID, meta)
		if failed != nil && capturedFor(purchase, payment) {
			s.compensate(ctx, *failed, paymentID, payment.Amount, domain.ReasonPaymentMismatch)
		}
		return nil, fmt.Errorf("settle %s: %s: %w", orderID, mismatch, domain.ErrPaymentMismatch)
	}

	split, err := s.policy.Split(purchase.Amount)
	if err != nil {
		return nil, fmt.Errorf("compute commission: %w", err)
	}

	result, err := s.complete(ctx, purchase.TransactionID, paymentID, split, payment)
	if err != nil {
		if errors.Is(err, domain.ErrNotSettleable) {
			return nil, err
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			s.Metrics.Settlement(outcomeStorageFailed)
			s.LogError(ctx, err, "Settlement transaction failed; purchase stays pending")
			return nil, fmt.Errorf("settle %s: %w", orderID, err)
		}
		// the partial unique index caught a concurrent completion
		logger.Warn("Completion hit a uniqueness violation", slog.String("error", err.Error()))
		if result, err = s.markRace(ctx, purchase.TransactionID, paymentID); err != nil {
			s.LogError(ctx, err, "Failed to record duplicate purchase race")
			return nil, fmt.Errorf("settle %s: %w", orderID, err)
		}
	}

	switch {
	case result.alreadySettled:
		s.Metrics.Settlement(outcomeAlreadySettled)
		return &result.txn, nil
	case result.raced:
		s.Metrics.Settlement(outcomeDuplicateRace)
		s.invalidate(ctx, result.txn.TransactionID)
		s.compensate(ctx, result.txn, paymentID, result.txn.Amount, domain.ReasonDuplicatePurchaseRace)
		return nil, fmt.Errorf("settle %s: %w", orderID, domain.ErrDuplicatePurchaseRace)
	}

	s.Metrics.Settlement(outcomeCompleted)
	s.Metrics.Commission(result.txn.CurrencyCode, split.Commission)
	logger.Info("Purchase settled",
		slog.Int64("amount", result.txn.Amount),
		slog.Int64("commission", split.Commission),
		slog.Int64("seller_amount", split.SellerAmount))
	s.afterCompletion(ctx, result.txn)
	return &result.txn, nil
}

// complete performs the settlement transaction: lock, re-check, flip, commission row.
func (s *settlementService) complete(ctx context.Context, transactionID, paymentID string, split domain.CommissionSplit, payment *external.GatewayPayment) (settleResult, error) {
	var result settleResult
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		locked, err := tx.LockTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if locked.IsSettled() {
			result = settleResult{txn: *locked, alreadySettled: true}
			return nil
		}
		if !locked.CanTransitionTo(domain.StatusCompleted) {
			return fmt.Errorf("settle %s (%s): %w", transactionID, locked.Status, domain.ErrNotSettleable)
		}

		now := s.now()
		owned, err := tx.ExistsCompletedPurchase(ctx, locked.BuyerID, locked.ProjectID, locked.TransactionID)
		if err != nil {
			return err
		}
		if owned {
			st := raceTransition(locked, paymentID, now)
			if err := tx.ApplyTransition(ctx, st); err != nil {
				return err
			}
			result = settleResult{txn: st.Apply(*locked), raced: true}
			return nil
		}

		rate := split.Rate
		st := domain.NewTransition(locked, domain.StatusCompleted, now)
		st.GatewayPaymentID = &paymentID
		st.CommissionAmount = &split.Commission
		st.SellerAmount = &split.SellerAmount
		st.CommissionRate = &rate
		st.Metadata = map[string]any{
			"gateway_payment": map[string]any{
				"id":     payment.ID,
				"status": payment.Status,
				"method": payment.Method,
			},
		}
		if err := tx.ApplyTransition(ctx, st); err != nil {
			return err
		}

		parentID := locked.TransactionID
		commission := domain.Transaction{
			TransactionID:       newDerivedTransactionID(),
			Kind:                domain.KindCommission,
			Amount:              split.Commission,
			CurrencyCode:        locked.CurrencyCode,
			Status:              domain.StatusCompleted,
			BuyerID:             locked.BuyerID,
			SellerID:            locked.SellerID,
			ProjectID:           locked.ProjectID,
			GatewayOrderID:      locked.GatewayOrderID,
			GatewayPaymentID:    &paymentID,
			ParentTransactionID: &parentID,
			ReceiptID:           commissionReceiptID(locked.ReceiptID),
			CommissionAmount:    &split.Commission,
			SellerAmount:        &split.SellerAmount,
			CommissionRate:      &rate,
			CompletedAt:         &now,
			AuditFields:         domain.AuditFields{CreatedAt: now, LastUpdatedAt: now, Version: 1},
		}
		if err := tx.InsertTransaction(ctx, commission); err != nil {
			return err
		}

		result = settleResult{txn: st.Apply(*locked)}
		return nil
	})
	return result, err
}

// markRace records a lost race in a fresh transaction after the storage layer rejected
// the completion.
func (s *settlementService) markRace(ctx context.Context, transactionID, paymentID string) (settleResult, error) {
	var result settleResult
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		locked, err := tx.LockTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if locked.IsSettled() {
			result = settleResult{txn: *locked, alreadySettled: true}
			return nil
		}
		if !locked.CanTransitionTo(domain.StatusFailed) {
			return fmt.Errorf("settle %s (%s): %w", transactionID, locked.Status, domain.ErrNotSettleable)
		}
		st := raceTransition(locked, paymentID, s.now())
		if err := tx.ApplyTransition(ctx, st); err != nil {
			return err
		}
		result = settleResult{txn: st.Apply(*locked), raced: true}
		return nil
	})
	return result, err
}

func raceTransition(locked *domain.Transaction, paymentID string, now time.Time) domain.StatusTransition {
	st := domain.NewTransition(locked, domain.StatusFailed, now)
	st.GatewayPaymentID = &paymentID
	st.Metadata = map[string]any{domain.MetaFailureReason: domain.ReasonDuplicatePurchaseRace}
	return st
}

// refundStranded refunds a captured payment that arrived for a FAILED or CANCELLED purchase.
// Only a valid proof for a captured payment of this very order is refunded, once per payment.
func (s *settlementService) refundStranded(ctx context.Context, purchase *domain.Transaction, paymentID, signature string) error {
	if purchase.Compensated(paymentID) {
		return nil
	}
	if !VerifyPaymentSignature(s.signingSecret, purchase.GatewayOrderID, paymentID, signature) {
		return nil
	}
	payment, err := s.fetchPayment(ctx, paymentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch payment for unsettleable purchase")
		return err
	}
	if !capturedFor(purchase, payment) {
		return nil
	}
	s.GetLogger(ctx).Warn("Captured payment arrived for unsettleable purchase; refunding",
		slog.String("status", string(purchase.Status)),
		slog.String("failure_reason", purchase.FailureReason()))
	s.compensate(ctx, *purchase, paymentID, payment.Amount, domain.ReasonNotSettleable)
	s.invalidate(ctx, purchase.TransactionID)
	return nil
}

// compensate refunds amount of paymentID to the buyer of a FAILED row. The outcome is
// written onto the row as an annotation.
func (s *settlementService) compensate(ctx context.Context, failed domain.Transaction, paymentID string, amount int64, reason string) {
	logger := s.GetLogger(ctx)
	ctx = context.WithoutCancel(ctx)

	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	start := time.Now()
	refund, err := s.gateway.Refund(gwCtx, external.RefundRequest{
		PaymentID: paymentID,
		Amount:    amount,
		Notes: map[string]string{
			"reason":         reason,
			"transaction_id": failed.TransactionID,
		},
	})
	s.Metrics.ObserveGateway("refund", start, err)

	annotation := map[string]any{
		"at":         s.now().Format(time.RFC3339Nano),
		"payment_id": paymentID,
		"reason":     reason,
	}
	if err != nil {
		s.Metrics.Refund("compensation_failed")
		logger.Error("Compensating refund failed; manual reconciliation required",
			slog.String("transaction_id", failed.TransactionID),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()))
		annotation["status"] = "failed"
		annotation["error"] = err.Error()
	} else {
		s.Metrics.Refund("compensated")
		logger.Info("Compensating refund issued", slog.String("gateway_refund_id", refund.ID))
		annotation["status"] = "refunded"
		annotation["gateway_refund_id"] = refund.ID
		annotation["amount"] = refund.Amount
	}

	if err := s.ledger.AnnotateTransaction(ctx, failed.TransactionID, map[string]any{domain.MetaCompensation: annotation}); err != nil {
		s.LogError(ctx, err, "Failed to annotate compensation outcome", slog.String("transaction_id", failed.TransactionID))
	}
}

// failPurchase flips a still-pending purchase to FAILED. A row that another request
// already moved is left alone. Storage failures are logged; the caller's error is what
// the client sees.
func (s *settlementService) failPurchase(ctx context.Context, transactionID string, metadata map[string]any) *domain.Transaction {
	var failed *domain.Transaction
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		locked, err := tx.LockTransactionByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !locked.CanTransitionTo(domain.StatusFailed) {
			return nil
		}
		st := domain.NewTransition(locked, domain.StatusFailed, s.now())
		st.Metadata = metadata
		if err := tx.ApplyTransition(ctx, st); err != nil {
			return err
		}
		applied := st.Apply(*locked)
		failed = &applied
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to mark purchase failed", slog.String("transaction_id", transactionID))
		return nil
	}
	if failed != nil {
		s.invalidate(ctx, transactionID)
	}
	return failed
}

func (s *settlementService) MarkPaymentFailed(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) (*domain.Transaction, error) {
	purchase, err := s.ledger.FindPurchaseByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("no purchase for gateway order")
		}
		return nil, fmt.Errorf("load purchase: %w", err)
	}
	if !purchase.CanTransitionTo(domain.StatusFailed) {
		s.LogDebug(ctx, "Ignoring payment failure for non-pending purchase",
			slog.String("gateway_order_id", gatewayOrderID),
			slog.String("status", string(purchase.Status)))
		return purchase, nil
	}

	failed := s.failPurchase(ctx, purchase.TransactionID, map[string]any{
		domain.MetaFailureReason:  domain.ReasonGatewayPaymentFailed,
		domain.MetaGatewayError:   reason,
		domain.MetaAttemptedPayID: gatewayPaymentID,
	})
	if failed == nil {
		// lost to a concurrent transition or a storage failure; report the current row
		return s.ledger.FindTransactionByID(ctx, purchase.TransactionID)
	}

	s.Metrics.Settlement("payment_failed")
	s.notify(ctx, external.EventPaymentFailed, map[string]any{
		"transaction_id": failed.TransactionID,
		"buyer_id":       failed.BuyerID,
		"project_id":     failed.ProjectID,
		"reason":         reason,
	})
	return failed, nil
}

func (s *settlementService) fetchPayment(ctx context.Context, paymentID string) (*external.GatewayPayment, error) {
	gwCtx, cancel := s.gatewayCtx(ctx)
	defer cancel()

	start := time.Now()
	payment, err := s.gateway.FetchPayment(gwCtx, paymentID)
	s.Metrics.ObserveGateway("fetch_payment", start, err)
	if err != nil {
		if errors.Is(err, apperrors.ErrGateway) {
			return nil, err
		}
		return nil, apperrors.NewGatewayError("failed to fetch payment", err)
	}
	return payment, nil
}

// afterCompletion runs the post-commit effects of a completed purchase. None of them can
// undo the settlement.
func (s *settlementService) afterCompletion(ctx context.Context, txn domain.Transaction) {
	s.invalidate(ctx, txn.TransactionID)

	s.sideEffects.Go(ctx, "increment_sale_count", func(ctx context.Context) error {
		return s.projects.IncrementSaleCount(ctx, txn.ProjectID)
	})

	if s.Archiver != nil {
		receipt := domain.ReceiptFor(txn)
		s.sideEffects.Go(ctx, "archive_receipt", func(ctx context.Context) error {
			location, err := s.Archiver.Archive(ctx, receipt)
			if err != nil {
				return err
			}
			s.LogDebug(ctx, "Receipt archived", slog.String("location", location))
			return nil
		})
	}

	payload := map[string]any{
		"transaction_id": txn.TransactionID,
		"receipt_id":     txn.ReceiptID,
		"buyer_id":       txn.BuyerID,
		"seller_id":      txn.SellerID,
		"project_id":     txn.ProjectID,
		"amount":         txn.Amount,
		"currency":       txn.CurrencyCode,
	}
	if txn.SellerAmount != nil {
		payload["seller_amount"] = *txn.SellerAmount
	}
	s.notify(ctx, external.EventPurchaseCompleted, payload)
}

// paymentMismatch describes how a gateway payment disagrees with the purchase, or returns "".
// The payment status is checked by the caller.
func paymentMismatch(purchase *domain.Transaction, payment *external.GatewayPayment) string {
	switch {
	case payment == nil:
		return "payment not found"
	case payment.OrderID != purchase.GatewayOrderID:
		return "order id differs"
	case payment.Amount != purchase.Amount:
		return "amount differs"
	case !strings.EqualFold(payment.Currency, purchase.CurrencyCode):
		return "currency differs"
	}
	return ""
}

// capturedFor reports whether payment holds captured money for the purchase's order.
func capturedFor(purchase *domain.Transaction, payment *external.GatewayPayment) bool {
	return payment != nil && payment.OrderID == purchase.GatewayOrderID && payment.IsSuccessful()
}

// maySettle allows the buying user, admins and the webhook path.
func maySettle(purchase *domain.Transaction, req dto.SettleRequest) bool {
	if req.CallerRole == domain.RoleAdmin {
		return true
	}
	return req.CallerID != "" && req.CallerID == purchase.BuyerID
}
