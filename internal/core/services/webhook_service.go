package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
)

// Gateway webhook event names. payment.authorized is ignored; the captured event that
// follows it settles the purchase.
const (
	webhookPaymentCaptured = "payment.captured"
	webhookOrderPaid       = "order.paid"
	webhookPaymentFailed   = "payment.failed"
)

// webhookCallerID is recorded as the caller of webhook-driven settlements.
const webhookCallerID = "razorpay-webhook"

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity external.GatewayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type webhookService struct {
	BaseService
	settlement    portssvc.SettlementSvc
	deduper       external.WebhookDeduper
	webhookSecret string
	signingSecret string
}

// NewWebhookService creates the webhook dispatcher. webhookSecret authenticates bodies;
// signingSecret derives the checkout proof so webhooks settle through the same path as
// client callbacks. deduper may be nil.
func NewWebhookService(settlement portssvc.SettlementSvc, deduper external.WebhookDeduper, webhookSecret, signingSecret string, options ...ServiceOption) portssvc.WebhookSvc {
	return &webhookService{
		BaseService:   newBaseService(options),
		settlement:    settlement,
		deduper:       deduper,
		webhookSecret: webhookSecret,
		signingSecret: signingSecret,
	}
}

var _ portssvc.WebhookSvc = (*webhookService)(nil)

func (s *webhookService) HandleWebhook(ctx context.Context, rawBody []byte, signature, eventID string) error {
	logger := s.GetLogger(ctx)

	if !VerifyWebhookSignature(s.webhookSecret, rawBody, signature) {
		logger.Warn("Webhook signature verification failed", slog.Bool("security_event", true), slog.String("event_id", eventID))
		s.Metrics.Webhook("unknown", "invalid_signature")
		return apperrors.NewSignatureError("invalid webhook signature")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return apperrors.NewValidationFailedError("malformed webhook body")
	}
	payment := envelope.Payload.Payment.Entity
	logger = logger.With(
		slog.String("event", envelope.Event),
		slog.String("event_id", eventID),
		slog.String("gateway_order_id", payment.OrderID),
		slog.String("gateway_payment_id", payment.ID))

	if eventID != "" && s.deduper != nil {
		first, err := s.deduper.FirstSeen(ctx, eventID)
		if err != nil {
			// process anyway; settlement is idempotent
			logger.Warn("Webhook dedupe check failed", slog.String("error", err.Error()))
		} else if !first {
			logger.Info("Duplicate webhook delivery ignored")
			s.Metrics.Webhook(envelope.Event, "duplicate")
			return nil
		}
	}

	err := s.dispatch(ctx, envelope.Event, payment)
	if err != nil && acknowledgeable(err) == nil {
		logger.Info("Webhook acknowledged without effect", slog.String("reason", err.Error()))
		s.Metrics.Webhook(envelope.Event, "acknowledged")
		return nil
	}
	if err != nil && eventID != "" && s.deduper != nil {
		if ferr := s.deduper.Forget(ctx, eventID); ferr != nil {
			logger.Warn("Failed to release webhook dedupe key", slog.String("error", ferr.Error()))
		}
	}
	if err != nil {
		s.Metrics.Webhook(envelope.Event, "error")
		s.LogError(ctx, err, "Webhook processing failed", slog.String("event", envelope.Event))
		return err
	}
	s.Metrics.Webhook(envelope.Event, "ok")
	return nil
}

func (s *webhookService) dispatch(ctx context.Context, event string, payment external.GatewayPayment) error {
	switch event {
	case webhookPaymentCaptured, webhookOrderPaid:
		if payment.OrderID == "" || payment.ID == "" {
			return apperrors.NewValidationFailedError("webhook payment entity lacks order or payment id")
		}
		_, err := s.settlement.Settle(ctx, dto.SettleRequest{
			GatewayOrderID:   payment.OrderID,
			GatewayPaymentID: payment.ID,
			Signature:        SignPayment(s.signingSecret, payment.OrderID, payment.ID),
			CallerID:         webhookCallerID,
			CallerRole:       domain.RoleAdmin,
		})
		return err

	case webhookPaymentFailed:
		if payment.OrderID == "" {
			return apperrors.NewValidationFailedError("webhook payment entity lacks order id")
		}
		reason := payment.ErrorCode
		if payment.ErrorDescription != "" {
			reason = fmt.Sprintf("%s: %s", payment.ErrorCode, payment.ErrorDescription)
		}
		_, err := s.settlement.MarkPaymentFailed(ctx, payment.OrderID, payment.ID, reason)
		return err

	default:
		s.LogDebug(ctx, "Ignoring webhook event", slog.String("event", event))
		return nil
	}
}

// acknowledgeable drops errors a gateway redelivery cannot fix, so the gateway stops
// retrying. Transport and storage failures are kept and trigger a redelivery.
func acknowledgeable(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, domain.ErrDuplicatePurchaseRace),
		errors.Is(err, domain.ErrNotSettleable),
		errors.Is(err, domain.ErrPaymentMismatch),
		errors.Is(err, domain.ErrInvalidSignature):
		return nil
	}
	return err
}
