package services

import (
	"fmt"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/config"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/metrics"
)

// Dependencies are the non-storage collaborators of the payment services. Every field
// except Gateway may be nil.
type Dependencies struct {
	Gateway     external.PaymentGateway
	Notifier    external.Notifier
	Archiver    external.ReceiptArchiver
	Cache       external.StatusCache
	Deduper     external.WebhookDeduper
	Metrics     *metrics.Metrics
	SideEffects *SideEffectRunner
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, deps Dependencies) (*portssvc.ServiceContainer, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	policy, err := domain.NewCommissionPolicy(cfg.CommissionRate)
	if err != nil {
		return nil, fmt.Errorf("commission policy: %w", err)
	}

	runner := deps.SideEffects
	if runner == nil {
		runner = NewSideEffectRunner(cfg.SideEffects, false).WithRunnerMetrics(deps.Metrics)
	}

	options := []ServiceOption{
		WithMetrics(deps.Metrics),
		WithGatewayTimeout(cfg.GatewayTimeout),
		WithSideEffectRunner(runner),
	}
	if deps.Notifier != nil {
		options = append(options, WithNotifier(deps.Notifier))
	}
	if deps.Archiver != nil {
		options = append(options, WithReceiptArchiver(deps.Archiver))
	}
	if deps.Cache != nil {
		options = append(options, WithStatusCache(deps.Cache))
	}

	container := &portssvc.ServiceContainer{}
	container.Orders = NewOrderService(repos.TransactionRepo, repos.ProjectStore, repos.BuyerStore, deps.Gateway, options...)
	container.Settlement = NewSettlementService(repos.TransactionRepo, repos.ProjectStore, deps.Gateway, policy, cfg.GatewayKeySecret, options...)
	container.Refunds = NewRefundService(repos.TransactionRepo, deps.Gateway, options...)
	container.Ledger = NewLedgerService(repos.TransactionRepo, options...)
	container.Webhooks = NewWebhookService(container.Settlement, deps.Deduper, cfg.GatewayWebhookSecret, cfg.GatewayKeySecret, options...)

	return container, nil
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.OrderSvc        = (*orderService)(nil)
	_ portssvc.SettlementSvc   = (*settlementService)(nil)
	_ portssvc.RefundSvc       = (*refundService)(nil)
	_ portssvc.WebhookSvc      = (*webhookService)(nil)
	_ portssvc.LedgerReaderSvc = (*ledgerService)(nil)
)
