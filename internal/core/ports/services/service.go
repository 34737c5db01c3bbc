package services

// ServiceContainer holds instances of all the application services.
// It is the main entry point for handlers and the admin CLI.
type ServiceContainer struct {
	Orders     OrderSvc
	Settlement SettlementSvc
	Refunds    RefundSvc
	Webhooks   WebhookSvc
	Ledger     LedgerReaderSvc
}
