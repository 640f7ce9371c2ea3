package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing ledger functionality and
// is used by the CLI and by whatever transport wraps the core.
type ServiceContainer struct {
	Account        AccountSvcFacade
	Journal        JournalSvcFacade
	Balance        BalanceSvc
	Reporting      ReportingService
	Reconciliation ReconciliationSvc
	Assessment     AssessmentSvc
	Payment        PaymentSvc
	Refund         RefundSvc
}
