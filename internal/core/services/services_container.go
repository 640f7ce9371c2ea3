package services

import (
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/config"
)

// Collaborators are the external systems the ledger core talks to.
// Idempotency and Publisher may be nil.
type Collaborators struct {
	Gateway     ports.PaymentGateway
	Idempotency ports.IdempotencyStore
	Publisher   ports.EventPublisher
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, collab Collaborators) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(
		repos.AccountRepo,
		WithAccountAuditLog(repos.AuditRepo),
		WithAccountTxManager(repos.TxManager),
	)

	// the journal is the only writer of entries; every workflow posts through it
	container.Journal = NewJournalService(repos.JournalRepo, repos.AccountRepo, repos.TxManager, repos.AuditRepo, collab.Publisher)
	container.Balance = NewBalanceService(repos.AccountRepo, repos.JournalRepo)
	container.Reporting = NewReportingService(repos.AccountRepo, container.Balance)
	container.Reconciliation = NewReconciliationService(container.Balance, repos.JournalRepo)
	container.Assessment = NewAssessmentService(container.Journal, repos.TxManager)

	paymentOpts := []PaymentServiceOption{
		WithPaymentAuditLog(repos.AuditRepo),
		WithPaymentPublisher(collab.Publisher),
	}
	if collab.Idempotency != nil {
		var ttl = defaultIdempotencyTTL
		if cfg != nil && cfg.IdempotencyTTL > 0 {
			ttl = cfg.IdempotencyTTL
		}
		paymentOpts = append(paymentOpts, WithIdempotencyStore(collab.Idempotency, ttl))
	}
	container.Payment = NewPaymentService(repos.PaymentRepo, container.Journal, container.Balance, collab.Gateway, repos.TxManager, paymentOpts...)

	container.Refund = NewRefundService(repos.RefundRepo, container.Journal, container.Balance, repos.TxManager, repos.AuditRepo, collab.Publisher)

	return container
}
