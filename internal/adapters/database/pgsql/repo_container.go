package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(dbPool),
		JournalRepo: newPgxJournalRepository(dbPool),
		PaymentRepo: newPgxPaymentRepository(dbPool),
		RefundRepo:  newPgxRefundRepository(dbPool),
		AuditRepo:   newPgxAuditRepository(dbPool),
		TxManager:   &txManager{BaseRepository: BaseRepository{Pool: dbPool}},
	}
}
