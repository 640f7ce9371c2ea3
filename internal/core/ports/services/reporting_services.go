package services

import (
	"context"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

// ReportingService defines operations for generating trial balances
type ReportingService interface {
	// TrialBalance generates a trial balance report as of a specific date
	TrialBalance(ctx context.Context, tenantID string, asOf time.Time) (*domain.TrialBalanceResult, error)

	// TrialBalanceForPeriod resolves a period code (Qn, Mn, YEAR) to its last day first
	TrialBalanceForPeriod(ctx context.Context, tenantID, period string, year int) (*domain.TrialBalanceResult, error)
}

// ReconciliationSvc compares the municipality's book against the filer books
type ReconciliationSvc interface {
	GenerateReport(ctx context.Context, tenantID, municipalityID string) (*domain.ReconciliationResult, error)
}
