package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
)

// reconciliationService compares the municipality's book with the sum of all filer books.
type reconciliationService struct {
	BaseService
	balanceSvc  portssvc.BalanceSvc
	balanceRepo portsrepo.BalanceReader
}

// NewReconciliationService creates a new reconciliation engine.
func NewReconciliationService(balanceSvc portssvc.BalanceSvc, balanceRepo portsrepo.BalanceReader) portssvc.ReconciliationSvc {
	return &reconciliationService{
		balanceSvc:  balanceSvc,
		balanceRepo: balanceRepo,
	}
}

var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

// GenerateReport treats the books as balanced only at exactly zero variance.
func (s *reconciliationService) GenerateReport(ctx context.Context, tenantID, municipalityID string) (*domain.ReconciliationResult, error) {
	if municipalityID == "" {
		municipalityID = tenantID
	}

	muni, err := s.balanceSvc.ComputeBalances(ctx, tenantID, domain.BalanceFilter{
		EntityType:     domain.EntityMunicipality,
		EntityID:       municipalityID,
		AccountNumbers: []string{domain.AcctAccountsReceivable, domain.AcctMunicipalityCash},
	})
	if err != nil {
		return nil, err
	}
	filers, err := s.balanceSvc.ComputeBalances(ctx, tenantID, domain.BalanceFilter{
		EntityType:     domain.EntityFiler,
		AccountNumbers: append([]string{domain.AcctFilerCash}, domain.FilerLiabilityAccounts...),
	})
	if err != nil {
		return nil, err
	}

	result := &domain.ReconciliationResult{
		TenantID:         tenantID,
		MunicipalityID:   municipalityID,
		MunicipalityAR:   netOf(muni, domain.AcctAccountsReceivable, domain.DebitNormal),
		MunicipalityCash: netOf(muni, domain.AcctMunicipalityCash, domain.DebitNormal),
		FilerLiabilities: decimal.Zero,
		// cash leaves the filer's book on payment, so credits count positive
		FilerPayments: netOf(filers, domain.AcctFilerCash, domain.CreditNormal),
		Discrepancies: []domain.DiscrepancyDetail{},
		GeneratedAt:   time.Now().UTC(),
	}
	for _, acct := range domain.FilerLiabilityAccounts {
		result.FilerLiabilities = result.FilerLiabilities.Add(netOf(filers, acct, domain.CreditNormal))
	}

	result.ARVariance = result.MunicipalityAR.Sub(result.FilerLiabilities)
	result.CashVariance = result.MunicipalityCash.Sub(result.FilerPayments)

	if result.ARVariance.IsZero() && result.CashVariance.IsZero() {
		result.Status = domain.ReconciliationBalanced
		return result, nil
	}

	result.Status = domain.ReconciliationUnbalanced
	result.Discrepancies, err = s.pairBySource(ctx, tenantID, municipalityID)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Books do not reconcile",
		slog.String("tenant_id", tenantID),
		slog.String("municipality_id", municipalityID),
		slog.String("ar_variance", result.ARVariance.String()),
		slog.String("cash_variance", result.CashVariance.String()),
		slog.Int("discrepancies", len(result.Discrepancies)))
	return result, nil
}

// pairBySource matches live entries of the two books by source id and reports every
// source whose amounts differ or that exists on one side only, largest variance first.
func (s *reconciliationService) pairBySource(ctx context.Context, tenantID, municipalityID string) ([]domain.DiscrepancyDetail, error) {
	filerTotals, err := s.balanceRepo.SumLiveEntriesBySource(ctx, tenantID, domain.EntityFiler, "")
	if err != nil {
		return nil, err
	}
	muniTotals, err := s.balanceRepo.SumLiveEntriesBySource(ctx, tenantID, domain.EntityMunicipality, municipalityID)
	if err != nil {
		return nil, err
	}

	filerBySource := make(map[string]decimal.Decimal, len(filerTotals))
	for _, t := range filerTotals {
		filerBySource[t.SourceID] = t.Amount
	}
	muniBySource := make(map[string]decimal.Decimal, len(muniTotals))
	for _, t := range muniTotals {
		muniBySource[t.SourceID] = t.Amount
	}

	details := []domain.DiscrepancyDetail{}
	for sourceID, filerAmt := range filerBySource {
		muniAmt, ok := muniBySource[sourceID]
		switch {
		case !ok:
			details = append(details, discrepancy(sourceID, filerAmt, decimal.Zero,
				fmt.Sprintf("source %s is posted on the filer book only", sourceID)))
		case !filerAmt.Equal(muniAmt):
			details = append(details, discrepancy(sourceID, filerAmt, muniAmt,
				fmt.Sprintf("source %s amounts differ between books", sourceID)))
		}
	}
	for sourceID, muniAmt := range muniBySource {
		if _, ok := filerBySource[sourceID]; !ok {
			details = append(details, discrepancy(sourceID, decimal.Zero, muniAmt,
				fmt.Sprintf("source %s is posted on the municipality book only", sourceID)))
		}
	}

	sort.Slice(details, func(i, j int) bool {
		ai, aj := details[i].Variance.Abs(), details[j].Variance.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return details[i].SourceID < details[j].SourceID
	})
	return details, nil
}

func discrepancy(sourceID string, filerAmt, muniAmt decimal.Decimal, description string) domain.DiscrepancyDetail {
	return domain.DiscrepancyDetail{
		SourceID:           sourceID,
		FilerAmount:        filerAmt,
		MunicipalityAmount: muniAmt,
		Variance:           filerAmt.Sub(muniAmt),
		Description:        description,
	}
}
