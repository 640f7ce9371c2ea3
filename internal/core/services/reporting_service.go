package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
)

// reportingService builds trial balances
type reportingService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	balanceSvc  portssvc.BalanceSvc
}

// NewReportingService creates a new reporting service
func NewReportingService(accountRepo portsrepo.AccountReader, balanceSvc portssvc.BalanceSvc) portssvc.ReportingService {
	return &reportingService{
		accountRepo: accountRepo,
		balanceSvc:  balanceSvc,
	}
}

var _ portssvc.ReportingService = (*reportingService)(nil)

func (s *reportingService) TrialBalanceForPeriod(ctx context.Context, tenantID, period string, year int) (*domain.TrialBalanceResult, error) {
	asOf, err := domain.ResolvePeriodEnd(period, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPeriod, err)
	}
	result, err := s.TrialBalance(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}
	result.Period = fmt.Sprintf("%s-%d", period, year)
	return result, nil
}

// TrialBalance reports every active account plus any inactive account that still
// carries activity. Totals use the normal-side net balance of each account, so the
// report balances whenever every posted entry balances.
func (s *reportingService) TrialBalance(ctx context.Context, tenantID string, asOf time.Time) (*domain.TrialBalanceResult, error) {
	asOf = domain.NormalizeDate(asOf)

	accounts, err := s.accountRepo.ListAccounts(ctx, tenantID, false)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for trial balance", slog.String("tenant_id", tenantID))
		return nil, err
	}

	totals, err := s.balanceSvc.ComputeBalances(ctx, tenantID, domain.BalanceFilter{AsOf: &asOf})
	if err != nil {
		return nil, err
	}

	result := &domain.TrialBalanceResult{
		TenantID:     tenantID,
		AsOf:         asOf,
		Accounts:     []domain.AccountBalanceSummary{},
		Groups:       []domain.AccountTypeGroup{},
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		GeneratedAt:  time.Now().UTC(),
	}

	groups := make(map[domain.AccountType]*domain.AccountTypeGroup)
	for _, acc := range accounts {
		t, hasActivity := totals[acc.AccountNumber]
		if !acc.IsActive && !hasActivity {
			continue
		}
		if !hasActivity {
			t = domain.AccountTotals{Debit: decimal.Zero, Credit: decimal.Zero}
		}

		summary := domain.AccountBalanceSummary{
			AccountNumber: acc.AccountNumber,
			AccountName:   acc.Name,
			AccountType:   acc.AccountType,
			DebitBalance:  t.Debit,
			CreditBalance: t.Credit,
			NetBalance:    acc.NetBalance(t.Debit, t.Credit),
			NormalBalance: acc.NormalBalance,
		}
		result.Accounts = append(result.Accounts, summary)

		if acc.NormalBalance == domain.DebitNormal {
			result.TotalDebits = result.TotalDebits.Add(summary.NetBalance)
		} else {
			result.TotalCredits = result.TotalCredits.Add(summary.NetBalance)
		}

		g, ok := groups[acc.AccountType]
		if !ok {
			g = &domain.AccountTypeGroup{
				AccountType:  acc.AccountType,
				TotalDebits:  decimal.Zero,
				TotalCredits: decimal.Zero,
				TotalNet:     decimal.Zero,
			}
			groups[acc.AccountType] = g
		}
		g.Accounts = append(g.Accounts, summary)
		g.TotalDebits = g.TotalDebits.Add(summary.DebitBalance)
		g.TotalCredits = g.TotalCredits.Add(summary.CreditBalance)
		g.TotalNet = g.TotalNet.Add(summary.NetBalance)
	}

	for _, at := range domain.AccountTypes {
		if g, ok := groups[at]; ok {
			result.Groups = append(result.Groups, *g)
		}
	}

	result.IsBalanced = result.TotalDebits.Equal(result.TotalCredits)
	if !result.IsBalanced {
		// every posted entry balances, so this is a posting defect
		s.LogError(ctx, apperrors.ErrInternal, "Trial balance does not balance",
			slog.String("tenant_id", tenantID),
			slog.String("as_of", asOf.Format(time.DateOnly)),
			slog.String("total_debits", result.TotalDebits.String()),
			slog.String("total_credits", result.TotalCredits.String()))
	}
	return result, nil
}
