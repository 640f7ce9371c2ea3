package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
)

// balanceService aggregates posted lines. Reversed entries are not special-cased:
// their reversals carry the opposite sides and cancel them out.
type balanceService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	balanceRepo portsrepo.BalanceReader
}

// NewBalanceService creates a new balance aggregator.
func NewBalanceService(accountRepo portsrepo.AccountReader, balanceRepo portsrepo.BalanceReader) portssvc.BalanceSvc {
	return &balanceService{
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
	}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

func (s *balanceService) ComputeBalance(ctx context.Context, tenantID, accountNumber string, asOf time.Time) (*domain.AccountBalance, error) {
	account, err := s.accountRepo.FindAccount(ctx, tenantID, accountNumber)
	if err != nil {
		return nil, err
	}

	asOf = domain.NormalizeDate(asOf)
	totals, err := s.ComputeBalances(ctx, tenantID, domain.BalanceFilter{
		AsOf:           &asOf,
		AccountNumbers: []string{accountNumber},
	})
	if err != nil {
		return nil, err
	}

	t, ok := totals[accountNumber]
	if !ok {
		t = domain.AccountTotals{AccountNumber: accountNumber, Debit: decimal.Zero, Credit: decimal.Zero}
	}
	return &domain.AccountBalance{
		AccountNumber: accountNumber,
		NormalBalance: account.NormalBalance,
		AsOf:          asOf,
		DebitTotal:    t.Debit,
		CreditTotal:   t.Credit,
		NetBalance:    account.NetBalance(t.Debit, t.Credit),
	}, nil
}

func (s *balanceService) ComputeBalances(ctx context.Context, tenantID string, filter domain.BalanceFilter) (map[string]domain.AccountTotals, error) {
	rows, err := s.balanceRepo.SumLinesByAccount(ctx, tenantID, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate balances", slog.String("tenant_id", tenantID))
		return nil, err
	}
	out := make(map[string]domain.AccountTotals, len(rows))
	for _, r := range rows {
		out[r.AccountNumber] = r
	}
	return out, nil
}

// netOf returns the normal-side balance of one account from a totals map.
func netOf(totals map[string]domain.AccountTotals, accountNumber string, normal domain.NormalBalance) decimal.Decimal {
	t, ok := totals[accountNumber]
	if !ok {
		return decimal.Zero
	}
	return domain.Account{NormalBalance: normal}.NetBalance(t.Debit, t.Credit)
}
