package services_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/cache"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/events"
	"github.com/SscSPs/municipal_tax_ledger/internal/adapters/gateway"
	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/config"
)

const (
	approvedCard = "4111111111111111"
	declinedCard = "4000000000000002"
	timeoutCard  = "4000000000000119"
)

// LedgerScenarioSuite runs the real services against the in-memory store.
type LedgerScenarioSuite struct {
	suite.Suite
	ctx      context.Context
	repos    portsrepo.RepositoryProvider
	svc      *portssvc.ServiceContainer
	recorder *events.Recorder
	tenantID string
	filerID  string
}

func (s *LedgerScenarioSuite) SetupTest() {
	s.ctx = context.Background()
	s.tenantID = "springfield"
	s.filerID = "filer-42"
	s.repos = memory.NewRepositoryProvider(memory.NewStore())
	s.recorder = events.NewRecorder()
	s.svc = services.NewServiceContainer(&config.Config{IdempotencyTTL: time.Hour}, s.repos, services.Collaborators{
		Gateway:     gateway.NewMockGateway(),
		Idempotency: cache.NewInMemoryIdempotencyStore(),
		Publisher:   s.recorder,
	})

	_, err := s.svc.Account.SeedStandardChart(s.ctx, s.tenantID, "admin")
	s.Require().NoError(err)
}

func amt(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *LedgerScenarioSuite) assess(returnID, tax, penalty, interest string) *dto.AssessmentResult {
	res, err := s.svc.Assessment.RecordTaxAssessment(s.ctx, dto.RecordAssessmentRequest{
		TenantID:       s.tenantID,
		FilerID:        s.filerID,
		ReturnID:       returnID,
		TaxAmount:      amt(tax),
		PenaltyAmount:  amt(penalty),
		InterestAmount: amt(interest),
		Period:         "Q1-2024",
		CreatedBy:      "assessor",
	})
	s.Require().NoError(err)
	return res
}

func (s *LedgerScenarioSuite) pay(amount, card, sourceID, key string) (*dto.PaymentResult, error) {
	return s.svc.Payment.ProcessPayment(s.ctx, dto.PaymentRequest{
		TenantID:       s.tenantID,
		FilerID:        s.filerID,
		SourceID:       sourceID,
		Amount:         amt(amount),
		Method:         domain.MethodCard,
		MethodDetails:  map[string]string{gateway.DetailCardNumber: card},
		IdempotencyKey: key,
		ProcessedBy:    "cashier",
	})
}

func (s *LedgerScenarioSuite) filerNet(accountNumber string, normal domain.NormalBalance) decimal.Decimal {
	return s.net(domain.EntityFiler, s.filerID, accountNumber, normal)
}

func (s *LedgerScenarioSuite) muniNet(accountNumber string, normal domain.NormalBalance) decimal.Decimal {
	return s.net(domain.EntityMunicipality, s.tenantID, accountNumber, normal)
}

func (s *LedgerScenarioSuite) net(et domain.EntityType, entityID, accountNumber string, normal domain.NormalBalance) decimal.Decimal {
	totals, err := s.svc.Balance.ComputeBalances(s.ctx, s.tenantID, domain.BalanceFilter{
		EntityType:     et,
		EntityID:       entityID,
		AccountNumbers: []string{accountNumber},
	})
	s.Require().NoError(err)
	t := totals[accountNumber]
	return domain.Account{NormalBalance: normal}.NetBalance(t.Debit, t.Credit)
}

func (s *LedgerScenarioSuite) filerLiabilities() decimal.Decimal {
	total := decimal.Zero
	for _, acct := range domain.FilerLiabilityAccounts {
		total = total.Add(s.filerNet(acct, domain.CreditNormal))
	}
	return total
}

func (s *LedgerScenarioSuite) requireDecimal(want string, got decimal.Decimal, msgAndArgs ...any) {
	s.Require().Truef(amt(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

// --- Assessment ---

func (s *LedgerScenarioSuite) TestAssessment_PostsMirroredPair() {
	res := s.assess("ret-1", "1000", "100", "50")

	s.Equal(domain.EntityFiler, res.FilerEntry.EntityType)
	s.Equal(domain.EntityMunicipality, res.MunicipalityEntry.EntityType)
	s.Equal("ret-1", res.FilerEntry.SourceID)
	s.Equal("ret-1", res.MunicipalityEntry.SourceID)
	s.Len(res.FilerEntry.Lines, 6)
	s.Len(res.MunicipalityEntry.Lines, 4)

	s.requireDecimal("1150", s.muniNet(domain.AcctAccountsReceivable, domain.DebitNormal))
	s.requireDecimal("1150", s.filerLiabilities())
	s.requireDecimal("100", s.filerNet(domain.AcctPenaltyLiability, domain.CreditNormal))
	s.requireDecimal("50", s.muniNet(domain.AcctInterestRevenue, domain.CreditNormal))
}

func (s *LedgerScenarioSuite) TestAssessment_SkipsZeroBuckets() {
	res := s.assess("ret-1", "250.50", "0", "0")

	s.Len(res.FilerEntry.Lines, 2)
	s.Len(res.MunicipalityEntry.Lines, 2)
	s.requireDecimal("250.50", res.MunicipalityEntry.TotalAmount)
}

func (s *LedgerScenarioSuite) TestAssessment_Validation() {
	_, err := s.svc.Assessment.RecordTaxAssessment(s.ctx, dto.RecordAssessmentRequest{
		TenantID: s.tenantID, FilerID: s.filerID, ReturnID: "r", CreatedBy: "a",
	})
	s.ErrorIs(err, apperrors.ErrValidation, "zero total")

	_, err = s.svc.Assessment.RecordTaxAssessment(s.ctx, dto.RecordAssessmentRequest{
		TenantID: s.tenantID, FilerID: s.filerID, ReturnID: "r", CreatedBy: "a",
		TaxAmount: amt("100"), PenaltyAmount: amt("-1"),
	})
	s.ErrorIs(err, apperrors.ErrValidation, "negative bucket")
}

func (s *LedgerScenarioSuite) TestAssessment_AllOrNothing() {
	s.Require().NoError(s.svc.Account.DeactivateAccount(s.ctx, s.tenantID, domain.AcctPenaltyRevenue, "admin"))

	_, err := s.svc.Assessment.RecordTaxAssessment(s.ctx, dto.RecordAssessmentRequest{
		TenantID: s.tenantID, FilerID: s.filerID, ReturnID: "ret-1", CreatedBy: "assessor",
		TaxAmount: amt("1000"), PenaltyAmount: amt("100"),
	})
	s.Require().ErrorIs(err, apperrors.ErrInactiveAccount)

	entries, err := s.svc.Journal.GetEntriesForEntity(s.ctx, s.tenantID, s.filerID)
	s.Require().NoError(err)
	s.Empty(entries, "filer entry must roll back with the municipality entry")
	s.True(s.filerLiabilities().IsZero())

	// the rolled back pair released its entry numbers
	next := s.assess("ret-2", "10", "0", "0")
	s.True(strings.HasSuffix(next.FilerEntry.EntryNumber, "-000001"), next.FilerEntry.EntryNumber)
}

// --- Journal ---

func (s *LedgerScenarioSuite) TestPost_UnbalancedPersistsNothing() {
	_, err := s.svc.Journal.PostJournalEntry(s.ctx, dto.PostEntryRequest{
		TenantID: s.tenantID, EntityID: s.filerID, EntityType: domain.EntityFiler,
		Description: "bad", SourceType: domain.SourceManual, CreatedBy: "clerk",
		Lines: []dto.JournalLineRequest{
			{AccountNumber: "1000", Debit: amt("500")},
			{AccountNumber: "2100", Credit: amt("400")},
		},
	})
	s.Require().ErrorIs(err, apperrors.ErrUnbalancedEntry)

	entries, err := s.svc.Journal.GetEntriesForEntity(s.ctx, s.tenantID, s.filerID)
	s.Require().NoError(err)
	s.Empty(entries)
	s.Empty(s.recorder.OfType(domain.EventJournalPosted))
}

func (s *LedgerScenarioSuite) TestPost_ConcurrentNumbering() {
	const n = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int64
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.svc.Journal.PostJournalEntry(s.ctx, dto.PostEntryRequest{
				TenantID: s.tenantID, EntityID: s.filerID, EntityType: domain.EntityFiler,
				Description: "concurrent", SourceType: domain.SourceManual, CreatedBy: "clerk",
				Lines: []dto.JournalLineRequest{
					{AccountNumber: "6100", Debit: amt("1")},
					{AccountNumber: "2100", Credit: amt("1")},
				},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, e.Sequence)
		}()
	}
	wg.Wait()

	s.Require().Empty(errs)
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, seq := range numbers {
		s.Equal(int64(i+1), seq, "sequence must be gapless and unique")
	}
}

func (s *LedgerScenarioSuite) TestPost_TenantsNumberIndependently() {
	_, err := s.svc.Account.SeedStandardChart(s.ctx, "shelbyville", "admin")
	s.Require().NoError(err)

	post := func(tenant string) *domain.JournalEntry {
		e, err := s.svc.Journal.PostJournalEntry(s.ctx, dto.PostEntryRequest{
			TenantID: tenant, EntityID: s.filerID, EntityType: domain.EntityFiler,
			Description: "x", SourceType: domain.SourceManual, CreatedBy: "clerk",
			Lines: []dto.JournalLineRequest{
				{AccountNumber: "6100", Debit: amt("1")},
				{AccountNumber: "2100", Credit: amt("1")},
			},
		})
		s.Require().NoError(err)
		return e
	}

	s.Equal(int64(1), post(s.tenantID).Sequence)
	s.Equal(int64(2), post(s.tenantID).Sequence)
	first := post("shelbyville")
	s.Equal(int64(1), first.Sequence)
	s.True(strings.HasPrefix(first.EntryNumber, "JE-SHELBYVILLE-"))
}

func (s *LedgerScenarioSuite) TestPost_BackdatedEntryNumberedInPostingYear() {
	entryDate := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	e, err := s.svc.Journal.PostJournalEntry(s.ctx, dto.PostEntryRequest{
		TenantID:    s.tenantID,
		EntityID:    s.filerID,
		EntityType:  domain.EntityFiler,
		Description: "late filing",
		SourceType:  domain.SourceManual,
		EntryDate:   entryDate,
		CreatedBy:   "clerk",
		Lines: []dto.JournalLineRequest{
			{AccountNumber: "6100", Debit: amt("1")},
			{AccountNumber: "2100", Credit: amt("1")},
		},
	})
	s.Require().NoError(err)

	s.Equal(entryDate, e.EntryDate)
	s.Equal(fmt.Sprintf("JE-SPRINGFIELD-%d-000001", time.Now().UTC().Year()), e.EntryNumber)
}

func (s *LedgerScenarioSuite) TestReverse_RoundTrip() {
	before := s.filerLiabilities()
	res := s.assess("ret-1", "300", "0", "0")
	s.requireDecimal("300", s.filerLiabilities().Sub(before))

	reversal, err := s.svc.Journal.ReverseEntry(s.ctx, res.FilerEntry.ID, "supervisor", "wrong return")
	s.Require().NoError(err)
	s.Require().NotNil(reversal.ReversalOf)
	s.Equal(res.FilerEntry.ID, *reversal.ReversalOf)
	s.True(s.filerLiabilities().Equal(before))
	s.True(s.filerNet(domain.AcctTaxExpense, domain.DebitNormal).IsZero())

	original, err := s.svc.Journal.GetEntryByID(s.ctx, res.FilerEntry.ID)
	s.Require().NoError(err)
	s.Equal(domain.Reversed, original.Status)
	s.Require().NotNil(original.ReversedBy)
	s.Equal(reversal.ID, *original.ReversedBy)

	_, err = s.svc.Journal.ReverseEntry(s.ctx, res.FilerEntry.ID, "supervisor", "again")
	s.ErrorIs(err, apperrors.ErrEntryAlreadyReversed)
}

func (s *LedgerScenarioSuite) TestReverse_ConcurrentAttemptsOneWins() {
	res := s.assess("ret-1", "300", "0", "0")

	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Journal.ReverseEntry(s.ctx, res.FilerEntry.ID, "supervisor", "dup")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, apperrors.ErrEntryAlreadyReversed)
	}
	s.Equal(1, wins)
}

func (s *LedgerScenarioSuite) TestListEntries_Paginates() {
	for i := 0; i < 5; i++ {
		s.assess("ret-"+string(rune('a'+i)), "10", "0", "0")
	}

	page1, err := s.svc.Journal.ListEntriesForEntity(s.ctx, s.tenantID, s.filerID, dto.ListEntriesParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(page1.Entries, 2)
	s.Require().NotNil(page1.NextToken)

	var seen []int64
	for _, e := range page1.Entries {
		seen = append(seen, e.Sequence)
	}
	token := page1.NextToken
	for token != nil {
		page, err := s.svc.Journal.ListEntriesForEntity(s.ctx, s.tenantID, s.filerID, dto.ListEntriesParams{Limit: 2, NextToken: token})
		s.Require().NoError(err)
		for _, e := range page.Entries {
			seen = append(seen, e.Sequence)
		}
		token = page.NextToken
	}

	s.Len(seen, 5)
	for i := 1; i < len(seen); i++ {
		s.Greater(seen[i-1], seen[i], "newest first")
	}
}

// --- Payments ---

func (s *LedgerScenarioSuite) TestPayment_Declined() {
	s.assess("ret-1", "100", "0", "0")

	res, err := s.pay("100", declinedCard, "ret-1", "")
	s.Require().NoError(err)
	s.Equal(domain.PaymentDeclined, res.Transaction.Status)
	s.Nil(res.Transaction.JournalEntryID)
	s.Nil(res.FilerEntry)
	s.NotEmpty(res.Transaction.FailureReason)

	entries, err := s.svc.Journal.GetEntriesForEntity(s.ctx, s.tenantID, s.filerID)
	s.Require().NoError(err)
	s.Len(entries, 1, "only the assessment")

	stored, err := s.svc.Payment.GetPayment(s.ctx, res.Transaction.ID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentDeclined, stored.Status)
}

func (s *LedgerScenarioSuite) TestPayment_GatewayErrorIsRecorded() {
	res, err := s.pay("100", timeoutCard, "", "")
	s.Require().NoError(err)
	s.Equal(domain.PaymentError, res.Transaction.Status)
	s.Contains(res.Transaction.FailureReason, "timeout")
	s.Nil(res.Transaction.JournalEntryID)
}

func (s *LedgerScenarioSuite) TestPayment_AllocatesInPriorityOrder() {
	s.assess("ret-1", "1000", "100", "50")

	res, err := s.pay("600", approvedCard, "ret-1", "")
	s.Require().NoError(err)
	s.Equal(domain.PaymentApproved, res.Transaction.Status)
	s.requireDecimal("600", res.Transaction.Allocation.Tax)
	s.True(res.Transaction.Allocation.Penalty.IsZero())
	s.True(res.Transaction.Allocation.Overpayment.IsZero())
	s.Require().NotNil(res.Transaction.JournalEntryID)
	s.Equal(res.FilerEntry.ID, *res.Transaction.JournalEntryID)
	s.Equal(res.MunicipalityEntry.ID, *res.Transaction.MunicipalityJournalEntryID)

	res, err = s.pay("530", approvedCard, "ret-1", "")
	s.Require().NoError(err)
	s.requireDecimal("400", res.Transaction.Allocation.Tax)
	s.requireDecimal("100", res.Transaction.Allocation.Penalty)
	s.requireDecimal("30", res.Transaction.Allocation.Interest)

	s.requireDecimal("20", s.filerLiabilities())
	s.requireDecimal("20", s.muniNet(domain.AcctAccountsReceivable, domain.DebitNormal))
	s.requireDecimal("1130", s.muniNet(domain.AcctMunicipalityCash, domain.DebitNormal))
}

func (s *LedgerScenarioSuite) TestPayment_OverpaymentBecomesCredit() {
	s.assess("ret-1", "1000", "100", "50")

	res, err := s.pay("1200", approvedCard, "ret-1", "")
	s.Require().NoError(err)
	s.requireDecimal("50", res.Transaction.Allocation.Overpayment)
	s.requireDecimal("50", s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal))
	s.requireDecimal("50", s.muniNet(domain.AcctOverpaymentsHeld, domain.CreditNormal))
	s.True(s.filerLiabilities().IsZero())
}

func (s *LedgerScenarioSuite) TestPayment_ExplicitAllocation() {
	s.assess("ret-1", "1000", "100", "50")

	res, err := s.svc.Payment.ProcessPayment(s.ctx, dto.PaymentRequest{
		TenantID: s.tenantID, FilerID: s.filerID, Amount: amt("150"),
		Method: domain.MethodCard, MethodDetails: map[string]string{gateway.DetailCardNumber: approvedCard},
		Allocation:  &dto.AllocationRequest{Penalty: amt("100"), Interest: amt("50")},
		ProcessedBy: "cashier",
	})
	s.Require().NoError(err)
	s.True(res.Transaction.Allocation.Tax.IsZero())
	s.requireDecimal("1000", s.filerLiabilities())

	_, err = s.svc.Payment.ProcessPayment(s.ctx, dto.PaymentRequest{
		TenantID: s.tenantID, FilerID: s.filerID, Amount: amt("100"),
		Method: domain.MethodCard, MethodDetails: map[string]string{gateway.DetailCardNumber: approvedCard},
		Allocation:  &dto.AllocationRequest{Tax: amt("150")},
		ProcessedBy: "cashier",
	})
	s.ErrorIs(err, apperrors.ErrInvalidAllocation, "allocation larger than the payment")
}

func (s *LedgerScenarioSuite) TestPayment_IdempotentReplay() {
	s.assess("ret-1", "100", "0", "0")

	first, err := s.pay("100", approvedCard, "ret-1", "key-1")
	s.Require().NoError(err)
	s.False(first.Replayed)

	second, err := s.pay("100", approvedCard, "ret-1", "key-1")
	s.Require().NoError(err)
	s.True(second.Replayed)
	s.Equal(first.Transaction.ID, second.Transaction.ID)

	entries, err := s.svc.Journal.GetEntriesForEntity(s.ctx, s.tenantID, s.filerID)
	s.Require().NoError(err)
	s.Len(entries, 2, "assessment and a single payment")
	s.Len(s.recorder.OfType(domain.EventPaymentProcessed), 1)
}

func (s *LedgerScenarioSuite) TestPayment_RejectsBadAmount() {
	_, err := s.pay("0", approvedCard, "", "")
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.pay("10.001", approvedCard, "", "")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerScenarioSuite) TestPayment_Audited() {
	res, err := s.pay("25", approvedCard, "", "")
	s.Require().NoError(err)

	records, err := s.repos.AuditRepo.ListByEntity(s.ctx, s.tenantID, res.Transaction.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(domain.ActionPaymentRecorded, records[0].Action)
	s.Equal("cashier", records[0].Actor)
}

// countingGateway counts authorizations. With hold set, every call waits until
// hold.Done has been called for all expected callers.
type countingGateway struct {
	inner ports.PaymentGateway
	calls atomic.Int32
	hold  *sync.WaitGroup
}

func (g *countingGateway) Authorize(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationResult, error) {
	g.calls.Add(1)
	if g.hold != nil {
		g.hold.Done()
		g.hold.Wait()
	}
	return g.inner.Authorize(ctx, req)
}

// useGateway rewires the services on the same store with gw.
func (s *LedgerScenarioSuite) useGateway(gw ports.PaymentGateway) {
	s.svc = services.NewServiceContainer(&config.Config{IdempotencyTTL: time.Hour}, s.repos, services.Collaborators{
		Gateway:     gw,
		Idempotency: cache.NewInMemoryIdempotencyStore(),
		Publisher:   s.recorder,
	})
}

func (s *LedgerScenarioSuite) TestPayment_ConcurrentPaymentsShareOutstandingBalance() {
	s.assess("ret-1", "1000", "100", "50")
	hold := &sync.WaitGroup{}
	hold.Add(2)
	s.useGateway(&countingGateway{inner: gateway.NewMockGateway(), hold: hold})

	var wg sync.WaitGroup
	results := make([]*dto.PaymentResult, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.pay("1000", approvedCard, "ret-1", "")
		}(i)
	}
	wg.Wait()

	applied, overpaid := decimal.Zero, decimal.Zero
	for i := range results {
		s.Require().NoError(errs[i])
		s.Equal(domain.PaymentApproved, results[i].Transaction.Status)
		applied = applied.Add(results[i].Transaction.Allocation.Applied())
		overpaid = overpaid.Add(results[i].Transaction.Allocation.Overpayment)
	}
	s.requireDecimal("1150", applied)
	s.requireDecimal("850", overpaid)
	s.requireDecimal("0", s.filerLiabilities())
	s.requireDecimal("0", s.filerNet(domain.AcctTaxLiability, domain.CreditNormal))
	s.requireDecimal("850", s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal))
	s.requireDecimal("0", s.muniNet(domain.AcctAccountsReceivable, domain.DebitNormal))
}

func (s *LedgerScenarioSuite) TestPayment_ApprovedButUnpostedIsKept() {
	s.assess("ret-1", "1000", "0", "0")
	gw := &countingGateway{inner: gateway.NewMockGateway()}
	s.useGateway(gw)
	s.Require().NoError(s.svc.Account.DeactivateAccount(s.ctx, s.tenantID, domain.AcctMunicipalityCash, "admin"))

	_, err := s.pay("500", approvedCard, "ret-1", "k1")
	s.Require().ErrorIs(err, apperrors.ErrPaymentNotPosted)

	kept, err := s.repos.PaymentRepo.FindPaymentByIdempotencyKey(s.ctx, s.tenantID, "k1")
	s.Require().NoError(err)
	s.Equal(domain.PaymentApproved, kept.Status)
	s.NotEmpty(kept.ProviderTransactionID)
	s.NotEmpty(kept.AuthorizationCode)
	s.Nil(kept.JournalEntryID)
	s.Nil(kept.MunicipalityJournalEntryID)
	s.Contains(kept.FailureReason, "posting failed")

	retry, err := s.pay("500", approvedCard, "ret-1", "k1")
	s.Require().NoError(err)
	s.True(retry.Replayed)
	s.Equal(kept.ID, retry.Transaction.ID)
	s.Equal(int32(1), gw.calls.Load(), "the filer must be charged once")

	entries, err := s.svc.Journal.GetEntriesForEntity(s.ctx, s.tenantID, s.filerID)
	s.Require().NoError(err)
	s.Len(entries, 1, "only the assessment is on the filer book")
	s.requireDecimal("1000", s.filerLiabilities())
}

func (s *LedgerScenarioSuite) TestPayment_AllocationFailureReleasesKey() {
	s.assess("ret-1", "100", "0", "0")
	gw := &countingGateway{inner: gateway.NewMockGateway()}
	s.useGateway(gw)

	_, err := s.svc.Payment.ProcessPayment(s.ctx, dto.PaymentRequest{
		TenantID:       s.tenantID,
		FilerID:        s.filerID,
		SourceID:       "ret-1",
		Amount:         amt("200"),
		Method:         domain.MethodCard,
		MethodDetails:  map[string]string{gateway.DetailCardNumber: approvedCard},
		Allocation:     &dto.AllocationRequest{Tax: amt("150")},
		IdempotencyKey: "k2",
		ProcessedBy:    "cashier",
	})
	s.Require().ErrorIs(err, apperrors.ErrInvalidAllocation)
	s.Equal(int32(0), gw.calls.Load())

	res, err := s.pay("100", approvedCard, "ret-1", "k2")
	s.Require().NoError(err)
	s.False(res.Replayed)
	s.Equal(domain.PaymentApproved, res.Transaction.Status)
}

// --- Refunds ---

func (s *LedgerScenarioSuite) overpay() {
	s.assess("ret-1", "100", "0", "0")
	_, err := s.pay("150", approvedCard, "ret-1", "")
	s.Require().NoError(err)
	s.requireDecimal("50", s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal))
}

func (s *LedgerScenarioSuite) requestRefund(amount string) (*dto.RefundResult, error) {
	return s.svc.Refund.RequestRefund(s.ctx, dto.RequestRefundRequest{
		TenantID: s.tenantID, FilerID: s.filerID, Amount: amt(amount),
		Reason: "overpaid Q1", RequestedBy: "filer-clerk",
	})
}

func (s *LedgerScenarioSuite) TestRefund_FullLifecycle() {
	s.overpay()

	_, err := s.requestRefund("60")
	s.Require().ErrorIs(err, apperrors.ErrInsufficientCredit)

	req, err := s.requestRefund("50")
	s.Require().NoError(err)
	s.Equal(domain.RefundRequested, req.Refund.Status)
	s.Len(req.Refund.RequestEntryIDs, 2)
	s.True(s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal).IsZero())
	id := req.Refund.ID

	_, err = s.svc.Refund.IssueRefund(s.ctx, id, decimal.Zero, "treasurer")
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition, "issue before approve")

	_, err = s.svc.Refund.ApproveRefund(s.ctx, id, "filer-clerk")
	s.ErrorIs(err, apperrors.ErrSelfApprovalAttempt)

	approved, err := s.svc.Refund.ApproveRefund(s.ctx, id, "supervisor")
	s.Require().NoError(err)
	s.Equal(domain.RefundApproved, approved.Refund.Status)
	s.Require().NotNil(approved.Refund.ApprovedBy)
	s.Equal("supervisor", *approved.Refund.ApprovedBy)

	_, err = s.svc.Refund.IssueRefund(s.ctx, id, amt("49"), "treasurer")
	s.ErrorIs(err, apperrors.ErrValidation, "amount must match approval")

	issued, err := s.svc.Refund.IssueRefund(s.ctx, id, decimal.Zero, "treasurer")
	s.Require().NoError(err)
	s.Equal(domain.RefundIssued, issued.Refund.Status)
	s.True(strings.HasPrefix(issued.Refund.ConfirmationNumber, services.ConfirmationPrefix))
	s.Len(issued.Entries, 2)

	completed, err := s.svc.Refund.CompleteRefund(s.ctx, id, "treasurer")
	s.Require().NoError(err)
	s.Equal(domain.RefundCompleted, completed.Refund.Status)
	s.Equal(issued.Refund.ConfirmationNumber, completed.Refund.ConfirmationNumber)

	_, err = s.svc.Refund.CompleteRefund(s.ctx, id, "treasurer")
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	s.True(s.filerNet(domain.AcctRefundReceivable, domain.DebitNormal).IsZero())
	s.True(s.muniNet(domain.AcctRefundsPayable, domain.CreditNormal).IsZero())
	s.requireDecimal("100", s.muniNet(domain.AcctMunicipalityCash, domain.DebitNormal))

	report, err := s.svc.Reconciliation.GenerateReport(s.ctx, s.tenantID, "")
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationBalanced, report.Status)

	stored, err := s.svc.Refund.GetRefund(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.RefundCompleted, stored.Status)

	records, err := s.repos.AuditRepo.ListByEntity(s.ctx, s.tenantID, id)
	s.Require().NoError(err)
	s.Len(records, 4)
	s.Len(s.recorder.OfType(domain.EventRefundStatusChanged), 4)
}

func (s *LedgerScenarioSuite) TestRefund_RejectRestoresCredit() {
	s.overpay()
	req, err := s.requestRefund("30")
	s.Require().NoError(err)
	s.requireDecimal("20", s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal))

	_, err = s.svc.Refund.RejectRefund(s.ctx, req.Refund.ID, "supervisor", " ")
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.svc.Refund.RejectRefund(s.ctx, req.Refund.ID, "filer-clerk", "mine")
	s.ErrorIs(err, apperrors.ErrSelfApprovalAttempt)

	rejected, err := s.svc.Refund.RejectRefund(s.ctx, req.Refund.ID, "supervisor", "credit already applied")
	s.Require().NoError(err)
	s.Equal(domain.RefundRejected, rejected.Refund.Status)
	s.Equal("credit already applied", rejected.Refund.RejectionReason)
	s.Len(rejected.Entries, 2)
	s.requireDecimal("50", s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal))

	_, err = s.svc.Refund.ApproveRefund(s.ctx, req.Refund.ID, "supervisor")
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition, "REJECTED is terminal")
}

func (s *LedgerScenarioSuite) TestRefund_ConcurrentRequestsCannotOverdrawCredit() {
	s.overpay()

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.requestRefund("20")
			if err == nil {
				granted.Add(1)
				return
			}
			s.ErrorIs(err, apperrors.ErrInsufficientCredit)
		}()
	}
	wg.Wait()

	s.Equal(int32(2), granted.Load())
	s.requireDecimal("10", s.filerNet(domain.AcctOverpaymentCredit, domain.DebitNormal))
}

func (s *LedgerScenarioSuite) TestRefund_NotFound() {
	_, err := s.svc.Refund.ApproveRefund(s.ctx, "missing", "supervisor")
	s.ErrorIs(err, apperrors.ErrRefundNotFound)
}

// --- Reports ---

func (s *LedgerScenarioSuite) TestReconciliation_BalancedAfterFullPayment() {
	s.assess("ret-1", "2000", "0", "0")
	_, err := s.pay("2000", approvedCard, "ret-1", "")
	s.Require().NoError(err)

	report, err := s.svc.Reconciliation.GenerateReport(s.ctx, s.tenantID, s.tenantID)
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationBalanced, report.Status)
	s.True(report.ARVariance.IsZero())
	s.True(report.CashVariance.IsZero())
	s.Empty(report.Discrepancies)
	s.requireDecimal("2000", report.MunicipalityCash)
	s.requireDecimal("2000", report.FilerPayments)
}

func (s *LedgerScenarioSuite) TestReconciliation_AssessmentWithoutPaymentIsBalanced() {
	s.assess("ret-1", "2000", "0", "0")

	report, err := s.svc.Reconciliation.GenerateReport(s.ctx, s.tenantID, "")
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationBalanced, report.Status)
	s.requireDecimal("2000", report.MunicipalityAR)
	s.requireDecimal("2000", report.FilerLiabilities)
	s.True(report.ARVariance.IsZero())
	s.True(report.FilerPayments.IsZero())
	s.Empty(report.Discrepancies)
}

func (s *LedgerScenarioSuite) TestReconciliation_PaymentMissingFromMunicipalityBook() {
	s.assess("ret-1", "2000", "0", "0")
	_, err := s.svc.Journal.PostJournalEntry(s.ctx, dto.PostEntryRequest{
		TenantID: s.tenantID, EntityID: s.filerID, EntityType: domain.EntityFiler,
		Description: "payment recorded by filer only", SourceType: domain.SourcePayment, SourceID: "ret-1",
		CreatedBy: "clerk",
		Lines: []dto.JournalLineRequest{
			{AccountNumber: domain.AcctTaxLiability, Debit: amt("2000")},
			{AccountNumber: domain.AcctFilerCash, Credit: amt("2000")},
		},
	})
	s.Require().NoError(err)

	report, err := s.svc.Reconciliation.GenerateReport(s.ctx, s.tenantID, "")
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationUnbalanced, report.Status)
	s.requireDecimal("2000", report.ARVariance)
	s.requireDecimal("-2000", report.CashVariance)
	s.Require().Len(report.Discrepancies, 1)
	s.Equal("ret-1", report.Discrepancies[0].SourceID)
	s.requireDecimal("2000", report.Discrepancies[0].Variance)
}

func (s *LedgerScenarioSuite) TestReconciliation_OneSidedReversal() {
	res := s.assess("ret-1", "500", "0", "0")
	_, err := s.svc.Journal.ReverseEntry(s.ctx, res.FilerEntry.ID, "supervisor", "void")
	s.Require().NoError(err)

	report, err := s.svc.Reconciliation.GenerateReport(s.ctx, s.tenantID, "")
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationUnbalanced, report.Status)
	s.Require().Len(report.Discrepancies, 1)
	s.Contains(report.Discrepancies[0].Description, "municipality book only")

	_, err = s.svc.Journal.ReverseEntry(s.ctx, res.MunicipalityEntry.ID, "supervisor", "void")
	s.Require().NoError(err)
	report, err = s.svc.Reconciliation.GenerateReport(s.ctx, s.tenantID, "")
	s.Require().NoError(err)
	s.Equal(domain.ReconciliationBalanced, report.Status)
}

func (s *LedgerScenarioSuite) TestTrialBalance_Empty() {
	tb, err := s.svc.Reporting.TrialBalance(s.ctx, s.tenantID, time.Now())
	s.Require().NoError(err)
	s.True(tb.IsBalanced)
	s.True(tb.TotalDebits.IsZero())
	s.Len(tb.Accounts, len(domain.StandardChart))
	s.Len(tb.Groups, len(domain.AccountTypes))
}

func (s *LedgerScenarioSuite) TestTrialBalance_BalancedAfterActivity() {
	s.overpay()
	req, err := s.requestRefund("50")
	s.Require().NoError(err)
	_, err = s.svc.Refund.ApproveRefund(s.ctx, req.Refund.ID, "supervisor")
	s.Require().NoError(err)
	_, err = s.svc.Refund.IssueRefund(s.ctx, req.Refund.ID, amt("50"), "treasurer")
	s.Require().NoError(err)

	tb, err := s.svc.Reporting.TrialBalance(s.ctx, s.tenantID, time.Now())
	s.Require().NoError(err)
	s.True(tb.IsBalanced, "debits %s credits %s", tb.TotalDebits, tb.TotalCredits)
	s.False(tb.TotalDebits.IsZero())
	s.Equal(domain.Asset, tb.Groups[0].AccountType)
}

func (s *LedgerScenarioSuite) TestTrialBalance_ForPeriodExcludesLaterEntries() {
	post := func(date time.Time, amount string) {
		_, err := s.svc.Journal.PostJournalEntry(s.ctx, dto.PostEntryRequest{
			TenantID: s.tenantID, EntityID: s.filerID, EntityType: domain.EntityFiler,
			EntryDate: date, Description: "dated", SourceType: domain.SourceManual, CreatedBy: "clerk",
			Lines: []dto.JournalLineRequest{
				{AccountNumber: domain.AcctTaxExpense, Debit: amt(amount)},
				{AccountNumber: domain.AcctTaxLiability, Credit: amt(amount)},
			},
		})
		s.Require().NoError(err)
	}
	post(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), "100")
	post(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "900")

	tb, err := s.svc.Reporting.TrialBalanceForPeriod(s.ctx, s.tenantID, "Q1", 2024)
	s.Require().NoError(err)
	s.Equal("Q1-2024", tb.Period)
	s.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), tb.AsOf)
	s.requireDecimal("100", tb.TotalDebits)
	s.True(tb.IsBalanced)

	bal, err := s.svc.Balance.ComputeBalance(s.ctx, s.tenantID, domain.AcctTaxLiability, time.Date(2024, 4, 1, 15, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.requireDecimal("1000", bal.NetBalance)

	_, err = s.svc.Reporting.TrialBalanceForPeriod(s.ctx, s.tenantID, "Q5", 2024)
	s.ErrorIs(err, apperrors.ErrInvalidPeriod)
}

func (s *LedgerScenarioSuite) TestComputeBalance_UnknownAccount() {
	_, err := s.svc.Balance.ComputeBalance(s.ctx, s.tenantID, "9999", time.Now())
	s.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func TestLedgerScenarioSuite(t *testing.T) {
	suite.Run(t, new(LedgerScenarioSuite))
}
