package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

const defaultPageSize = 20

// journalService provides core journal entry operations.
type journalService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	journalRepo portsrepo.JournalRepositoryFacade
}

// NewJournalService creates a new JournalService.
func NewJournalService(
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	txManager portsrepo.TransactionManager,
	auditRepo portsrepo.AuditRepository,
	publisher ports.EventPublisher,
) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: BaseService{
			TxManager: txManager,
			AuditRepo: auditRepo,
			Publisher: publisher,
		},
		accountRepo: accountRepo,
		journalRepo: journalRepo,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// FormatEntryNumber renders the human-facing entry number "JE-{TENANT}-{YEAR}-{SEQ}".
func FormatEntryNumber(tenantID string, year int, seq int64) string {
	return fmt.Sprintf("JE-%s-%d-%06d", strings.ToUpper(tenantID), year, seq)
}

// validateLines checks line count, line shape and balance. It performs no I/O.
func validateLines(lines []dto.JournalLineRequest) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: got %d", apperrors.ErrEmptyEntry, len(lines))
	}

	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrMalformedLine, i+1)
		}
		debitOnly := l.Debit.IsPositive() && l.Credit.IsZero()
		creditOnly := l.Credit.IsPositive() && l.Debit.IsZero()
		if !debitOnly && !creditOnly {
			return fmt.Errorf("%w: line %d (account %s) debit=%s credit=%s",
				apperrors.ErrMalformedLine, i+1, l.AccountNumber, l.Debit.String(), l.Credit.String())
		}
		if !domain.HasValidScale(l.Debit) || !domain.HasValidScale(l.Credit) {
			return fmt.Errorf("%w: line %d has more than %d decimal places", apperrors.ErrMalformedLine, i+1, domain.AmountScale)
		}
	}
	return nil
}

func validateBalance(lines []domain.JournalLine) (decimal.Decimal, error) {
	debits, credits := domain.SumSides(lines)
	if !debits.Equal(credits) {
		return decimal.Zero, fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrUnbalancedEntry, debits.StringFixed(domain.AmountScale), credits.StringFixed(domain.AmountScale))
	}
	return debits, nil
}

// validateAccounts ensures every referenced account exists for the tenant and is active.
func (s *journalService) validateAccounts(ctx context.Context, tenantID string, lines []dto.JournalLineRequest) error {
	numbers := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.AccountNumber] {
			seen[l.AccountNumber] = true
			numbers = append(numbers, l.AccountNumber)
		}
	}

	accounts, err := s.accountRepo.FindAccounts(ctx, tenantID, numbers)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, n := range numbers {
		acc, ok := accounts[n]
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidAccount, n)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: %s", apperrors.ErrInactiveAccount, n)
		}
	}
	return nil
}

// buildEntry runs the whole validation pipeline and returns an unsaved entry.
func (s *journalService) buildEntry(ctx context.Context, req dto.PostEntryRequest) (*domain.JournalEntry, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if err := s.validateAccounts(ctx, req.TenantID, req.Lines); err != nil {
		return nil, err
	}

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.JournalLine{
			LineNumber:    i + 1,
			AccountNumber: l.AccountNumber,
			Debit:         l.Debit,
			Credit:        l.Credit,
			Description:   l.Description,
		}
	}
	total, err := validateBalance(lines)
	if err != nil {
		return nil, err
	}

	entryDate := req.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	return &domain.JournalEntry{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		EntityID:    req.EntityID,
		EntityType:  req.EntityType,
		EntryDate:   domain.NormalizeDate(entryDate),
		Description: req.Description,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Status:      domain.Posted,
		TotalAmount: total,
		ReversalOf:  req.ReversalOf(),
		CreatedBy:   req.CreatedBy,
		CreatedAt:   time.Now().UTC(),
		Lines:       lines,
	}, nil
}

// persist allocates the entry number and writes the entry with its audit record.
// It must run inside a transaction.
func (s *journalService) persist(ctx context.Context, entry *domain.JournalEntry) error {
	seq, err := s.journalRepo.NextEntrySequence(ctx, entry.TenantID)
	if err != nil {
		return fmt.Errorf("failed to allocate entry number: %w", err)
	}
	entry.Sequence = seq
	// the year is the posting year, not the entry date's, so backdated entries keep the current year
	entry.EntryNumber = FormatEntryNumber(entry.TenantID, time.Now().UTC().Year(), seq)

	if err := s.journalRepo.SaveEntry(ctx, *entry); err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return s.Audit(ctx, entry.TenantID, entry.ID, domain.ActionEntryPosted, entry.CreatedBy, "",
		fmt.Sprintf("%s %s %s/%s total=%s", entry.EntryNumber, entry.EntityType, entry.SourceType, entry.SourceID,
			entry.TotalAmount.StringFixed(domain.AmountScale)))
}

// PostJournalEntry validates and posts a balanced entry.
func (s *journalService) PostJournalEntry(ctx context.Context, req dto.PostEntryRequest) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx)

	entry, err := s.buildEntry(ctx, req)
	if err != nil {
		logger.Warn("Journal entry rejected",
			slog.String("tenant_id", req.TenantID),
			slog.String("entity_id", req.EntityID),
			slog.String("source_id", req.SourceID),
			slog.String("error", err.Error()))
		return nil, err
	}

	err = s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		return s.persist(ctx, entry)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post journal entry",
			slog.String("tenant_id", entry.TenantID),
			slog.String("entry_id", entry.ID))
		return nil, err
	}

	s.PublishAfterCommit(ctx, domain.LedgerEvent{
		EventType: domain.EventJournalPosted,
		TenantID:  entry.TenantID,
		EntityID:  entry.EntityID,
		Reference: entry.EntryNumber,
		Amount:    entry.TotalAmount.StringFixed(domain.AmountScale),
		Actor:     entry.CreatedBy,
		Attributes: map[string]string{
			"entry_id":    entry.ID,
			"source_type": entry.SourceType,
			"source_id":   entry.SourceID,
		},
	})

	logger.Debug("Journal entry posted",
		slog.String("entry_id", entry.ID),
		slog.String("entry_number", entry.EntryNumber))
	return entry, nil
}

// ReverseEntry posts the mirror image of an entry and flips the original to REVERSED
// in one unit of work.
func (s *journalService) ReverseEntry(ctx context.Context, entryID, userID, reason string) (*domain.JournalEntry, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reversal reason is required", apperrors.ErrValidation)
	}

	var reversal *domain.JournalEntry
	err := s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		original, err := s.journalRepo.FindEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if original.Status == domain.Reversed {
			return fmt.Errorf("%w: %s", apperrors.ErrEntryAlreadyReversed, original.EntryNumber)
		}

		swapped := make([]domain.JournalLine, len(original.Lines))
		for i, l := range original.Lines {
			swapped[i] = l.Swapped()
		}
		req := dto.PostEntryRequest{
			TenantID:    original.TenantID,
			EntityID:    original.EntityID,
			EntityType:  original.EntityType,
			Description: fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, reason),
			SourceType:  domain.SourceReversal,
			SourceID:    original.SourceID,
			CreatedBy:   userID,
			Lines:       dto.LinesFromDomain(swapped),
		}.WithReversalOf(original.ID)

		reversal, err = s.buildEntry(ctx, req)
		if err != nil {
			return err
		}
		if err := s.persist(ctx, reversal); err != nil {
			return err
		}
		if err := s.journalRepo.MarkReversed(ctx, original.ID, reversal.ID); err != nil {
			return err
		}
		return s.Audit(ctx, original.TenantID, original.ID, domain.ActionEntryReversed, userID,
			string(domain.Posted), fmt.Sprintf("%s by %s", domain.Reversed, reversal.EntryNumber))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.PublishAfterCommit(ctx, domain.LedgerEvent{
		EventType:  domain.EventJournalReversed,
		TenantID:   reversal.TenantID,
		EntityID:   reversal.EntityID,
		Reference:  reversal.EntryNumber,
		Amount:     reversal.TotalAmount.StringFixed(domain.AmountScale),
		Actor:      userID,
		Attributes: map[string]string{"reversal_of": entryID, "reason": reason},
	})

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.ID))
	return reversal, nil
}

func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return s.journalRepo.FindEntryByID(ctx, entryID)
}

func (s *journalService) GetEntriesForEntity(ctx context.Context, tenantID, entityID string) ([]domain.JournalEntry, error) {
	entries, err := s.journalRepo.FindEntriesByEntity(ctx, tenantID, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load entries",
			slog.String("tenant_id", tenantID),
			slog.String("entity_id", entityID))
		return nil, err
	}
	return entries, nil
}

func (s *journalService) ListEntriesForEntity(ctx context.Context, tenantID, entityID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if err := dto.Validate(params); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	entries, next, err := s.journalRepo.ListEntriesByEntity(ctx, tenantID, entityID, limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	return &dto.ListEntriesResponse{Entries: entries, NextToken: next}, nil
}
