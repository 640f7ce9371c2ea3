package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

type assessmentService struct {
	BaseService
	journalSvc portssvc.JournalWriterSvc
}

// NewAssessmentService creates the assessment poster.
func NewAssessmentService(journalSvc portssvc.JournalWriterSvc, txManager portsrepo.TransactionManager) portssvc.AssessmentSvc {
	return &assessmentService{
		BaseService: BaseService{TxManager: txManager},
		journalSvc:  journalSvc,
	}
}

var _ portssvc.AssessmentSvc = (*assessmentService)(nil)

// RecordTaxAssessment posts the filer and municipality entries for a return
// together: either both exist afterwards or neither does.
func (s *assessmentService) RecordTaxAssessment(ctx context.Context, req dto.RecordAssessmentRequest) (*dto.AssessmentResult, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	amounts := map[domain.Bucket]decimal.Decimal{
		domain.BucketTax:      req.TaxAmount,
		domain.BucketPenalty:  req.PenaltyAmount,
		domain.BucketInterest: req.InterestAmount,
	}
	total := decimal.Zero
	for _, b := range domain.Buckets {
		if amounts[b].IsNegative() {
			return nil, fmt.Errorf("%w: %s amount cannot be negative", apperrors.ErrValidation, b)
		}
		total = total.Add(amounts[b])
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: assessment total must be positive", apperrors.ErrValidation)
	}

	municipalityID := req.MunicipalityID
	if municipalityID == "" {
		municipalityID = req.TenantID
	}

	var filerLines, muniLines []dto.JournalLineRequest
	for _, b := range domain.Buckets {
		amt := amounts[b]
		if amt.IsZero() {
			continue
		}
		accts := domain.AccountsFor(b)
		filerLines = append(filerLines,
			dto.JournalLineRequest{AccountNumber: accts.Expense, Debit: amt, Description: fmt.Sprintf("%s assessed", b)},
			dto.JournalLineRequest{AccountNumber: accts.Liability, Credit: amt, Description: fmt.Sprintf("%s owed", b)},
		)
		muniLines = append(muniLines,
			dto.JournalLineRequest{AccountNumber: accts.Revenue, Credit: amt, Description: fmt.Sprintf("%s revenue", b)},
		)
	}
	muniLines = append([]dto.JournalLineRequest{
		{AccountNumber: domain.AcctAccountsReceivable, Debit: total, Description: "Assessment receivable from " + req.FilerID},
	}, muniLines...)

	description := fmt.Sprintf("Tax assessment for return %s", req.ReturnID)
	if req.Period != "" {
		description = fmt.Sprintf("%s (%s)", description, req.Period)
	}

	result := &dto.AssessmentResult{}
	err := s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		filerEntry, err := s.journalSvc.PostJournalEntry(ctx, dto.PostEntryRequest{
			TenantID:    req.TenantID,
			EntityID:    req.FilerID,
			EntityType:  domain.EntityFiler,
			EntryDate:   req.EntryDate,
			Description: description,
			SourceType:  domain.SourceAssessment,
			SourceID:    req.ReturnID,
			CreatedBy:   req.CreatedBy,
			Lines:       filerLines,
		})
		if err != nil {
			return fmt.Errorf("filer entry: %w", err)
		}
		muniEntry, err := s.journalSvc.PostJournalEntry(ctx, dto.PostEntryRequest{
			TenantID:    req.TenantID,
			EntityID:    municipalityID,
			EntityType:  domain.EntityMunicipality,
			EntryDate:   req.EntryDate,
			Description: description,
			SourceType:  domain.SourceAssessment,
			SourceID:    req.ReturnID,
			CreatedBy:   req.CreatedBy,
			Lines:       muniLines,
		})
		if err != nil {
			return fmt.Errorf("municipality entry: %w", err)
		}
		result.FilerEntry = *filerEntry
		result.MunicipalityEntry = *muniEntry
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record assessment",
			slog.String("tenant_id", req.TenantID),
			slog.String("return_id", req.ReturnID))
		return nil, err
	}

	s.LogInfo(ctx, "Assessment recorded",
		slog.String("tenant_id", req.TenantID),
		slog.String("filer_id", req.FilerID),
		slog.String("return_id", req.ReturnID),
		slog.String("total", total.StringFixed(domain.AmountScale)))
	return result, nil
}
