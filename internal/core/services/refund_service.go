package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

// ConfirmationPrefix starts every refund confirmation number.
const ConfirmationPrefix = "RF-"

type refundService struct {
	BaseService
	refundRepo portsrepo.RefundRepository
	journalSvc portssvc.JournalWriterSvc
	balanceSvc portssvc.BalanceSvc
	now        func() time.Time
}

// NewRefundService creates the refund workflow.
func NewRefundService(
	refundRepo portsrepo.RefundRepository,
	journalSvc portssvc.JournalWriterSvc,
	balanceSvc portssvc.BalanceSvc,
	txManager portsrepo.TransactionManager,
	auditRepo portsrepo.AuditRepository,
	publisher ports.EventPublisher,
) portssvc.RefundSvc {
	return &refundService{
		BaseService: BaseService{
			TxManager: txManager,
			AuditRepo: auditRepo,
			Publisher: publisher,
		},
		refundRepo: refundRepo,
		journalSvc: journalSvc,
		balanceSvc: balanceSvc,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.RefundSvc = (*refundService)(nil)

func (s *refundService) GetRefund(ctx context.Context, refundID string) (*domain.RefundRequest, error) {
	return s.refundRepo.FindRefundByID(ctx, refundID)
}

// availableCredit is the filer's unrefunded overpayment balance.
func (s *refundService) availableCredit(ctx context.Context, tenantID, filerID string) (decimal.Decimal, error) {
	totals, err := s.balanceSvc.ComputeBalances(ctx, tenantID, domain.BalanceFilter{
		EntityType:     domain.EntityFiler,
		EntityID:       filerID,
		AccountNumbers: []string{domain.AcctOverpaymentCredit},
	})
	if err != nil {
		return decimal.Zero, err
	}
	return netOf(totals, domain.AcctOverpaymentCredit, domain.DebitNormal), nil
}

// RequestRefund moves the requested amount out of the filer's overpayment credit
// into a refund receivable and opens the request.
func (s *refundService) RequestRefund(ctx context.Context, req dto.RequestRefundRequest) (*dto.RefundResult, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() || !domain.HasValidScale(req.Amount) {
		return nil, fmt.Errorf("%w: refund amount must be positive with at most %d decimal places",
			apperrors.ErrValidation, domain.AmountScale)
	}

	now := s.now()
	refund := domain.RefundRequest{
		ID:             uuid.NewString(),
		TenantID:       req.TenantID,
		FilerID:        req.FilerID,
		MunicipalityID: req.MunicipalityID,
		Amount:         req.Amount,
		Reason:         req.Reason,
		Status:         domain.RefundRequested,
		RequestedBy:    req.RequestedBy,
		RequestedAt:    now,
		LastUpdatedAt:  now,
	}
	if refund.MunicipalityID == "" {
		refund.MunicipalityID = refund.TenantID
	}

	var entries []domain.JournalEntry
	err := s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.LockFiler(ctx, req.TenantID, req.FilerID); err != nil {
			return err
		}
		credit, err := s.availableCredit(ctx, req.TenantID, req.FilerID)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(credit) {
			return fmt.Errorf("%w: requested %s, available %s", apperrors.ErrInsufficientCredit,
				req.Amount.StringFixed(domain.AmountScale), credit.StringFixed(domain.AmountScale))
		}

		entries, err = s.postPair(ctx, refund, req.RequestedBy, domain.SourceRefundRequest, "Refund requested",
			[]dto.JournalLineRequest{
				{AccountNumber: domain.AcctRefundReceivable, Debit: refund.Amount, Description: "Refund receivable"},
				{AccountNumber: domain.AcctOverpaymentCredit, Credit: refund.Amount, Description: "Credit applied to refund"},
			},
			[]dto.JournalLineRequest{
				{AccountNumber: domain.AcctOverpaymentsHeld, Debit: refund.Amount, Description: "Overpayment to be refunded"},
				{AccountNumber: domain.AcctRefundsPayable, Credit: refund.Amount, Description: "Refund payable"},
			})
		if err != nil {
			return err
		}
		refund.RequestEntryIDs = entryIDs(entries)

		if err := s.refundRepo.SaveRefund(ctx, refund); err != nil {
			return fmt.Errorf("failed to save refund request: %w", err)
		}
		return s.Audit(ctx, refund.TenantID, refund.ID, domain.ActionRefundRequested, refund.RequestedBy, "",
			fmt.Sprintf("%s amount=%s", refund.Status, refund.Amount.StringFixed(domain.AmountScale)))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to request refund",
			slog.String("tenant_id", req.TenantID),
			slog.String("filer_id", req.FilerID))
		return nil, err
	}

	s.publishStatus(ctx, refund, "", req.RequestedBy)
	s.LogInfo(ctx, "Refund requested",
		slog.String("refund_id", refund.ID),
		slog.String("amount", refund.Amount.StringFixed(domain.AmountScale)))
	return &dto.RefundResult{Refund: refund, Entries: entries}, nil
}

func (s *refundService) ApproveRefund(ctx context.Context, refundID, actorID string) (*dto.RefundResult, error) {
	return s.transition(ctx, refundID, actorID, domain.RefundApproved, domain.ActionRefundApproved,
		func(ctx context.Context, refund *domain.RefundRequest, now time.Time) ([]domain.JournalEntry, error) {
			if refund.RequestedBy == actorID {
				return nil, fmt.Errorf("%w: refund %s", apperrors.ErrSelfApprovalAttempt, refund.ID)
			}
			refund.ApprovedBy = &actorID
			refund.ApprovedAt = &now
			return nil, nil
		})
}

// RejectRefund closes the request and reverses its entries, restoring the
// filer's overpayment credit.
func (s *refundService) RejectRefund(ctx context.Context, refundID, actorID, reason string) (*dto.RefundResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", apperrors.ErrValidation)
	}
	return s.transition(ctx, refundID, actorID, domain.RefundRejected, domain.ActionRefundRejected,
		func(ctx context.Context, refund *domain.RefundRequest, now time.Time) ([]domain.JournalEntry, error) {
			if refund.RequestedBy == actorID {
				return nil, fmt.Errorf("%w: refund %s", apperrors.ErrSelfApprovalAttempt, refund.ID)
			}
			var reversals []domain.JournalEntry
			for _, entryID := range refund.RequestEntryIDs {
				rev, err := s.journalSvc.ReverseEntry(ctx, entryID, actorID, "refund rejected: "+reason)
				if err != nil {
					return nil, err
				}
				reversals = append(reversals, *rev)
			}
			refund.RejectedBy = &actorID
			refund.RejectedAt = &now
			refund.RejectionReason = reason
			return reversals, nil
		})
}

// IssueRefund pays the approved amount out of cash on both books. A zero amount
// means the approved amount; any other amount must match it.
func (s *refundService) IssueRefund(ctx context.Context, refundID string, amount decimal.Decimal, issuedBy string) (*dto.RefundResult, error) {
	if strings.TrimSpace(issuedBy) == "" {
		return nil, fmt.Errorf("%w: issuer is required", apperrors.ErrValidation)
	}
	return s.transition(ctx, refundID, issuedBy, domain.RefundIssued, domain.ActionRefundIssued,
		func(ctx context.Context, refund *domain.RefundRequest, now time.Time) ([]domain.JournalEntry, error) {
			if !amount.IsZero() && !amount.Equal(refund.Amount) {
				return nil, fmt.Errorf("%w: issue amount %s does not match approved amount %s", apperrors.ErrValidation,
					amount.StringFixed(domain.AmountScale), refund.Amount.StringFixed(domain.AmountScale))
			}
			entries, err := s.postPair(ctx, *refund, issuedBy, domain.SourceRefundIssue, "Refund issued",
				[]dto.JournalLineRequest{
					{AccountNumber: domain.AcctFilerCash, Debit: refund.Amount, Description: "Refund received"},
					{AccountNumber: domain.AcctRefundReceivable, Credit: refund.Amount, Description: "Refund receivable settled"},
				},
				[]dto.JournalLineRequest{
					{AccountNumber: domain.AcctRefundsPayable, Debit: refund.Amount, Description: "Refund payable settled"},
					{AccountNumber: domain.AcctMunicipalityCash, Credit: refund.Amount, Description: "Refund paid to " + refund.FilerID},
				})
			if err != nil {
				return nil, err
			}
			refund.IssueEntryIDs = entryIDs(entries)
			refund.IssuedBy = &issuedBy
			refund.IssuedAt = &now
			refund.ConfirmationNumber = ConfirmationPrefix + ulid.Make().String()
			return entries, nil
		})
}

// CompleteRefund records the external confirmation that the money arrived.
func (s *refundService) CompleteRefund(ctx context.Context, refundID, actorID string) (*dto.RefundResult, error) {
	return s.transition(ctx, refundID, actorID, domain.RefundCompleted, domain.ActionRefundCompleted,
		func(ctx context.Context, refund *domain.RefundRequest, now time.Time) ([]domain.JournalEntry, error) {
			refund.CompletedBy = &actorID
			refund.CompletedAt = &now
			return nil, nil
		})
}

type refundStep func(ctx context.Context, refund *domain.RefundRequest, now time.Time) ([]domain.JournalEntry, error)

// transition locks the request, checks the move is legal, applies step and saves
// the result in one unit of work.
func (s *refundService) transition(ctx context.Context, refundID, actorID string, next domain.RefundStatus, action string, step refundStep) (*dto.RefundResult, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, fmt.Errorf("%w: actor is required", apperrors.ErrValidation)
	}

	var (
		refund  *domain.RefundRequest
		entries []domain.JournalEntry
		prev    domain.RefundStatus
	)
	err := s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		refund, err = s.refundRepo.FindRefundForUpdate(ctx, refundID)
		if err != nil {
			return err
		}
		prev = refund.Status
		if !prev.CanTransitionTo(next) {
			return fmt.Errorf("%w: refund %s cannot move from %s to %s",
				apperrors.ErrInvalidStateTransition, refund.ID, prev, next)
		}

		now := s.now()
		entries, err = step(ctx, refund, now)
		if err != nil {
			return err
		}
		refund.Status = next
		refund.LastUpdatedAt = now
		if err := s.refundRepo.UpdateRefund(ctx, *refund); err != nil {
			return fmt.Errorf("failed to update refund request: %w", err)
		}
		return s.Audit(ctx, refund.TenantID, refund.ID, action, actorID, string(prev), string(next))
	})
	if err != nil {
		s.LogError(ctx, err, "Refund transition failed",
			slog.String("refund_id", refundID),
			slog.String("target_status", string(next)))
		return nil, err
	}

	s.publishStatus(ctx, *refund, prev, actorID)
	s.LogInfo(ctx, "Refund status changed",
		slog.String("refund_id", refund.ID),
		slog.String("from", string(prev)),
		slog.String("to", string(next)))
	return &dto.RefundResult{Refund: *refund, Entries: entries}, nil
}

// postPair posts the filer and municipality side of a refund step under the refund's id.
func (s *refundService) postPair(ctx context.Context, refund domain.RefundRequest, actorID, sourceType, description string, filerLines, muniLines []dto.JournalLineRequest) ([]domain.JournalEntry, error) {
	description = fmt.Sprintf("%s (%s)", description, refund.ID)
	filerEntry, err := s.journalSvc.PostJournalEntry(ctx, dto.PostEntryRequest{
		TenantID:    refund.TenantID,
		EntityID:    refund.FilerID,
		EntityType:  domain.EntityFiler,
		Description: description,
		SourceType:  sourceType,
		SourceID:    refund.ID,
		CreatedBy:   actorID,
		Lines:       filerLines,
	})
	if err != nil {
		return nil, fmt.Errorf("filer entry: %w", err)
	}
	muniEntry, err := s.journalSvc.PostJournalEntry(ctx, dto.PostEntryRequest{
		TenantID:    refund.TenantID,
		EntityID:    refund.MunicipalityID,
		EntityType:  domain.EntityMunicipality,
		Description: description,
		SourceType:  sourceType,
		SourceID:    refund.ID,
		CreatedBy:   actorID,
		Lines:       muniLines,
	})
	if err != nil {
		return nil, fmt.Errorf("municipality entry: %w", err)
	}
	return []domain.JournalEntry{*filerEntry, *muniEntry}, nil
}

func (s *refundService) publishStatus(ctx context.Context, refund domain.RefundRequest, prev domain.RefundStatus, actorID string) {
	s.PublishAfterCommit(ctx, domain.LedgerEvent{
		EventType: domain.EventRefundStatusChanged,
		TenantID:  refund.TenantID,
		EntityID:  refund.FilerID,
		Reference: refund.ID,
		Amount:    refund.Amount.StringFixed(domain.AmountScale),
		Actor:     actorID,
		Attributes: map[string]string{
			"from":         string(prev),
			"to":           string(refund.Status),
			"confirmation": refund.ConfirmationNumber,
		},
	})
}

func entryIDs(entries []domain.JournalEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
