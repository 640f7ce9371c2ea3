package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

const defaultIdempotencyTTL = 24 * time.Hour

type paymentService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepository
	journalSvc     portssvc.JournalWriterSvc
	balanceSvc     portssvc.BalanceSvc
	gateway        ports.PaymentGateway
	idempotency    ports.IdempotencyStore
	idempotencyTTL time.Duration
}

// PaymentServiceOption configures optional collaborators of the payment bridge.
type PaymentServiceOption func(*paymentService)

// WithIdempotencyStore enables key reservation for concurrent retries.
func WithIdempotencyStore(store ports.IdempotencyStore, ttl time.Duration) PaymentServiceOption {
	return func(s *paymentService) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithPaymentAuditLog records one audit entry per payment attempt.
func WithPaymentAuditLog(auditRepo portsrepo.AuditRepository) PaymentServiceOption {
	return func(s *paymentService) {
		s.AuditRepo = auditRepo
	}
}

// WithPaymentPublisher announces processed payments.
func WithPaymentPublisher(publisher ports.EventPublisher) PaymentServiceOption {
	return func(s *paymentService) {
		s.Publisher = publisher
	}
}

// NewPaymentService creates the payment bridge.
func NewPaymentService(
	paymentRepo portsrepo.PaymentRepository,
	journalSvc portssvc.JournalWriterSvc,
	balanceSvc portssvc.BalanceSvc,
	gateway ports.PaymentGateway,
	txManager portsrepo.TransactionManager,
	opts ...PaymentServiceOption,
) portssvc.PaymentSvc {
	s := &paymentService{
		BaseService:    BaseService{TxManager: txManager},
		paymentRepo:    paymentRepo,
		journalSvc:     journalSvc,
		balanceSvc:     balanceSvc,
		gateway:        gateway,
		idempotencyTTL: defaultIdempotencyTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.PaymentSvc = (*paymentService)(nil)

func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error) {
	return s.paymentRepo.FindPaymentByID(ctx, paymentID)
}

// ProcessPayment makes a single gateway round-trip. Approved payments are posted to
// both books together with the transaction record; declines and gateway errors are
// recorded without any journal entry.
func (s *paymentService) ProcessPayment(ctx context.Context, req dto.PaymentRequest) (*dto.PaymentResult, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() || !domain.HasValidScale(req.Amount) {
		return nil, fmt.Errorf("%w: payment amount must be positive with at most %d decimal places",
			apperrors.ErrValidation, domain.AmountScale)
	}

	if req.IdempotencyKey != "" {
		replay, err := s.claimKey(ctx, req.TenantID, req.IdempotencyKey)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	result, charged, err := s.process(ctx, req)
	// once the gateway has been called the key stays reserved
	if err != nil && !charged && req.IdempotencyKey != "" {
		s.releaseKey(ctx, req.TenantID, req.IdempotencyKey)
	}
	return result, err
}

// process reports whether the gateway was called alongside the result.
func (s *paymentService) process(ctx context.Context, req dto.PaymentRequest) (*dto.PaymentResult, bool, error) {
	municipalityID := req.MunicipalityID
	if municipalityID == "" {
		municipalityID = req.TenantID
	}

	// allocation errors are caught before the filer is charged
	outstanding, err := s.outstanding(ctx, req.TenantID, req.FilerID)
	if err != nil {
		return nil, false, err
	}
	if _, err := allocatePayment(req, outstanding, false); err != nil {
		return nil, false, err
	}

	payment := domain.PaymentTransaction{
		ID:             uuid.NewString(),
		TenantID:       req.TenantID,
		FilerID:        req.FilerID,
		MunicipalityID: municipalityID,
		SourceID:       req.SourceID,
		Amount:         req.Amount,
		Method:         req.Method,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      req.ProcessedBy,
		CreatedAt:      time.Now().UTC(),
	}
	if payment.SourceID == "" {
		payment.SourceID = payment.ID
	}

	auth, err := s.gateway.Authorize(ctx, domain.AuthorizationRequest{
		Amount:        req.Amount,
		Method:        req.Method,
		MethodDetails: req.MethodDetails,
	})
	switch {
	case err != nil:
		s.GetLogger(ctx).Warn("Payment gateway call failed",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()))
		payment.Status = domain.PaymentError
		payment.FailureReason = err.Error()
	default:
		payment.Status = auth.Status
		payment.ProviderTransactionID = auth.ProviderTransactionID
		payment.AuthorizationCode = auth.AuthorizationCode
		payment.FailureReason = auth.FailureReason
	}

	result := &dto.PaymentResult{}
	err = s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		if payment.Status == domain.PaymentApproved {
			if err := s.LockFiler(ctx, payment.TenantID, payment.FilerID); err != nil {
				return err
			}
			// other payments may have settled part of the balance since the gateway call
			outstanding, err := s.outstanding(ctx, payment.TenantID, payment.FilerID)
			if err != nil {
				return err
			}
			if payment.Allocation, err = allocatePayment(req, outstanding, true); err != nil {
				return err
			}
			filerEntry, muniEntry, err := s.postPayment(ctx, payment)
			if err != nil {
				return err
			}
			payment.JournalEntryID = &filerEntry.ID
			payment.MunicipalityJournalEntryID = &muniEntry.ID
			result.FilerEntry = filerEntry
			result.MunicipalityEntry = muniEntry
		}
		if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment transaction: %w", err)
		}
		return s.Audit(ctx, payment.TenantID, payment.ID, domain.ActionPaymentRecorded, payment.CreatedBy, "",
			fmt.Sprintf("%s %s amount=%s source=%s", payment.Status, payment.Method,
				payment.Amount.StringFixed(domain.AmountScale), payment.SourceID))
	})
	if err != nil {
		if payment.Status == domain.PaymentApproved {
			return nil, true, s.recordUnposted(ctx, payment, err)
		}
		s.LogError(ctx, err, "Failed to record payment",
			slog.String("payment_id", payment.ID),
			slog.String("status", string(payment.Status)))
		return nil, true, err
	}

	s.PublishAfterCommit(ctx, domain.LedgerEvent{
		EventType: domain.EventPaymentProcessed,
		TenantID:  payment.TenantID,
		EntityID:  payment.FilerID,
		Reference: payment.ID,
		Amount:    payment.Amount.StringFixed(domain.AmountScale),
		Actor:     payment.CreatedBy,
		Attributes: map[string]string{
			"status":      string(payment.Status),
			"source_id":   payment.SourceID,
			"overpayment": payment.Allocation.Overpayment.StringFixed(domain.AmountScale),
		},
	})

	s.LogInfo(ctx, "Payment processed",
		slog.String("payment_id", payment.ID),
		slog.String("filer_id", payment.FilerID),
		slog.String("status", string(payment.Status)))
	result.Transaction = payment
	return result, true, nil
}

// recordUnposted saves an approved authorization whose posting failed, without
// journal entries, so a retry with the same key replays it instead of charging again.
func (s *paymentService) recordUnposted(ctx context.Context, payment domain.PaymentTransaction, cause error) error {
	s.LogError(ctx, cause, "Failed to post approved payment",
		slog.String("payment_id", payment.ID),
		slog.String("provider_transaction_id", payment.ProviderTransactionID))

	payment.Allocation = domain.PaymentAllocation{}
	payment.JournalEntryID = nil
	payment.MunicipalityJournalEntryID = nil
	payment.FailureReason = "posting failed: " + cause.Error()

	err := s.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment transaction: %w", err)
		}
		return s.Audit(ctx, payment.TenantID, payment.ID, domain.ActionPaymentRecorded, payment.CreatedBy, "",
			fmt.Sprintf("%s %s amount=%s source=%s unposted", payment.Status, payment.Method,
				payment.Amount.StringFixed(domain.AmountScale), payment.SourceID))
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record unposted payment",
			slog.String("payment_id", payment.ID),
			slog.String("provider_transaction_id", payment.ProviderTransactionID),
			slog.String("authorization_code", payment.AuthorizationCode))
	}
	return fmt.Errorf("%w: payment %s (provider %s): %v",
		apperrors.ErrPaymentNotPosted, payment.ID, payment.ProviderTransactionID, cause)
}

// outstanding returns what the filer still owes per bucket, never below zero.
func (s *paymentService) outstanding(ctx context.Context, tenantID, filerID string) (map[domain.Bucket]decimal.Decimal, error) {
	totals, err := s.balanceSvc.ComputeBalances(ctx, tenantID, domain.BalanceFilter{
		EntityType:     domain.EntityFiler,
		EntityID:       filerID,
		AccountNumbers: domain.FilerLiabilityAccounts,
	})
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Bucket]decimal.Decimal, len(domain.Buckets))
	for _, b := range domain.Buckets {
		owed := netOf(totals, domain.AccountsFor(b).Liability, domain.CreditNormal)
		if owed.IsNegative() {
			owed = decimal.Zero
		}
		out[b] = owed
	}
	return out, nil
}

// allocatePayment splits the payment across the outstanding buckets. The default
// fills tax, then penalty, then interest, each up to its outstanding balance. An
// explicit allocation above a bucket's balance is rejected, or with clamp set cut
// down to the balance; whatever is left becomes overpayment credit.
func allocatePayment(req dto.PaymentRequest, outstanding map[domain.Bucket]decimal.Decimal, clamp bool) (domain.PaymentAllocation, error) {
	applied := make(map[domain.Bucket]decimal.Decimal, len(domain.Buckets))
	if req.Allocation != nil {
		applied[domain.BucketTax] = req.Allocation.Tax
		applied[domain.BucketPenalty] = req.Allocation.Penalty
		applied[domain.BucketInterest] = req.Allocation.Interest
		sum := decimal.Zero
		for _, b := range domain.Buckets {
			amt := applied[b]
			if amt.IsNegative() || !domain.HasValidScale(amt) {
				return domain.PaymentAllocation{}, fmt.Errorf("%w: %s amount %s", apperrors.ErrInvalidAllocation, b, amt.String())
			}
			if amt.GreaterThan(outstanding[b]) {
				if !clamp {
					return domain.PaymentAllocation{}, fmt.Errorf("%w: %s allocation %s exceeds outstanding %s",
						apperrors.ErrInvalidAllocation, b, amt.StringFixed(domain.AmountScale), outstanding[b].StringFixed(domain.AmountScale))
				}
				applied[b] = outstanding[b]
			}
			sum = sum.Add(amt)
		}
		if sum.GreaterThan(req.Amount) {
			return domain.PaymentAllocation{}, fmt.Errorf("%w: allocations total %s but payment is %s",
				apperrors.ErrInvalidAllocation, sum.StringFixed(domain.AmountScale), req.Amount.StringFixed(domain.AmountScale))
		}
	} else {
		remaining := req.Amount
		for _, b := range domain.Buckets {
			amt := decimal.Min(remaining, outstanding[b])
			applied[b] = amt
			remaining = remaining.Sub(amt)
		}
	}

	allocation := domain.PaymentAllocation{
		Tax:      applied[domain.BucketTax],
		Penalty:  applied[domain.BucketPenalty],
		Interest: applied[domain.BucketInterest],
	}
	allocation.Overpayment = req.Amount.Sub(allocation.Applied())
	return allocation, nil
}

// postPayment posts the mirrored pair for an approved payment. It must run inside
// a transaction.
func (s *paymentService) postPayment(ctx context.Context, payment domain.PaymentTransaction) (*domain.JournalEntry, *domain.JournalEntry, error) {
	alloc := payment.Allocation
	byBucket := map[domain.Bucket]decimal.Decimal{
		domain.BucketTax:      alloc.Tax,
		domain.BucketPenalty:  alloc.Penalty,
		domain.BucketInterest: alloc.Interest,
	}

	var filerLines, muniLines []dto.JournalLineRequest
	muniLines = append(muniLines, dto.JournalLineRequest{
		AccountNumber: domain.AcctMunicipalityCash, Debit: payment.Amount, Description: "Payment received from " + payment.FilerID,
	})
	for _, b := range domain.Buckets {
		amt := byBucket[b]
		if amt.IsZero() {
			continue
		}
		liability := domain.AccountsFor(b).Liability
		filerLines = append(filerLines, dto.JournalLineRequest{
			AccountNumber: liability, Debit: amt, Description: fmt.Sprintf("%s paid", b),
		})
		muniLines = append(muniLines, dto.JournalLineRequest{
			AccountNumber: domain.AcctAccountsReceivable, Credit: amt, Description: fmt.Sprintf("%s collected", b),
		})
	}
	if alloc.Overpayment.IsPositive() {
		filerLines = append(filerLines, dto.JournalLineRequest{
			AccountNumber: domain.AcctOverpaymentCredit, Debit: alloc.Overpayment, Description: "Overpayment credit",
		})
		muniLines = append(muniLines, dto.JournalLineRequest{
			AccountNumber: domain.AcctOverpaymentsHeld, Credit: alloc.Overpayment, Description: "Overpayment held",
		})
	}
	filerLines = append(filerLines, dto.JournalLineRequest{
		AccountNumber: domain.AcctFilerCash, Credit: payment.Amount, Description: "Payment " + payment.ProviderTransactionID,
	})

	description := fmt.Sprintf("%s payment %s", payment.Method, payment.ID)
	filerEntry, err := s.journalSvc.PostJournalEntry(ctx, dto.PostEntryRequest{
		TenantID:    payment.TenantID,
		EntityID:    payment.FilerID,
		EntityType:  domain.EntityFiler,
		Description: description,
		SourceType:  domain.SourcePayment,
		SourceID:    payment.SourceID,
		CreatedBy:   payment.CreatedBy,
		Lines:       filerLines,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("filer entry: %w", err)
	}
	muniEntry, err := s.journalSvc.PostJournalEntry(ctx, dto.PostEntryRequest{
		TenantID:    payment.TenantID,
		EntityID:    payment.MunicipalityID,
		EntityType:  domain.EntityMunicipality,
		Description: description,
		SourceType:  domain.SourcePayment,
		SourceID:    payment.SourceID,
		CreatedBy:   payment.CreatedBy,
		Lines:       muniLines,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("municipality entry: %w", err)
	}
	return filerEntry, muniEntry, nil
}

// claimKey returns a replayed result when the key was already used, or reserves it.
func (s *paymentService) claimKey(ctx context.Context, tenantID, key string) (*dto.PaymentResult, error) {
	if replay, err := s.findReplay(ctx, tenantID, key); replay != nil || err != nil {
		return replay, err
	}
	if s.idempotency == nil {
		return nil, nil
	}

	reserved, err := s.idempotency.Reserve(ctx, reservationKey(tenantID, key), s.idempotencyTTL)
	if err != nil {
		s.LogError(ctx, err, "Failed to reserve idempotency key", slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("%w: idempotency store: %v", apperrors.ErrUnavailable, err)
	}
	if reserved {
		return nil, nil
	}

	// someone else holds the key; they may have finished in the meantime
	if replay, err := s.findReplay(ctx, tenantID, key); replay != nil || err != nil {
		return replay, err
	}
	return nil, apperrors.ErrPaymentInFlight
}

func (s *paymentService) findReplay(ctx context.Context, tenantID, key string) (*dto.PaymentResult, error) {
	existing, err := s.paymentRepo.FindPaymentByIdempotencyKey(ctx, tenantID, key)
	if errors.Is(err, apperrors.ErrPaymentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.LogDebug(ctx, "Replaying payment for idempotency key", slog.String("payment_id", existing.ID))
	return &dto.PaymentResult{Transaction: *existing, Replayed: true}, nil
}

func (s *paymentService) releaseKey(ctx context.Context, tenantID, key string) {
	if s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(context.WithoutCancel(ctx), reservationKey(tenantID, key)); err != nil {
		s.LogError(ctx, err, "Failed to release idempotency key", slog.String("tenant_id", tenantID))
	}
}

func reservationKey(tenantID, key string) string {
	return tenantID + ":" + key
}
