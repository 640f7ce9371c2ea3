package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
)

type paymentRepository struct {
	store *Store
}

var _ portsrepo.PaymentRepository = (*paymentRepository)(nil)

func (r *paymentRepository) SavePayment(ctx context.Context, payment domain.PaymentTransaction) error {
	return r.store.write(ctx, func(st *state) error {
		if payment.IdempotencyKey != "" {
			for _, p := range st.payments {
				if p.TenantID == payment.TenantID && p.IdempotencyKey == payment.IdempotencyKey {
					return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, payment.IdempotencyKey)
				}
			}
		}
		st.payments[payment.ID] = payment
		return nil
	})
}

func (r *paymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error) {
	var out *domain.PaymentTransaction
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.payments[paymentID]
		if !ok {
			return apperrors.NewNotFoundError(apperrors.ErrPaymentNotFound, paymentID)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepository) FindPaymentByIdempotencyKey(ctx context.Context, tenantID, key string) (*domain.PaymentTransaction, error) {
	var out *domain.PaymentTransaction
	err := r.store.read(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.TenantID == tenantID && p.IdempotencyKey == key {
				out = &p
				return nil
			}
		}
		return apperrors.NewNotFoundError(apperrors.ErrPaymentNotFound, key)
	})
	return out, err
}

type refundRepository struct {
	store *Store
}

var _ portsrepo.RefundRepository = (*refundRepository)(nil)

func (r *refundRepository) SaveRefund(ctx context.Context, refund domain.RefundRequest) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.refunds[refund.ID]; exists {
			return fmt.Errorf("%w: refund request %s", apperrors.ErrDuplicate, refund.ID)
		}
		st.refunds[refund.ID] = refund
		return nil
	})
}

func (r *refundRepository) UpdateRefund(ctx context.Context, refund domain.RefundRequest) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.refunds[refund.ID]; !exists {
			return apperrors.NewNotFoundError(apperrors.ErrRefundNotFound, refund.ID)
		}
		st.refunds[refund.ID] = refund
		return nil
	})
}

func (r *refundRepository) FindRefundByID(ctx context.Context, refundID string) (*domain.RefundRequest, error) {
	var out *domain.RefundRequest
	err := r.store.read(ctx, func(st *state) error {
		rf, ok := st.refunds[refundID]
		if !ok {
			return apperrors.NewNotFoundError(apperrors.ErrRefundNotFound, refundID)
		}
		rf.RequestEntryIDs = slices.Clone(rf.RequestEntryIDs)
		rf.IssueEntryIDs = slices.Clone(rf.IssueEntryIDs)
		out = &rf
		return nil
	})
	return out, err
}

func (r *refundRepository) FindRefundForUpdate(ctx context.Context, refundID string) (*domain.RefundRequest, error) {
	return r.FindRefundByID(ctx, refundID)
}

type auditRepository struct {
	store *Store
}

var _ portsrepo.AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	return r.store.write(ctx, func(st *state) error {
		st.audit = append(st.audit, record)
		return nil
	})
}

func (r *auditRepository) ListByEntity(ctx context.Context, tenantID, entityID string) ([]domain.AuditRecord, error) {
	out := []domain.AuditRecord{}
	err := r.store.read(ctx, func(st *state) error {
		for _, rec := range st.audit {
			if rec.TenantID == tenantID && rec.EntityID == entityID {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}
