package repositories

import (
	"context"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

// PaymentRepository persists gateway outcomes
type PaymentRepository interface {
	SavePayment(ctx context.Context, payment domain.PaymentTransaction) error
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error)
	// FindPaymentByIdempotencyKey returns apperrors.ErrPaymentNotFound when no payment carries the key.
	FindPaymentByIdempotencyKey(ctx context.Context, tenantID, key string) (*domain.PaymentTransaction, error)
}

// RefundRepository persists refund requests
type RefundRepository interface {
	SaveRefund(ctx context.Context, refund domain.RefundRequest) error
	UpdateRefund(ctx context.Context, refund domain.RefundRequest) error
	FindRefundByID(ctx context.Context, refundID string) (*domain.RefundRequest, error)
	// FindRefundForUpdate locks the request until the transaction ends.
	FindRefundForUpdate(ctx context.Context, refundID string) (*domain.RefundRequest, error)
}

// AuditRepository is the append-only audit log
type AuditRepository interface {
	Append(ctx context.Context, record domain.AuditRecord) error
	ListByEntity(ctx context.Context, tenantID, entityID string) ([]domain.AuditRecord, error)
}
