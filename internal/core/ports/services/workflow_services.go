package services

import (
	"context"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// AssessmentSvc posts the mirrored entry pair for an assessed return
type AssessmentSvc interface {
	RecordTaxAssessment(ctx context.Context, req dto.RecordAssessmentRequest) (*dto.AssessmentResult, error)
}

// PaymentSvc authorizes payments and posts them to both books
type PaymentSvc interface {
	ProcessPayment(ctx context.Context, req dto.PaymentRequest) (*dto.PaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error)
}

// RefundSvc drives the refund state machine
type RefundSvc interface {
	RequestRefund(ctx context.Context, req dto.RequestRefundRequest) (*dto.RefundResult, error)
	ApproveRefund(ctx context.Context, refundID, actorID string) (*dto.RefundResult, error)
	RejectRefund(ctx context.Context, refundID, actorID, reason string) (*dto.RefundResult, error)
	// IssueRefund moves money. A zero amount means the approved amount.
	IssueRefund(ctx context.Context, refundID string, amount decimal.Decimal, issuedBy string) (*dto.RefundResult, error)
	CompleteRefund(ctx context.Context, refundID, actorID string) (*dto.RefundResult, error)
	GetRefund(ctx context.Context, refundID string) (*domain.RefundRequest, error)
}
