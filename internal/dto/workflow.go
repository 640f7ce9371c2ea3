package dto

import (
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordAssessmentRequest carries the amounts assessed on one return. Amounts
// are computed upstream; the ledger only records them.
type RecordAssessmentRequest struct {
	TenantID       string          `json:"tenantID" validate:"required"`
	MunicipalityID string          `json:"municipalityID"` // defaults to TenantID
	FilerID        string          `json:"filerID" validate:"required"`
	ReturnID       string          `json:"returnID" validate:"required"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	PenaltyAmount  decimal.Decimal `json:"penaltyAmount"`
	InterestAmount decimal.Decimal `json:"interestAmount"`
	Period         string          `json:"period"`
	EntryDate      time.Time       `json:"entryDate"`
	CreatedBy      string          `json:"createdBy" validate:"required"`
}

// AssessmentResult holds the mirrored pair posted for an assessment.
type AssessmentResult struct {
	FilerEntry        domain.JournalEntry `json:"filerEntry"`
	MunicipalityEntry domain.JournalEntry `json:"municipalityEntry"`
}

// AllocationRequest overrides the default tax -> penalty -> interest allocation.
type AllocationRequest struct {
	Tax      decimal.Decimal `json:"tax"`
	Penalty  decimal.Decimal `json:"penalty"`
	Interest decimal.Decimal `json:"interest"`
}

// PaymentRequest defines the data needed to process a filer payment.
type PaymentRequest struct {
	TenantID       string               `json:"tenantID" validate:"required"`
	FilerID        string               `json:"filerID" validate:"required"`
	MunicipalityID string               `json:"municipalityID"` // defaults to TenantID
	SourceID       string               `json:"sourceID"`       // defaults to the payment id
	Amount         decimal.Decimal      `json:"amount"`
	Method         domain.PaymentMethod `json:"method" validate:"required,oneof=CARD ACH"`
	MethodDetails  map[string]string    `json:"methodDetails"`
	Allocation     *AllocationRequest   `json:"allocation,omitempty"`
	IdempotencyKey string               `json:"idempotencyKey" validate:"omitempty,max=128"`
	ProcessedBy    string               `json:"processedBy" validate:"required"`
}

// PaymentResult is returned by ProcessPayment. Replayed is set when the
// idempotency key matched an earlier payment.
type PaymentResult struct {
	Transaction       domain.PaymentTransaction `json:"transaction"`
	FilerEntry        *domain.JournalEntry      `json:"filerEntry,omitempty"`
	MunicipalityEntry *domain.JournalEntry      `json:"municipalityEntry,omitempty"`
	Replayed          bool                      `json:"replayed"`
}

// RequestRefundRequest defines the data needed to open a refund request.
type RequestRefundRequest struct {
	TenantID       string          `json:"tenantID" validate:"required"`
	FilerID        string          `json:"filerID" validate:"required"`
	MunicipalityID string          `json:"municipalityID"` // defaults to TenantID
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason" validate:"required"`
	RequestedBy    string          `json:"requestedBy" validate:"required"`
}

// RefundResult returns the request together with the entries the step posted.
type RefundResult struct {
	Refund  domain.RefundRequest  `json:"refund"`
	Entries []domain.JournalEntry `json:"entries,omitempty"`
}
