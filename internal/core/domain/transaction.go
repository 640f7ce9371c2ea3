package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the gateway outcome recorded on a payment transaction.
type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentDeclined PaymentStatus = "DECLINED"
	PaymentError    PaymentStatus = "ERROR"
)

// PaymentMethod is how the filer paid.
type PaymentMethod string

const (
	MethodCard PaymentMethod = "CARD"
	MethodACH  PaymentMethod = "ACH"
)

// PaymentAllocation splits a payment across the liability buckets it settles.
// Overpayment is whatever exceeds the buckets.
type PaymentAllocation struct {
	Tax         decimal.Decimal `json:"tax"`
	Penalty     decimal.Decimal `json:"penalty"`
	Interest    decimal.Decimal `json:"interest"`
	Overpayment decimal.Decimal `json:"overpayment"`
}

// Applied is the part of the payment that reduces outstanding liabilities.
func (a PaymentAllocation) Applied() decimal.Decimal {
	return a.Tax.Add(a.Penalty).Add(a.Interest)
}

// Total includes the overpayment.
func (a PaymentAllocation) Total() decimal.Decimal {
	return a.Applied().Add(a.Overpayment)
}

// PaymentTransaction records one call to the payment gateway and, when approved,
// the journal entries it produced on both books.
type PaymentTransaction struct {
	ID                         string            `json:"id"`
	TenantID                   string            `json:"tenantID"`
	FilerID                    string            `json:"filerID"`
	MunicipalityID             string            `json:"municipalityID"`
	SourceID                   string            `json:"sourceID"`
	Amount                     decimal.Decimal   `json:"amount"`
	Method                     PaymentMethod     `json:"method"`
	Status                     PaymentStatus     `json:"status"`
	ProviderTransactionID      string            `json:"providerTransactionID"`
	AuthorizationCode          string            `json:"authorizationCode"`
	FailureReason              string            `json:"failureReason,omitempty"`
	Allocation                 PaymentAllocation `json:"allocation"`
	IdempotencyKey             string            `json:"idempotencyKey,omitempty"`
	JournalEntryID             *string           `json:"journalEntryID"`
	MunicipalityJournalEntryID *string           `json:"municipalityJournalEntryID"`
	CreatedBy                  string            `json:"createdBy"`
	CreatedAt                  time.Time         `json:"createdAt"`
}

// AuthorizationRequest is what the ledger hands the payment gateway.
type AuthorizationRequest struct {
	Amount        decimal.Decimal
	Method        PaymentMethod
	MethodDetails map[string]string
}

// AuthorizationResult is the gateway's answer.
type AuthorizationResult struct {
	Status                PaymentStatus
	ProviderTransactionID string
	AuthorizationCode     string
	FailureReason         string
}
