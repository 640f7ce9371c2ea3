package mapping

import (
	"database/sql"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/models"
)

// ToModelPayment converts a domain PaymentTransaction to a row
func ToModelPayment(d domain.PaymentTransaction) models.PaymentTransaction {
	m := models.PaymentTransaction{
		PaymentID:                  d.ID,
		TenantID:                   d.TenantID,
		FilerID:                    d.FilerID,
		MunicipalityID:             d.MunicipalityID,
		SourceID:                   d.SourceID,
		Amount:                     d.Amount,
		Method:                     string(d.Method),
		Status:                     string(d.Status),
		ProviderTransactionID:      d.ProviderTransactionID,
		AuthorizationCode:          d.AuthorizationCode,
		FailureReason:              d.FailureReason,
		AllocatedTax:               d.Allocation.Tax,
		AllocatedPenalty:           d.Allocation.Penalty,
		AllocatedInterest:          d.Allocation.Interest,
		Overpayment:                d.Allocation.Overpayment,
		JournalEntryID:             nullString(d.JournalEntryID),
		MunicipalityJournalEntryID: nullString(d.MunicipalityJournalEntryID),
		CreatedBy:                  d.CreatedBy,
		CreatedAt:                  d.CreatedAt,
	}
	if d.IdempotencyKey != "" {
		m.IdempotencyKey = sql.NullString{String: d.IdempotencyKey, Valid: true}
	}
	return m
}

// ToDomainPayment converts a payment row to a domain PaymentTransaction
func ToDomainPayment(m models.PaymentTransaction) domain.PaymentTransaction {
	return domain.PaymentTransaction{
		ID:                    m.PaymentID,
		TenantID:              m.TenantID,
		FilerID:               m.FilerID,
		MunicipalityID:        m.MunicipalityID,
		SourceID:              m.SourceID,
		Amount:                m.Amount,
		Method:                domain.PaymentMethod(m.Method),
		Status:                domain.PaymentStatus(m.Status),
		ProviderTransactionID: m.ProviderTransactionID,
		AuthorizationCode:     m.AuthorizationCode,
		FailureReason:         m.FailureReason,
		Allocation: domain.PaymentAllocation{
			Tax:         m.AllocatedTax,
			Penalty:     m.AllocatedPenalty,
			Interest:    m.AllocatedInterest,
			Overpayment: m.Overpayment,
		},
		IdempotencyKey:             m.IdempotencyKey.String,
		JournalEntryID:             stringPtr(m.JournalEntryID),
		MunicipalityJournalEntryID: stringPtr(m.MunicipalityJournalEntryID),
		CreatedBy:                  m.CreatedBy,
		CreatedAt:                  m.CreatedAt,
	}
}

// ToModelRefund converts a domain RefundRequest to a row
func ToModelRefund(d domain.RefundRequest) models.RefundRequest {
	return models.RefundRequest{
		RefundID:           d.ID,
		TenantID:           d.TenantID,
		FilerID:            d.FilerID,
		MunicipalityID:     d.MunicipalityID,
		Amount:             d.Amount,
		Reason:             d.Reason,
		Status:             string(d.Status),
		RequestedBy:        d.RequestedBy,
		ApprovedBy:         nullString(d.ApprovedBy),
		RejectedBy:         nullString(d.RejectedBy),
		RejectionReason:    d.RejectionReason,
		IssuedBy:           nullString(d.IssuedBy),
		CompletedBy:        nullString(d.CompletedBy),
		RequestEntryIDs:    nonNil(d.RequestEntryIDs),
		IssueEntryIDs:      nonNil(d.IssueEntryIDs),
		ConfirmationNumber: d.ConfirmationNumber,
		RequestedAt:        d.RequestedAt,
		ApprovedAt:         nullTime(d.ApprovedAt),
		RejectedAt:         nullTime(d.RejectedAt),
		IssuedAt:           nullTime(d.IssuedAt),
		CompletedAt:        nullTime(d.CompletedAt),
		LastUpdatedAt:      d.LastUpdatedAt,
	}
}

// ToDomainRefund converts a refund row to a domain RefundRequest
func ToDomainRefund(m models.RefundRequest) domain.RefundRequest {
	return domain.RefundRequest{
		ID:                 m.RefundID,
		TenantID:           m.TenantID,
		FilerID:            m.FilerID,
		MunicipalityID:     m.MunicipalityID,
		Amount:             m.Amount,
		Reason:             m.Reason,
		Status:             domain.RefundStatus(m.Status),
		RequestedBy:        m.RequestedBy,
		ApprovedBy:         stringPtr(m.ApprovedBy),
		RejectedBy:         stringPtr(m.RejectedBy),
		RejectionReason:    m.RejectionReason,
		IssuedBy:           stringPtr(m.IssuedBy),
		CompletedBy:        stringPtr(m.CompletedBy),
		RequestEntryIDs:    nonNil(m.RequestEntryIDs),
		IssueEntryIDs:      nonNil(m.IssueEntryIDs),
		ConfirmationNumber: m.ConfirmationNumber,
		RequestedAt:        m.RequestedAt,
		ApprovedAt:         timePtr(m.ApprovedAt),
		RejectedAt:         timePtr(m.RejectedAt),
		IssuedAt:           timePtr(m.IssuedAt),
		CompletedAt:        timePtr(m.CompletedAt),
		LastUpdatedAt:      m.LastUpdatedAt,
	}
}

// text[] columns are NOT NULL
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
