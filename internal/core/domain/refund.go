package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus is the lifecycle state of a refund request.
type RefundStatus string

const (
	RefundRequested RefundStatus = "REQUESTED"
	RefundApproved  RefundStatus = "APPROVED"
	RefundRejected  RefundStatus = "REJECTED"
	RefundIssued    RefundStatus = "ISSUED"
	RefundCompleted RefundStatus = "COMPLETED"
)

var refundTransitions = map[RefundStatus][]RefundStatus{
	RefundRequested: {RefundApproved, RefundRejected},
	RefundApproved:  {RefundIssued},
	RefundIssued:    {RefundCompleted},
}

func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundRequested, RefundApproved, RefundRejected, RefundIssued, RefundCompleted:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition is possible.
func (s RefundStatus) IsTerminal() bool {
	return s == RefundRejected || s == RefundCompleted
}

// CanTransitionTo reports whether next directly follows s. No state may be skipped.
func (s RefundStatus) CanTransitionTo(next RefundStatus) bool {
	for _, allowed := range refundTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RefundRequest tracks a filer's request to get an overpayment credit back.
type RefundRequest struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenantID"`
	FilerID            string          `json:"filerID"`
	MunicipalityID     string          `json:"municipalityID"`
	Amount             decimal.Decimal `json:"amount"`
	Reason             string          `json:"reason"`
	Status             RefundStatus    `json:"status"`
	RequestedBy        string          `json:"requestedBy"`
	ApprovedBy         *string         `json:"approvedBy,omitempty"`
	RejectedBy         *string         `json:"rejectedBy,omitempty"`
	RejectionReason    string          `json:"rejectionReason,omitempty"`
	IssuedBy           *string         `json:"issuedBy,omitempty"`
	CompletedBy        *string         `json:"completedBy,omitempty"`
	RequestEntryIDs    []string        `json:"requestEntryIDs"`
	IssueEntryIDs      []string        `json:"issueEntryIDs"`
	ConfirmationNumber string          `json:"confirmationNumber,omitempty"`
	RequestedAt        time.Time       `json:"requestedAt"`
	ApprovedAt         *time.Time      `json:"approvedAt,omitempty"`
	RejectedAt         *time.Time      `json:"rejectedAt,omitempty"`
	IssuedAt           *time.Time      `json:"issuedAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	LastUpdatedAt      time.Time       `json:"lastUpdatedAt"`
}
