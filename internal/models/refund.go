package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// RefundRequest is a row of refund_requests. Entry id lists are stored as text arrays.
type RefundRequest struct {
	RefundID           string          `db:"refund_id"`
	TenantID           string          `db:"tenant_id"`
	FilerID            string          `db:"filer_id"`
	MunicipalityID     string          `db:"municipality_id"`
	Amount             decimal.Decimal `db:"amount"`
	Reason             string          `db:"reason"`
	Status             string          `db:"status"`
	RequestedBy        string          `db:"requested_by"`
	ApprovedBy         sql.NullString  `db:"approved_by"`
	RejectedBy         sql.NullString  `db:"rejected_by"`
	RejectionReason    string          `db:"rejection_reason"`
	IssuedBy           sql.NullString  `db:"issued_by"`
	CompletedBy        sql.NullString  `db:"completed_by"`
	RequestEntryIDs    []string        `db:"request_entry_ids"`
	IssueEntryIDs      []string        `db:"issue_entry_ids"`
	ConfirmationNumber string          `db:"confirmation_number"`
	RequestedAt        time.Time       `db:"requested_at"`
	ApprovedAt         sql.NullTime    `db:"approved_at"`
	RejectedAt         sql.NullTime    `db:"rejected_at"`
	IssuedAt           sql.NullTime    `db:"issued_at"`
	CompletedAt        sql.NullTime    `db:"completed_at"`
	LastUpdatedAt      time.Time       `db:"last_updated_at"`
}

// AuditRecord is a row of audit_log.
type AuditRecord struct {
	AuditID       string    `db:"audit_id"`
	TenantID      string    `db:"tenant_id"`
	EntityID      string    `db:"entity_id"`
	Action        string    `db:"action"`
	Actor         string    `db:"actor"`
	OccurredAt    time.Time `db:"occurred_at"`
	BeforeSummary string    `db:"before_summary"`
	AfterSummary  string    `db:"after_summary"`
}
