package domain

import "time"

// Audit actions appended by mutating operations.
const (
	ActionAccountRegistered  = "ACCOUNT_REGISTERED"
	ActionAccountDeactivated = "ACCOUNT_DEACTIVATED"
	ActionEntryPosted        = "JOURNAL_ENTRY_POSTED"
	ActionEntryReversed      = "JOURNAL_ENTRY_REVERSED"
	ActionPaymentRecorded    = "PAYMENT_RECORDED"
	ActionRefundRequested    = "REFUND_REQUESTED"
	ActionRefundApproved     = "REFUND_APPROVED"
	ActionRefundRejected     = "REFUND_REJECTED"
	ActionRefundIssued       = "REFUND_ISSUED"
	ActionRefundCompleted    = "REFUND_COMPLETED"
)

// AuditRecord is an append-only log line describing a state change.
type AuditRecord struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenantID"`
	EntityID      string    `json:"entityID"`
	Action        string    `json:"action"`
	Actor         string    `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
	BeforeSummary string    `json:"beforeSummary,omitempty"`
	AfterSummary  string    `json:"afterSummary,omitempty"`
}

// LedgerEvent is published after a mutating operation commits.
type LedgerEvent struct {
	EventType  string            `json:"event_type"`
	TenantID   string            `json:"tenant_id"`
	EntityID   string            `json:"entity_id"`
	Reference  string            `json:"reference,omitempty"`
	Amount     string            `json:"amount,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

const (
	EventJournalPosted       = "journal.posted"
	EventJournalReversed     = "journal.reversed"
	EventPaymentProcessed    = "payment.processed"
	EventRefundStatusChanged = "refund.status_changed"
)
