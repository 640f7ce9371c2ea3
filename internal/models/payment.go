package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTransaction is a row of payment_transactions. The allocation is flattened
// into one column per bucket.
type PaymentTransaction struct {
	PaymentID                  string          `db:"payment_id"`
	TenantID                   string          `db:"tenant_id"`
	FilerID                    string          `db:"filer_id"`
	MunicipalityID             string          `db:"municipality_id"`
	SourceID                   string          `db:"source_id"`
	Amount                     decimal.Decimal `db:"amount"`
	Method                     string          `db:"method"`
	Status                     string          `db:"status"`
	ProviderTransactionID      string          `db:"provider_transaction_id"`
	AuthorizationCode          string          `db:"authorization_code"`
	FailureReason              string          `db:"failure_reason"`
	AllocatedTax               decimal.Decimal `db:"allocated_tax"`
	AllocatedPenalty           decimal.Decimal `db:"allocated_penalty"`
	AllocatedInterest          decimal.Decimal `db:"allocated_interest"`
	Overpayment                decimal.Decimal `db:"overpayment"`
	IdempotencyKey             sql.NullString  `db:"idempotency_key"`
	JournalEntryID             sql.NullString  `db:"journal_entry_id"`
	MunicipalityJournalEntryID sql.NullString  `db:"municipality_journal_entry_id"`
	CreatedBy                  string          `db:"created_by"`
	CreatedAt                  time.Time       `db:"created_at"`
}
