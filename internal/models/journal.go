package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of journal_entries.
type JournalEntry struct {
	EntryID       string          `db:"entry_id"`
	TenantID      string          `db:"tenant_id"`
	EntityID      string          `db:"entity_id"`
	EntityType    string          `db:"entity_type"`
	EntryNumber   string          `db:"entry_number"`
	EntrySequence int64           `db:"entry_sequence"`
	EntryDate     time.Time       `db:"entry_date"`
	Description   string          `db:"description"`
	SourceType    string          `db:"source_type"`
	SourceID      string          `db:"source_id"`
	Status        string          `db:"status"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	ReversalOf    sql.NullString  `db:"reversal_of"`
	ReversedBy    sql.NullString  `db:"reversed_by"`
	CreatedBy     string          `db:"created_by"`
	CreatedAt     time.Time       `db:"created_at"`
}

// JournalLine is a row of journal_lines.
type JournalLine struct {
	EntryID       string          `db:"entry_id"`
	LineNumber    int             `db:"line_number"`
	AccountNumber string          `db:"account_number"`
	Debit         decimal.Decimal `db:"debit"`
	Credit        decimal.Decimal `db:"credit"`
	Description   string          `db:"description"`
}
