package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// EntityType identifies whose book an entry belongs to.
type EntityType string

const (
	EntityFiler        EntityType = "FILER"
	EntityMunicipality EntityType = "MUNICIPALITY"
)

func (e EntityType) IsValid() bool {
	return e == EntityFiler || e == EntityMunicipality
}

// Source types tag the business event that produced an entry.
const (
	SourceAssessment    = "ASSESSMENT"
	SourcePayment       = "PAYMENT"
	SourceRefundRequest = "REFUND_REQUEST"
	SourceRefundIssue   = "REFUND_ISSUE"
	SourceReversal      = "REVERSAL"
	SourceManual        = "MANUAL"
)

// JournalEntry is a balanced set of lines posted together. It is immutable once
// posted apart from the POSTED -> REVERSED transition, which only happens together
// with the creation of the reversing entry.
type JournalEntry struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenantID"`
	EntityID    string          `json:"entityID"`
	EntityType  EntityType      `json:"entityType"`
	EntryNumber string          `json:"entryNumber"`
	Sequence    int64           `json:"sequence"`
	EntryDate   time.Time       `json:"entryDate"`
	Description string          `json:"description"`
	SourceType  string          `json:"sourceType"`
	SourceID    string          `json:"sourceID"`
	Status      JournalStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ReversalOf  *string         `json:"reversalOf,omitempty"`
	ReversedBy  *string         `json:"reversedBy,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	Lines       []JournalLine   `json:"lines"`
}

// JournalLine is one debit or credit against a single account.
type JournalLine struct {
	LineNumber    int             `json:"lineNumber"`
	AccountNumber string          `json:"accountNumber"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Description   string          `json:"description"`
}

// DebitLine builds a line with only the debit side set.
func DebitLine(accountNumber string, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountNumber: accountNumber, Debit: amount, Credit: decimal.Zero, Description: description}
}

// CreditLine builds a line with only the credit side set.
func CreditLine(accountNumber string, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountNumber: accountNumber, Debit: decimal.Zero, Credit: amount, Description: description}
}

// Swapped returns the line with its debit and credit exchanged.
func (l JournalLine) Swapped() JournalLine {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}

// SumSides returns the total debits and total credits of the lines.
func SumSides(lines []JournalLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// IsReversal reports whether the entry reverses another entry.
func (e JournalEntry) IsReversal() bool {
	return e.ReversalOf != nil
}

// IsLive reports whether the entry still contributes to a source's mirrored
// amount: a reversed original and its reversal cancel each other out.
func (e JournalEntry) IsLive() bool {
	return e.Status == Posted && !e.IsReversal()
}
