package dto

import (
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one requested line. Exactly one of Debit or Credit must be positive.
type JournalLineRequest struct {
	AccountNumber string          `json:"accountNumber"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Description   string          `json:"description"`
}

// PostEntryRequest defines the data needed to post a journal entry.
type PostEntryRequest struct {
	TenantID    string               `json:"tenantID" validate:"required"`
	EntityID    string               `json:"entityID" validate:"required"`
	EntityType  domain.EntityType    `json:"entityType" validate:"required,oneof=FILER MUNICIPALITY"`
	EntryDate   time.Time            `json:"entryDate"` // zero means today
	Description string               `json:"description" validate:"required"`
	SourceType  string               `json:"sourceType" validate:"required"`
	SourceID    string               `json:"sourceID"`
	CreatedBy   string               `json:"createdBy" validate:"required"`
	Lines       []JournalLineRequest `json:"lines"`

	reversalOf *string
}

// WithReversalOf marks the request as the reversal of entryID.
func (r PostEntryRequest) WithReversalOf(entryID string) PostEntryRequest {
	r.reversalOf = &entryID
	return r
}

// ReversalOf returns the id of the entry being reversed, if any.
func (r PostEntryRequest) ReversalOf() *string {
	return r.reversalOf
}

// LinesFromDomain converts domain lines into request lines.
func LinesFromDomain(lines []domain.JournalLine) []JournalLineRequest {
	out := make([]JournalLineRequest, len(lines))
	for i, l := range lines {
		out[i] = JournalLineRequest{
			AccountNumber: l.AccountNumber,
			Debit:         l.Debit,
			Credit:        l.Credit,
			Description:   l.Description,
		}
	}
	return out
}

// ListEntriesParams defines the query parameters for listing the entries of a book.
type ListEntriesParams struct {
	Limit     int     `json:"limit" validate:"omitempty,min=1,max=100"`
	NextToken *string `json:"nextToken"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []domain.JournalEntry `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}
