package mapping

import (
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to its header row
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:       d.ID,
		TenantID:      d.TenantID,
		EntityID:      d.EntityID,
		EntityType:    string(d.EntityType),
		EntryNumber:   d.EntryNumber,
		EntrySequence: d.Sequence,
		EntryDate:     d.EntryDate,
		Description:   d.Description,
		SourceType:    d.SourceType,
		SourceID:      d.SourceID,
		Status:        string(d.Status),
		TotalAmount:   d.TotalAmount,
		ReversalOf:    nullString(d.ReversalOf),
		ReversedBy:    nullString(d.ReversedBy),
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
	}
}

// ToDomainJournalEntry converts a header row and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	return domain.JournalEntry{
		ID:          m.EntryID,
		TenantID:    m.TenantID,
		EntityID:    m.EntityID,
		EntityType:  domain.EntityType(m.EntityType),
		EntryNumber: m.EntryNumber,
		Sequence:    m.EntrySequence,
		EntryDate:   m.EntryDate.UTC(),
		Description: m.Description,
		SourceType:  m.SourceType,
		SourceID:    m.SourceID,
		Status:      domain.JournalStatus(m.Status),
		TotalAmount: m.TotalAmount,
		ReversalOf:  stringPtr(m.ReversalOf),
		ReversedBy:  stringPtr(m.ReversedBy),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		Lines:       ToDomainJournalLineSlice(lines),
	}
}

// ToModelJournalLine converts a domain JournalLine of entryID to a row
func ToModelJournalLine(entryID string, d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		EntryID:       entryID,
		LineNumber:    d.LineNumber,
		AccountNumber: d.AccountNumber,
		Debit:         d.Debit,
		Credit:        d.Credit,
		Description:   d.Description,
	}
}

// ToDomainJournalLineSlice converts a slice of line rows to domain lines
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = domain.JournalLine{
			LineNumber:    m.LineNumber,
			AccountNumber: m.AccountNumber,
			Debit:         m.Debit,
			Credit:        m.Credit,
			Description:   m.Description,
		}
	}
	return ds
}
