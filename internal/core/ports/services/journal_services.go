package services

import (
	"context"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// GetEntriesForEntity retrieves every entry of one book, entry date descending.
	GetEntriesForEntity(ctx context.Context, tenantID, entityID string) ([]domain.JournalEntry, error)

	// ListEntriesForEntity retrieves a page of entries of one book.
	ListEntriesForEntity(ctx context.Context, tenantID, entityID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalWriterSvc defines write operations for journal entries
type JournalWriterSvc interface {
	// PostJournalEntry validates and posts a balanced entry. When ctx already carries
	// a transaction the entry joins it.
	PostJournalEntry(ctx context.Context, req dto.PostEntryRequest) (*domain.JournalEntry, error)

	// ReverseEntry posts the mirror image of an entry and marks the original REVERSED.
	ReverseEntry(ctx context.Context, entryID, userID, reason string) (*domain.JournalEntry, error)
}

// BalanceSvc computes balances from posted lines
type BalanceSvc interface {
	// ComputeBalance returns the account's totals for entries dated on or before asOf.
	ComputeBalance(ctx context.Context, tenantID, accountNumber string, asOf time.Time) (*domain.AccountBalance, error)

	// ComputeBalances aggregates many accounts in one grouped pass, keyed by account number.
	ComputeBalances(ctx context.Context, tenantID string, filter domain.BalanceFilter) (map[string]domain.AccountTotals, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
