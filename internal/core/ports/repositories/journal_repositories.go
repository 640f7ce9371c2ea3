package repositories

import (
	"context"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntriesByEntity retrieves all entries of one book, entry date descending.
	FindEntriesByEntity(ctx context.Context, tenantID, entityID string) ([]domain.JournalEntry, error)

	// ListEntriesByEntity retrieves a page of entries of one book using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntriesByEntity(ctx context.Context, tenantID, entityID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal entries. Every method must be
// called inside TransactionManager.WithinTx.
type JournalWriter interface {
	// NextEntrySequence atomically allocates the tenant's next entry sequence value.
	// Allocations for the same tenant are serialised; a rollback releases the value.
	NextEntrySequence(ctx context.Context, tenantID string) (int64, error)

	// SaveEntry persists an entry and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// FindEntryForUpdate loads an entry and locks it until the transaction ends.
	FindEntryForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// MarkReversed flips a POSTED entry to REVERSED. It returns
	// apperrors.ErrEntryAlreadyReversed if the entry is no longer POSTED.
	MarkReversed(ctx context.Context, entryID, reversedByID string) error
}

// BalanceReader defines the aggregate queries behind balances and reports
type BalanceReader interface {
	// SumLinesByAccount sums debits and credits per account in one grouped pass,
	// regardless of entry status. Accounts without activity are absent.
	SumLinesByAccount(ctx context.Context, tenantID string, filter domain.BalanceFilter) ([]domain.AccountTotals, error)

	// SumLiveEntriesBySource sums the total amount of live entries (posted, not
	// reversals) per source id for the matching books. An empty entityID matches
	// every book of the entity type.
	SumLiveEntriesBySource(ctx context.Context, tenantID string, entityType domain.EntityType, entityID string) ([]domain.SourceTotal, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	BalanceReader
}
