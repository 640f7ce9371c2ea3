package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/municipal_tax_ledger/internal/utils/pagination"
)

type journalRepository struct {
	store *Store
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

func cursorOf(e domain.JournalEntry) pagination.Cursor {
	return pagination.Cursor{EntryDate: e.EntryDate, Sequence: e.Sequence}
}

// entityEntries returns one book's entries, newest first.
func entityEntries(st *state, tenantID, entityID string) []domain.JournalEntry {
	out := []domain.JournalEntry{}
	for _, e := range st.entries {
		if e.TenantID == tenantID && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return cursorOf(out[j]).Before(cursorOf(out[i])) })
	return out
}

func (r *journalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	var out *domain.JournalEntry
	err := r.store.read(ctx, func(st *state) error {
		e, ok := st.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError(apperrors.ErrEntryNotFound, entryID)
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *journalRepository) FindEntriesByEntity(ctx context.Context, tenantID, entityID string) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	err := r.store.read(ctx, func(st *state) error {
		out = entityEntries(st, tenantID, entityID)
		return nil
	})
	return out, err
}

func (r *journalRepository) ListEntriesByEntity(ctx context.Context, tenantID, entityID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	var after *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		after = &c
	}

	var all []domain.JournalEntry
	_ = r.store.read(ctx, func(st *state) error {
		all = entityEntries(st, tenantID, entityID)
		return nil
	})

	page := make([]domain.JournalEntry, 0, limit)
	for _, e := range all {
		if after != nil && !cursorOf(e).Before(*after) {
			continue
		}
		if len(page) == limit {
			token := pagination.EncodeToken(cursorOf(page[len(page)-1]))
			return page, &token, nil
		}
		page = append(page, e)
	}
	return page, nil, nil
}

func (r *journalRepository) NextEntrySequence(ctx context.Context, tenantID string) (int64, error) {
	var seq int64
	err := r.store.write(ctx, func(st *state) error {
		st.sequences[tenantID]++
		seq = st.sequences[tenantID]
		return nil
	})
	return seq, err
}

func (r *journalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.entries[entry.ID]; exists {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.ID)
		}
		entry.Lines = slices.Clone(entry.Lines)
		st.entries[entry.ID] = entry
		return nil
	})
}

func (r *journalRepository) FindEntryForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	// the transaction already holds the store's write lock
	return r.FindEntryByID(ctx, entryID)
}

func (r *journalRepository) MarkReversed(ctx context.Context, entryID, reversedByID string) error {
	return r.store.write(ctx, func(st *state) error {
		e, ok := st.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError(apperrors.ErrEntryNotFound, entryID)
		}
		if e.Status != domain.Posted {
			return fmt.Errorf("%w: %s", apperrors.ErrEntryAlreadyReversed, e.EntryNumber)
		}
		e.Status = domain.Reversed
		e.ReversedBy = &reversedByID
		st.entries[entryID] = e
		return nil
	})
}

func matches(e domain.JournalEntry, tenantID string, f domain.BalanceFilter) bool {
	if e.TenantID != tenantID {
		return false
	}
	if f.AsOf != nil && e.EntryDate.After(*f.AsOf) {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	return f.EntityID == "" || e.EntityID == f.EntityID
}

func (r *journalRepository) SumLinesByAccount(ctx context.Context, tenantID string, filter domain.BalanceFilter) ([]domain.AccountTotals, error) {
	sums := make(map[string]*domain.AccountTotals)
	_ = r.store.read(ctx, func(st *state) error {
		for _, e := range st.entries {
			if !matches(e, tenantID, filter) {
				continue
			}
			for _, l := range e.Lines {
				if len(filter.AccountNumbers) > 0 && !slices.Contains(filter.AccountNumbers, l.AccountNumber) {
					continue
				}
				t, ok := sums[l.AccountNumber]
				if !ok {
					t = &domain.AccountTotals{AccountNumber: l.AccountNumber, Debit: decimal.Zero, Credit: decimal.Zero}
					sums[l.AccountNumber] = t
				}
				t.Debit = t.Debit.Add(l.Debit)
				t.Credit = t.Credit.Add(l.Credit)
			}
		}
		return nil
	})

	out := make([]domain.AccountTotals, 0, len(sums))
	for _, t := range sums {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (r *journalRepository) SumLiveEntriesBySource(ctx context.Context, tenantID string, entityType domain.EntityType, entityID string) ([]domain.SourceTotal, error) {
	filter := domain.BalanceFilter{EntityType: entityType, EntityID: entityID}
	sums := make(map[string]decimal.Decimal)
	_ = r.store.read(ctx, func(st *state) error {
		for _, e := range st.entries {
			if !e.IsLive() || !matches(e, tenantID, filter) {
				continue
			}
			sums[e.SourceID] = sums[e.SourceID].Add(e.TotalAmount)
		}
		return nil
	})

	out := make([]domain.SourceTotal, 0, len(sums))
	for id, amt := range sums {
		out = append(out, domain.SourceTotal{SourceID: id, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}
