package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

func testEntry(id string, seq int64, day int) domain.JournalEntry {
	amount := decimal.NewFromInt(10)
	return domain.JournalEntry{
		ID:          id,
		TenantID:    "springfield",
		EntityID:    "filer-1",
		EntityType:  domain.EntityFiler,
		EntryNumber: fmt.Sprintf("JE-SPRINGFIELD-2024-%06d", seq),
		Sequence:    seq,
		EntryDate:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Status:      domain.Posted,
		TotalAmount: amount,
		Lines: []domain.JournalLine{
			{LineNumber: 1, AccountNumber: "1200", Debit: amount, Credit: decimal.Zero},
			{LineNumber: 2, AccountNumber: "2001", Debit: decimal.Zero, Credit: amount},
		},
	}
}

func TestWithinTx_RollbackRestoresStateAndDropsHooks(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := &journalRepository{store: s}
	boom := errors.New("boom")
	hookRan := false

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		seq, err := repo.NextEntrySequence(ctx, "springfield")
		require.NoError(t, err)
		require.NoError(t, repo.SaveEntry(ctx, testEntry("e1", seq, 1)))
		s.AfterCommit(ctx, func() { hookRan = true })
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, hookRan)

	_, err = repo.FindEntryByID(ctx, "e1")
	assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)

	seq, err := repo.NextEntrySequence(ctx, "springfield")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq, "a rolled back sequence value is reused")
}

func TestWithinTx_NestedJoinsOuterAndHooksRunAfterCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	var order []string

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		err := s.WithinTx(ctx, func(ctx context.Context) error {
			s.AfterCommit(ctx, func() { order = append(order, "inner hook") })
			return nil
		})
		order = append(order, "outer body")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer body", "inner hook"}, order)
}

func TestAfterCommit_OutsideTxRunsImmediately(t *testing.T) {
	s := NewStore()
	ran := false
	s.AfterCommit(context.Background(), func() { ran = true })
	assert.True(t, ran)
}

func TestListEntriesByEntity_PagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := &journalRepository{store: s}
	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.SaveEntry(ctx, testEntry(fmt.Sprintf("e%d", i), int64(i), 1+i%2)))
	}
	// entry dates: e2 and e4 on the 1st, the rest on the 2nd

	var seen []string
	var token *string
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, next, err := repo.ListEntriesByEntity(ctx, "springfield", "filer-1", 2, token)
		require.NoError(t, err)
		for _, e := range page {
			seen = append(seen, e.ID)
		}
		if next == nil {
			break
		}
		token = next
	}
	assert.Equal(t, []string{"e5", "e3", "e1", "e4", "e2"}, seen)

	bad := "not-a-token"
	_, _, err := repo.ListEntriesByEntity(ctx, "springfield", "filer-1", 2, &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMarkReversed_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := &journalRepository{store: NewStore()}
	require.NoError(t, repo.SaveEntry(ctx, testEntry("e1", 1, 1)))

	require.NoError(t, repo.MarkReversed(ctx, "e1", "e2"))
	err := repo.MarkReversed(ctx, "e1", "e3")
	assert.ErrorIs(t, err, apperrors.ErrEntryAlreadyReversed)

	e, err := repo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, e.Status)
	require.NotNil(t, e.ReversedBy)
	assert.Equal(t, "e2", *e.ReversedBy)

	assert.ErrorIs(t, repo.MarkReversed(ctx, "missing", "e4"), apperrors.ErrEntryNotFound)
}

func TestSaveAccount_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := &accountRepository{store: NewStore()}
	acc := domain.Account{TenantID: "springfield", AccountNumber: "1001", Name: "Cash", IsActive: true}
	require.NoError(t, repo.SaveAccount(ctx, acc))
	assert.ErrorIs(t, repo.SaveAccount(ctx, acc), apperrors.ErrDuplicateAccount)
}

func TestLockKey_RequiresTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	assert.ErrorIs(t, s.LockKey(ctx, "filer:springfield:filer-1"), apperrors.ErrInternal)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.LockKey(ctx, "filer:springfield:filer-1")
	})
	assert.NoError(t, err)
}
