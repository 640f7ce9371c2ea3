package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
)

type accountRepository struct {
	store *Store
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) FindAccount(ctx context.Context, tenantID, accountNumber string) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.read(ctx, func(st *state) error {
		acc, ok := st.accounts[accountKey{tenantID, accountNumber}]
		if !ok {
			return apperrors.NewNotFoundError(apperrors.ErrAccountNotFound, accountNumber)
		}
		out = &acc
		return nil
	})
	return out, err
}

func (r *accountRepository) FindAccounts(ctx context.Context, tenantID string, accountNumbers []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountNumbers))
	err := r.store.read(ctx, func(st *state) error {
		for _, n := range accountNumbers {
			if acc, ok := st.accounts[accountKey{tenantID, n}]; ok {
				out[n] = acc
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepository) ListAccounts(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Account, error) {
	out := []domain.Account{}
	err := r.store.read(ctx, func(st *state) error {
		for k, acc := range st.accounts {
			if k.tenantID != tenantID || (activeOnly && !acc.IsActive) {
				continue
			}
			out = append(out, acc)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, err
}

func (r *accountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return r.store.write(ctx, func(st *state) error {
		k := accountKey{account.TenantID, account.AccountNumber}
		if _, exists := st.accounts[k]; exists {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateAccount, account.AccountNumber)
		}
		st.accounts[k] = account
		return nil
	})
}

func (r *accountRepository) DeactivateAccount(ctx context.Context, tenantID, accountNumber, userID string, now time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		k := accountKey{tenantID, accountNumber}
		acc, ok := st.accounts[k]
		if !ok {
			return apperrors.NewNotFoundError(apperrors.ErrAccountNotFound, accountNumber)
		}
		acc.IsActive = false
		acc.LastUpdatedAt = now
		acc.LastUpdatedBy = userID
		st.accounts[k] = acc
		return nil
	})
}
