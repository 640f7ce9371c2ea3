package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

// AccountReader defines read operations for the chart of accounts
type AccountReader interface {
	// FindAccount returns apperrors.ErrAccountNotFound when the number is unknown for the tenant.
	FindAccount(ctx context.Context, tenantID, accountNumber string) (*domain.Account, error)

	// FindAccounts returns the known accounts among accountNumbers, keyed by number.
	// Unknown numbers are simply absent from the map.
	FindAccounts(ctx context.Context, tenantID string, accountNumbers []string) (map[string]domain.Account, error)

	// ListAccounts returns the tenant's accounts ordered by account number.
	ListAccounts(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Account, error)
}

// AccountWriter defines write operations for the chart of accounts
type AccountWriter interface {
	// SaveAccount persists a new account. Returns apperrors.ErrDuplicateAccount if
	// the number is already registered for the tenant.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, tenantID, accountNumber, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
