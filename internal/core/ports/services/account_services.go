package services

import (
	"context"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	// LookupAccount returns apperrors.ErrAccountNotFound for unknown numbers.
	LookupAccount(ctx context.Context, tenantID, accountNumber string) (*domain.Account, error)

	// ListActiveAccounts returns the tenant's active accounts ordered by number.
	ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	// RegisterAccount adds an account. Returns apperrors.ErrDuplicateAccount if the number is taken.
	RegisterAccount(ctx context.Context, req dto.RegisterAccountRequest) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, tenantID, accountNumber, userID string) error

	// SeedStandardChart registers every standard account the tenant does not have yet.
	SeedStandardChart(ctx context.Context, tenantID, userID string) ([]domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
