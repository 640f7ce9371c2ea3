package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/services"
	"github.com/SscSPs/municipal_tax_ledger/internal/dto"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountAuditLog records registry changes in the audit log
func WithAccountAuditLog(repo portsrepo.AuditRepository) AccountServiceOption {
	return func(s *accountService) {
		s.AuditRepo = repo
	}
}

// WithAccountTxManager runs registry changes inside a unit of work
func WithAccountTxManager(tm portsrepo.TransactionManager) AccountServiceOption {
	return func(s *accountService) {
		s.TxManager = tm
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.TxManager == nil {
		return fn(ctx)
	}
	return s.TxManager.WithinTx(ctx, fn)
}

func (s *accountService) RegisterAccount(ctx context.Context, req dto.RegisterAccountRequest) (*domain.Account, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.AccountType.IsValid() || !req.NormalBalance.IsValid() {
		return nil, fmt.Errorf("%w: account type %q / normal balance %q", apperrors.ErrValidation, req.AccountType, req.NormalBalance)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		TenantID:      req.TenantID,
		Name:          req.Name,
		AccountType:   req.AccountType,
		NormalBalance: req.NormalBalance,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     req.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: req.UserID,
		},
	}

	err := s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			return err
		}
		return s.Audit(ctx, account.TenantID, account.AccountNumber, domain.ActionAccountRegistered, req.UserID,
			"", fmt.Sprintf("%s %s %s", account.Name, account.AccountType, account.NormalBalance))
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateAccount) {
			s.LogError(ctx, err, "Failed to register account",
				slog.String("tenant_id", req.TenantID),
				slog.String("account_number", account.AccountNumber))
		}
		return nil, fmt.Errorf("failed to register account %s: %w", account.AccountNumber, err)
	}

	s.LogInfo(ctx, "Account registered",
		slog.String("tenant_id", account.TenantID),
		slog.String("account_number", account.AccountNumber))
	return &account, nil
}

func (s *accountService) LookupAccount(ctx context.Context, tenantID, accountNumber string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccount(ctx, tenantID, accountNumber)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, tenantID, true)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.String("tenant_id", tenantID))
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, tenantID, accountNumber, userID string) error {
	return s.withinTx(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.FindAccount(ctx, tenantID, accountNumber)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return nil
		}
		if err := s.accountRepo.DeactivateAccount(ctx, tenantID, accountNumber, userID, time.Now().UTC()); err != nil {
			s.LogError(ctx, err, "Failed to deactivate account",
				slog.String("tenant_id", tenantID),
				slog.String("account_number", accountNumber))
			return err
		}
		return s.Audit(ctx, tenantID, accountNumber, domain.ActionAccountDeactivated, userID, "active", "inactive")
	})
}

func (s *accountService) SeedStandardChart(ctx context.Context, tenantID, userID string) ([]domain.Account, error) {
	var created []domain.Account
	err := s.withinTx(ctx, func(ctx context.Context) error {
		numbers := make([]string, len(domain.StandardChart))
		for i, ca := range domain.StandardChart {
			numbers[i] = ca.AccountNumber
		}
		existing, err := s.accountRepo.FindAccounts(ctx, tenantID, numbers)
		if err != nil {
			return err
		}
		for _, ca := range domain.StandardChart {
			if _, ok := existing[ca.AccountNumber]; ok {
				continue
			}
			account, err := s.RegisterAccount(ctx, dto.RegisterAccountRequest{
				TenantID:      tenantID,
				AccountNumber: ca.AccountNumber,
				Name:          ca.Name,
				AccountType:   ca.AccountType,
				NormalBalance: ca.NormalBalance,
				UserID:        userID,
			})
			if err != nil {
				return err
			}
			created = append(created, *account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Standard chart seeded",
		slog.String("tenant_id", tenantID),
		slog.Int("created", len(created)))
	return created, nil
}
