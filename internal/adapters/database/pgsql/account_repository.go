package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/municipal_tax_ledger/internal/models"
	"github.com/SscSPs/municipal_tax_ledger/internal/utils/mapping"
)

const accountColumns = `tenant_id, account_number, name, account_type, normal_balance, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for the chart of accounts.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.TenantID,
		&m.AccountNumber,
		&m.Name,
		&m.AccountType,
		&m.NormalBalance,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err := r.db(ctx).Exec(ctx, query,
		m.TenantID,
		m.AccountNumber,
		m.Name,
		m.AccountType,
		m.NormalBalance,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateAccount, m.AccountNumber)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountNumber, err)
	}
	return nil
}

func (r *PgxAccountRepository) FindAccount(ctx context.Context, tenantID, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND account_number = $2;`
	m, err := scanAccount(r.db(ctx).QueryRow(ctx, query, tenantID, accountNumber))
	if err != nil {
		return nil, scanErr(err, apperrors.ErrAccountNotFound, accountNumber)
	}
	account := mapping.ToDomainAccount(m)
	return &account, nil
}

func (r *PgxAccountRepository) FindAccounts(ctx context.Context, tenantID string, accountNumbers []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountNumbers))
	if len(accountNumbers) == 0 {
		return out, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND account_number = ANY($2);`
	accounts, err := r.queryAccounts(ctx, query, tenantID, accountNumbers)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		out[a.AccountNumber] = a
	}
	return out, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE tenant_id = $1 AND (is_active OR NOT $2)
		ORDER BY account_number;`
	return r.queryAccounts(ctx, query, tenantID, activeOnly)
}

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var ms []models.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return mapping.ToDomainAccountSlice(ms), nil
}

func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, tenantID, accountNumber, userID string, now time.Time) error {
	query := `UPDATE accounts SET is_active = FALSE, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1 AND account_number = $2;`
	tag, err := r.db(ctx).Exec(ctx, query, tenantID, accountNumber, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrAccountNotFound, accountNumber)
	}
	return nil
}
