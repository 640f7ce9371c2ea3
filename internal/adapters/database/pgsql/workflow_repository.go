package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/municipal_tax_ledger/internal/models"
	"github.com/SscSPs/municipal_tax_ledger/internal/utils/mapping"
)

const paymentColumns = `payment_id, tenant_id, filer_id, municipality_id, source_id, amount, method, status,
	provider_transaction_id, authorization_code, failure_reason,
	allocated_tax, allocated_penalty, allocated_interest, overpayment,
	idempotency_key, journal_entry_id, municipality_journal_entry_id, created_by, created_at`

type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) *PgxPaymentRepository {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepository = (*PgxPaymentRepository)(nil)

func scanPayment(row pgx.Row) (models.PaymentTransaction, error) {
	var m models.PaymentTransaction
	err := row.Scan(
		&m.PaymentID, &m.TenantID, &m.FilerID, &m.MunicipalityID, &m.SourceID,
		&m.Amount, &m.Method, &m.Status,
		&m.ProviderTransactionID, &m.AuthorizationCode, &m.FailureReason,
		&m.AllocatedTax, &m.AllocatedPenalty, &m.AllocatedInterest, &m.Overpayment,
		&m.IdempotencyKey, &m.JournalEntryID, &m.MunicipalityJournalEntryID,
		&m.CreatedBy, &m.CreatedAt,
	)
	return m, err
}

func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.PaymentTransaction) error {
	m := mapping.ToModelPayment(payment)
	query := `INSERT INTO payment_transactions (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);`
	_, err := r.db(ctx).Exec(ctx, query,
		m.PaymentID, m.TenantID, m.FilerID, m.MunicipalityID, m.SourceID,
		m.Amount, m.Method, m.Status,
		m.ProviderTransactionID, m.AuthorizationCode, m.FailureReason,
		m.AllocatedTax, m.AllocatedPenalty, m.AllocatedInterest, m.Overpayment,
		m.IdempotencyKey, m.JournalEntryID, m.MunicipalityJournalEntryID,
		m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, payment.IdempotencyKey)
		}
		return fmt.Errorf("failed to save payment %s: %w", m.PaymentID, err)
	}
	return nil
}

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE payment_id = $1;`
	m, err := scanPayment(r.db(ctx).QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, scanErr(err, apperrors.ErrPaymentNotFound, paymentID)
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

func (r *PgxPaymentRepository) FindPaymentByIdempotencyKey(ctx context.Context, tenantID, key string) (*domain.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE tenant_id = $1 AND idempotency_key = $2;`
	m, err := scanPayment(r.db(ctx).QueryRow(ctx, query, tenantID, key))
	if err != nil {
		return nil, scanErr(err, apperrors.ErrPaymentNotFound, key)
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

const refundColumns = `refund_id, tenant_id, filer_id, municipality_id, amount, reason, status,
	requested_by, approved_by, rejected_by, rejection_reason, issued_by, completed_by,
	request_entry_ids, issue_entry_ids, confirmation_number,
	requested_at, approved_at, rejected_at, issued_at, completed_at, last_updated_at`

type PgxRefundRepository struct {
	BaseRepository
}

func newPgxRefundRepository(pool *pgxpool.Pool) *PgxRefundRepository {
	return &PgxRefundRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RefundRepository = (*PgxRefundRepository)(nil)

func refundArgs(m models.RefundRequest) []any {
	return []any{
		m.RefundID, m.TenantID, m.FilerID, m.MunicipalityID, m.Amount, m.Reason, m.Status,
		m.RequestedBy, m.ApprovedBy, m.RejectedBy, m.RejectionReason, m.IssuedBy, m.CompletedBy,
		m.RequestEntryIDs, m.IssueEntryIDs, m.ConfirmationNumber,
		m.RequestedAt, m.ApprovedAt, m.RejectedAt, m.IssuedAt, m.CompletedAt, m.LastUpdatedAt,
	}
}

func (r *PgxRefundRepository) SaveRefund(ctx context.Context, refund domain.RefundRequest) error {
	query := `INSERT INTO refund_requests (` + refundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);`
	_, err := r.db(ctx).Exec(ctx, query, refundArgs(mapping.ToModelRefund(refund))...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: refund request %s", apperrors.ErrDuplicate, refund.ID)
		}
		return fmt.Errorf("failed to save refund request %s: %w", refund.ID, err)
	}
	return nil
}

// UpdateRefund rewrites every mutable column; the tenant, filer and amount never change.
func (r *PgxRefundRepository) UpdateRefund(ctx context.Context, refund domain.RefundRequest) error {
	m := mapping.ToModelRefund(refund)
	query := `UPDATE refund_requests SET
			status = $2, approved_by = $3, rejected_by = $4, rejection_reason = $5,
			issued_by = $6, completed_by = $7, request_entry_ids = $8, issue_entry_ids = $9,
			confirmation_number = $10, approved_at = $11, rejected_at = $12, issued_at = $13,
			completed_at = $14, last_updated_at = $15
		WHERE refund_id = $1;`
	tag, err := r.db(ctx).Exec(ctx, query,
		m.RefundID, m.Status, m.ApprovedBy, m.RejectedBy, m.RejectionReason,
		m.IssuedBy, m.CompletedBy, m.RequestEntryIDs, m.IssueEntryIDs,
		m.ConfirmationNumber, m.ApprovedAt, m.RejectedAt, m.IssuedAt,
		m.CompletedAt, m.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update refund request %s: %w", refund.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrRefundNotFound, refund.ID)
	}
	return nil
}

func (r *PgxRefundRepository) FindRefundByID(ctx context.Context, refundID string) (*domain.RefundRequest, error) {
	return r.findRefund(ctx, `SELECT `+refundColumns+` FROM refund_requests WHERE refund_id = $1;`, refundID)
}

func (r *PgxRefundRepository) FindRefundForUpdate(ctx context.Context, refundID string) (*domain.RefundRequest, error) {
	return r.findRefund(ctx, `SELECT `+refundColumns+` FROM refund_requests WHERE refund_id = $1 FOR UPDATE;`, refundID)
}

func (r *PgxRefundRepository) findRefund(ctx context.Context, query, refundID string) (*domain.RefundRequest, error) {
	var m models.RefundRequest
	err := r.db(ctx).QueryRow(ctx, query, refundID).Scan(
		&m.RefundID, &m.TenantID, &m.FilerID, &m.MunicipalityID, &m.Amount, &m.Reason, &m.Status,
		&m.RequestedBy, &m.ApprovedBy, &m.RejectedBy, &m.RejectionReason, &m.IssuedBy, &m.CompletedBy,
		&m.RequestEntryIDs, &m.IssueEntryIDs, &m.ConfirmationNumber,
		&m.RequestedAt, &m.ApprovedAt, &m.RejectedAt, &m.IssuedAt, &m.CompletedAt, &m.LastUpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err, apperrors.ErrRefundNotFound, refundID)
	}
	refund := mapping.ToDomainRefund(m)
	return &refund, nil
}

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) *PgxAuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepository = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	m := mapping.ToModelAuditRecord(record)
	query := `INSERT INTO audit_log (audit_id, tenant_id, entity_id, action, actor, occurred_at, before_summary, after_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := r.db(ctx).Exec(ctx, query,
		m.AuditID, m.TenantID, m.EntityID, m.Action, m.Actor, m.OccurredAt, m.BeforeSummary, m.AfterSummary)
	if err != nil {
		return fmt.Errorf("failed to append audit record for %s: %w", m.EntityID, err)
	}
	return nil
}

func (r *PgxAuditRepository) ListByEntity(ctx context.Context, tenantID, entityID string) ([]domain.AuditRecord, error) {
	query := `SELECT audit_id, tenant_id, entity_id, action, actor, occurred_at, before_summary, after_summary
		FROM audit_log WHERE tenant_id = $1 AND entity_id = $2
		ORDER BY occurred_at, audit_id;`
	rows, err := r.db(ctx).Query(ctx, query, tenantID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	out := []domain.AuditRecord{}
	for rows.Next() {
		var m models.AuditRecord
		if err := rows.Scan(&m.AuditID, &m.TenantID, &m.EntityID, &m.Action, &m.Actor,
			&m.OccurredAt, &m.BeforeSummary, &m.AfterSummary); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		out = append(out, mapping.ToDomainAuditRecord(m))
	}
	return out, rows.Err()
}
