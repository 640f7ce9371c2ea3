package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/municipal_tax_ledger/internal/models"
	"github.com/SscSPs/municipal_tax_ledger/internal/utils/mapping"
	"github.com/SscSPs/municipal_tax_ledger/internal/utils/pagination"
)

const entryColumns = `entry_id, tenant_id, entity_id, entity_type, entry_number, entry_sequence, entry_date,
	description, source_type, source_id, status, total_amount, reversal_of, reversed_by, created_by, created_at`

const defaultPageSize = 20

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.TenantID,
		&m.EntityID,
		&m.EntityType,
		&m.EntryNumber,
		&m.EntrySequence,
		&m.EntryDate,
		&m.Description,
		&m.SourceType,
		&m.SourceID,
		&m.Status,
		&m.TotalAmount,
		&m.ReversalOf,
		&m.ReversedBy,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	return m, err
}

// NextEntrySequence upserts the tenant's counter row. The row lock it takes is held
// until the surrounding transaction ends, so concurrent posts for a tenant queue up
// here and a rollback hands the value back.
func (r *PgxJournalRepository) NextEntrySequence(ctx context.Context, tenantID string) (int64, error) {
	query := `
		INSERT INTO entry_sequences (tenant_id, last_value) VALUES ($1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET last_value = entry_sequences.last_value + 1
		RETURNING last_value;`
	var seq int64
	if err := r.db(ctx).QueryRow(ctx, query, tenantID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate entry sequence for tenant %s: %w", tenantID, err)
	}
	return seq, nil
}

func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	db := r.db(ctx)

	entryQuery := `INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`
	_, err := db.Exec(ctx, entryQuery,
		m.EntryID,
		m.TenantID,
		m.EntityID,
		m.EntityType,
		m.EntryNumber,
		m.EntrySequence,
		m.EntryDate,
		m.Description,
		m.SourceType,
		m.SourceID,
		m.Status,
		m.TotalAmount,
		m.ReversalOf,
		m.ReversedBy,
		m.CreatedBy,
		m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, m.EntryNumber)
		}
		return fmt.Errorf("failed to insert journal entry %s: %w", m.EntryNumber, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `INSERT INTO journal_lines (entry_id, line_number, account_number, debit, credit, description)
		VALUES ($1, $2, $3, $4, $5, $6);`
	for _, l := range entry.Lines {
		ml := mapping.ToModelJournalLine(entry.ID, l)
		batch.Queue(lineQuery, ml.EntryID, ml.LineNumber, ml.AccountNumber, ml.Debit, ml.Credit, ml.Description)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert lines for journal entry %s: %w", m.EntryNumber, err)
	}
	return nil
}

func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1;`, entryID)
}

func (r *PgxJournalRepository) FindEntryForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1 FOR UPDATE;`, entryID)
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, query, entryID string) (*domain.JournalEntry, error) {
	m, err := scanEntry(r.db(ctx).QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, scanErr(err, apperrors.ErrEntryNotFound, entryID)
	}
	entries, err := r.withLines(ctx, []models.JournalEntry{m})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

func (r *PgxJournalRepository) FindEntriesByEntity(ctx context.Context, tenantID, entityID string) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries
		WHERE tenant_id = $1 AND entity_id = $2
		ORDER BY entry_date DESC, entry_sequence DESC;`
	ms, err := r.queryEntries(ctx, query, tenantID, entityID)
	if err != nil {
		return nil, err
	}
	return r.withLines(ctx, ms)
}

// ListEntriesByEntity pages by (entry_date, entry_sequence) descending. One row past
// the limit is fetched to know whether another page exists.
func (r *PgxJournalRepository) ListEntriesByEntity(ctx context.Context, tenantID, entityID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	args := []any{tenantID, entityID}
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE tenant_id = $1 AND entity_id = $2`
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (entry_date, entry_sequence) < ($3, $4)`
		args = append(args, cursor.EntryDate, cursor.Sequence)
	}
	query += ` ORDER BY entry_date DESC, entry_sequence DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, limit+1)

	ms, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(ms) > limit {
		ms = ms[:limit]
		last := ms[len(ms)-1]
		t := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate.UTC(), Sequence: last.EntrySequence})
		token = &t
	}

	entries, err := r.withLines(ctx, ms)
	if err != nil {
		return nil, nil, err
	}
	return entries, token, nil
}

func (r *PgxJournalRepository) MarkReversed(ctx context.Context, entryID, reversedByID string) error {
	query := `UPDATE journal_entries SET status = $3, reversed_by = $2
		WHERE entry_id = $1 AND status = $4;`
	tag, err := r.db(ctx).Exec(ctx, query, entryID, reversedByID, string(domain.Reversed), string(domain.Posted))
	if err != nil {
		return fmt.Errorf("failed to mark journal entry %s reversed: %w", entryID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.FindEntryByID(ctx, entryID); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", apperrors.ErrEntryAlreadyReversed, entryID)
}

func (r *PgxJournalRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.JournalEntry, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var ms []models.JournalEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}
	return ms, nil
}

// withLines loads the lines of every entry in one query and attaches them in order.
func (r *PgxJournalRepository) withLines(ctx context.Context, ms []models.JournalEntry) ([]domain.JournalEntry, error) {
	out := make([]domain.JournalEntry, 0, len(ms))
	if len(ms) == 0 {
		return out, nil
	}
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.EntryID
	}

	query := `SELECT entry_id, line_number, account_number, debit, credit, description
		FROM journal_lines WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_number;`
	rows, err := r.db(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string][]models.JournalLine, len(ms))
	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(&l.EntryID, &l.LineNumber, &l.AccountNumber, &l.Debit, &l.Credit, &l.Description); err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		lines[l.EntryID] = append(lines[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal line rows: %w", err)
	}

	for _, m := range ms {
		out = append(out, mapping.ToDomainJournalEntry(m, lines[m.EntryID]))
	}
	return out, nil
}

// entryFilter builds the WHERE clause shared by the aggregate queries.
type entryFilter struct {
	clauses []string
	args    []any
}

func (f *entryFilter) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *entryFilter) where() string {
	return strings.Join(f.clauses, " AND ")
}

func (r *PgxJournalRepository) SumLinesByAccount(ctx context.Context, tenantID string, filter domain.BalanceFilter) ([]domain.AccountTotals, error) {
	f := &entryFilter{}
	f.add("e.tenant_id = ?", tenantID)
	if filter.AsOf != nil {
		f.add("e.entry_date <= ?", domain.NormalizeDate(*filter.AsOf))
	}
	if filter.EntityType != "" {
		f.add("e.entity_type = ?", string(filter.EntityType))
	}
	if filter.EntityID != "" {
		f.add("e.entity_id = ?", filter.EntityID)
	}
	if len(filter.AccountNumbers) > 0 {
		f.add("l.account_number = ANY(?)", filter.AccountNumbers)
	}

	query := `SELECT l.account_number, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE ` + f.where() + `
		GROUP BY l.account_number
		ORDER BY l.account_number;`

	rows, err := r.db(ctx).Query(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum lines for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	out := []domain.AccountTotals{}
	for rows.Next() {
		var t domain.AccountTotals
		if err := rows.Scan(&t.AccountNumber, &t.Debit, &t.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan account totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgxJournalRepository) SumLiveEntriesBySource(ctx context.Context, tenantID string, entityType domain.EntityType, entityID string) ([]domain.SourceTotal, error) {
	f := &entryFilter{}
	f.add("tenant_id = ?", tenantID)
	f.add("entity_type = ?", string(entityType))
	f.add("status = ?", string(domain.Posted))
	f.clauses = append(f.clauses, "reversal_of IS NULL")
	if entityID != "" {
		f.add("entity_id = ?", entityID)
	}

	query := `SELECT source_id, SUM(total_amount)
		FROM journal_entries
		WHERE ` + f.where() + `
		GROUP BY source_id
		ORDER BY source_id;`

	rows, err := r.db(ctx).Query(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum entries by source for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	out := []domain.SourceTotal{}
	for rows.Next() {
		t := domain.SourceTotal{Amount: decimal.Zero}
		if err := rows.Scan(&t.SourceID, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan source total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
