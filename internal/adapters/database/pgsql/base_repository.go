// Package pgsql implements the repository ports on PostgreSQL through pgx.
package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/logging"
)

const uniqueViolation = "23505"

// querier is the part of pgxpool.Pool and pgx.Tx the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

type txState struct {
	tx    pgx.Tx
	hooks []func()
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// db returns the transaction carried by ctx, or the pool outside one.
func (r *BaseRepository) db(ctx context.Context) querier {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st.tx
	}
	return r.Pool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// txManager runs units of work in a single pgx transaction.
type txManager struct {
	BaseRepository
}

var _ portsrepo.TransactionManager = (*txManager)(nil)

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	tx, err := m.Pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	st := &txState{tx: tx}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logging.FromContext(ctx).Error("Failed to roll back transaction", "error", rbErr)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	for _, hook := range st.hooks {
		hook()
	}
	return nil
}

func (m *txManager) AfterCommit(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn()
}

// LockKey takes a transaction-scoped advisory lock on the hash of key.
func (m *txManager) LockKey(ctx context.Context, key string) error {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		return fmt.Errorf("%w: lock %q requested outside a transaction", apperrors.ErrInternal, key)
	}
	if _, err := st.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock %q: %w", key, err)
	}
	return nil
}

func scanErr(err error, notFound error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError(notFound, id)
	}
	return fmt.Errorf("query failed for %s: %w", id, err)
}
