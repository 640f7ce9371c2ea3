// Package memory is an in-process implementation of the repository ports. It backs
// the CLI's --store=memory mode and the service-level tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
)

type accountKey struct {
	tenantID      string
	accountNumber string
}

type state struct {
	accounts  map[accountKey]domain.Account
	sequences map[string]int64
	entries   map[string]domain.JournalEntry
	payments  map[string]domain.PaymentTransaction
	refunds   map[string]domain.RefundRequest
	audit     []domain.AuditRecord
}

func newState() state {
	return state{
		accounts:  make(map[accountKey]domain.Account),
		sequences: make(map[string]int64),
		entries:   make(map[string]domain.JournalEntry),
		payments:  make(map[string]domain.PaymentTransaction),
		refunds:   make(map[string]domain.RefundRequest),
	}
}

// clone copies the maps. Stored values are replaced, never mutated in place,
// so a shallow copy is a full snapshot.
func (st state) clone() state {
	return state{
		accounts:  maps.Clone(st.accounts),
		sequences: maps.Clone(st.sequences),
		entries:   maps.Clone(st.entries),
		payments:  maps.Clone(st.payments),
		refunds:   maps.Clone(st.refunds),
		audit:     append([]domain.AuditRecord(nil), st.audit...),
	}
}

// Store holds every table behind a single lock. A transaction holds the write
// lock for its whole duration, which serialises writers the way row locks and
// the sequence upsert do in PostgreSQL.
type Store struct {
	mu sync.RWMutex
	st state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

type txState struct {
	store *Store
	hooks []func()
}

func (s *Store) txFrom(ctx context.Context) *txState {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx.store != s {
		return nil
	}
	return tx
}

// WithinTx runs fn holding the store lock and restores the previous state if fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	tx := &txState{store: s}
	snapshot := s.st.clone()
	err := fn(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		s.st = snapshot
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// AfterCommit defers fn until the outermost transaction commits.
func (s *Store) AfterCommit(ctx context.Context, fn func()) {
	if tx := s.txFrom(ctx); tx != nil {
		tx.hooks = append(tx.hooks, fn)
		return
	}
	fn()
}

// LockKey needs no extra lock: a transaction already holds the whole store.
func (s *Store) LockKey(ctx context.Context, key string) error {
	if s.txFrom(ctx) == nil {
		return fmt.Errorf("%w: lock %q requested outside a transaction", apperrors.ErrInternal, key)
	}
	return nil
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if s.txFrom(ctx) == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(&s.st)
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if s.txFrom(ctx) == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(&s.st)
}

// NewRepositoryProvider exposes the store through every repository port.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: &accountRepository{store: s},
		JournalRepo: &journalRepository{store: s},
		PaymentRepo: &paymentRepository{store: s},
		RefundRepo:  &refundRepository{store: s},
		AuditRepo:   &auditRepository{store: s},
		TxManager:   s,
	}
}

var _ portsrepo.TransactionManager = (*Store)(nil)
