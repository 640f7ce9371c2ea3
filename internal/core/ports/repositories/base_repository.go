package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically. The transaction travels in
// the context handed to fn, so repository calls made with that context join it.
// Calling WithinTx with a context that already carries a transaction joins the
// outer one instead of starting a new one.
type TransactionManager interface {
	// WithinTx commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// AfterCommit defers fn until the outermost transaction in ctx commits.
	// Without a transaction fn runs immediately. fn is dropped on rollback.
	AfterCommit(ctx context.Context, fn func())

	// LockKey blocks until no other transaction holds key, then holds it until
	// the transaction in ctx ends. It fails outside a transaction.
	LockKey(ctx context.Context, key string) error
}
