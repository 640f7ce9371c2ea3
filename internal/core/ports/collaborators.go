package ports

import (
	"context"
	"time"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

// PaymentGateway authorizes payments with an external provider. A returned error
// means the round-trip itself failed; declines come back as a result.
type PaymentGateway interface {
	Authorize(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationResult, error)
}

// IdempotencyStore reserves caller-supplied keys so a retried request is only
// processed once.
type IdempotencyStore interface {
	// Reserve returns true if the key was newly reserved, false if it already exists.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a reservation whose request failed before anything was recorded.
	Release(ctx context.Context, key string) error
}

// EventPublisher announces committed ledger changes to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
}
