package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/municipal_tax_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/logging"
)

// BaseService provides common functionality for all services
type BaseService struct {
	TxManager portsrepo.TransactionManager
	AuditRepo portsrepo.AuditRepository
	Publisher ports.EventPublisher
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Audit appends an audit record. It must run inside the unit of work whose
// writes it describes.
func (s *BaseService) Audit(ctx context.Context, tenantID, entityID, action, actor, before, after string) error {
	if s.AuditRepo == nil {
		return nil
	}
	return s.AuditRepo.Append(ctx, domain.AuditRecord{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		EntityID:      entityID,
		Action:        action,
		Actor:         actor,
		Timestamp:     time.Now().UTC(),
		BeforeSummary: before,
		AfterSummary:  after,
	})
}

// PublishAfterCommit queues event for publication once the surrounding
// transaction commits. Publication failures are logged, never returned:
// the ledger state is already durable by then.
func (s *BaseService) PublishAfterCommit(ctx context.Context, event domain.LedgerEvent) {
	if s.Publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	publish := func() {
		if err := s.Publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.LogError(ctx, err, "Failed to publish ledger event",
				slog.String("event_type", event.EventType),
				slog.String("tenant_id", event.TenantID))
		}
	}
	if s.TxManager == nil {
		publish()
		return
	}
	s.TxManager.AfterCommit(ctx, publish)
}

// LockFiler serialises the units of work that read and then move a filer's
// balances. ctx must carry a transaction.
func (s *BaseService) LockFiler(ctx context.Context, tenantID, filerID string) error {
	return s.TxManager.LockKey(ctx, "filer:"+tenantID+":"+filerID)
}
