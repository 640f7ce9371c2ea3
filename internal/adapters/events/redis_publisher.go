package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
	"github.com/SscSPs/municipal_tax_ledger/internal/core/ports"
	"github.com/SscSPs/municipal_tax_ledger/internal/platform/logging"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "ledger_events"

// RedisPublisher publishes ledger events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	logging.FromContext(ctx).Debug("Ledger event published",
		slog.String("channel", p.channel),
		slog.String("event_type", event.EventType),
		slog.String("reference", event.Reference))
	return nil
}

var _ ports.EventPublisher = (*RedisPublisher)(nil)
