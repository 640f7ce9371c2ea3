package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/municipal_tax_ledger/internal/core/domain"
)

func TestRedisPublisher_Publish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	pub := NewRedisPublisher(client, "")

	event := domain.LedgerEvent{
		EventType: domain.EventPaymentProcessed,
		TenantID:  "springfield",
		EntityID:  "filer-42",
		Reference: "pay-1",
		Amount:    "150.00",
		Timestamp: time.Date(2024, 4, 15, 9, 30, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	mock.ExpectPublish(DefaultChannel, payload).SetVal(1)

	require.NoError(t, pub.Publish(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_PublishError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	pub := NewRedisPublisher(client, "tax_events")

	event := domain.LedgerEvent{EventType: domain.EventJournalPosted, TenantID: "springfield"}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	down := errors.New("connection refused")
	mock.ExpectPublish("tax_events", payload).SetErr(down)

	err = pub.Publish(context.Background(), event)
	assert.ErrorIs(t, err, down)
	assert.NoError(t, mock.ExpectationsWereMet())
}
