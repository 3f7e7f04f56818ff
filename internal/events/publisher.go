// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "wallet_events"

// EventType names a ledger event.
type EventType string

const (
	// EventTransactionRecorded follows every successful log append.
	EventTransactionRecorded EventType = "transaction.recorded"
	// EventReconciliationRequired is raised when a saga could not undo a
	// partially applied operation and an operator must fix the balances.
	EventReconciliationRequired EventType = "reconciliation.required"
)

// Event is the JSON payload published on the channel.
type Event struct {
	Type            EventType         `json:"event_type"`
	WalletID        string            `json:"wallet_id"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	TransactionType string            `json:"transaction_type,omitempty"`
	Amount          decimal.Decimal   `json:"amount"`
	BalanceAfter    *decimal.Decimal  `json:"balance_after,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Publisher delivers ledger events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// RedisPublisher publishes events to a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisPublisher creates a RedisPublisher. An empty channel falls back to DefaultChannel.
func NewRedisPublisher(rdb *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

// Publish serializes the event and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Published wallet event", "type", event.Type, "wallet_id", event.WalletID, "channel", p.channel)
	return nil
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }
