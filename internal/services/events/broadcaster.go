package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/redis/go-redis/v9"
)

// publishTimeout bounds a single publish made from a store listener.
const publishTimeout = 2 * time.Second

// Event is the wire form of a store event on the session channel.
type Event struct {
	Type      state.EventType `json:"type"`
	SessionID string          `json:"session_id"`
	Data      state.Event     `json:"data"`
}

// Channel is the Pub/Sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", sessionID.String())
}

// Broadcaster publishes store events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Listener returns a store listener that forwards every event of one
// session. Publish failures are logged and dropped.
func (b *Broadcaster) Listener(sessionID uuid.UUID) state.Listener {
	return func(e state.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = b.Publish(ctx, sessionID, e)
	}
}

// Publish sends one event to the session channel.
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, e state.Event) error {
	channel := Channel(sessionID)
	event := Event{
		Type:      e.Type,
		SessionID: sessionID.String(),
		Data:      e,
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", e.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", e.Type,
	)

	return nil
}
