package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel status events travel on.
const Channel = "questline:status"

// Well-known event keys.
const (
	KeyLocation     = "location"
	KeyActiveQuest  = "active_quest"
	KeyNavStatus    = "nav_status"
	KeyPathProgress = "path_progress"
	KeyStall        = "stall"
	KeyBattle       = "battle"
	KeyDialog       = "dialog"
)

// Event is one status update. Delivery is best effort: the producer
// never waits on consumers and lost reads are acceptable.
type Event struct {
	Session string    `json:"session"`
	Key     string    `json:"key"`
	Value   any       `json:"value,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher is the one-way status channel out of the engine.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// Broadcaster publishes status events to Redis Pub/Sub for display
// processes.
type Broadcaster struct {
	client  *redis.Client
	logger  *slog.Logger
	session string
}

// Ensure Broadcaster implements Publisher interface
var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster with a fresh session id.
func NewBroadcaster(client *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		client:  client,
		logger:  logger,
		session: uuid.NewString(),
	}
}

// Session returns this run's session id.
func (b *Broadcaster) Session() string {
	return b.session
}

// Publish sends one status event. Failures are logged and returned;
// callers on the hot path drop them.
func (b *Broadcaster) Publish(ctx context.Context, key string, value any) error {
	event := Event{
		Session: b.session,
		Key:     key,
		Value:   value,
		At:      time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal status event", "key", key, "error", err)
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	if err := b.client.Publish(ctx, Channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish status event", "key", key, "error", err)
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	b.logger.Debug("Status event published", "key", key, "value", value)
	return nil
}

// Nop is a Publisher that drops everything. Used when no status
// channel is configured.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(ctx context.Context, key string, value any) error {
	return nil
}
