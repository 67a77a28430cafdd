package status

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Subscriber consumes the status channel. The console attaches one to
// follow a running session.
type Subscriber struct {
	pubsub *redis.PubSub
	logger *slog.Logger
	events chan Event
}

// NewSubscriber subscribes to the status channel and starts decoding
// events. Close the subscriber to stop.
func NewSubscriber(ctx context.Context, client *redis.Client, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		pubsub: client.Subscribe(ctx, Channel),
		logger: logger,
		events: make(chan Event, 64),
	}
	go s.run()
	return s
}

// Events returns the decoded event stream. The channel closes when the
// subscriber does.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Close tears down the subscription.
func (s *Subscriber) Close() error {
	return s.pubsub.Close()
}

func (s *Subscriber) run() {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			s.logger.Warn("Failed to decode status event", "error", err)
			continue
		}

		// Drop rather than block: a stalled display must not back up
		// the producer.
		select {
		case s.events <- event:
		default:
			s.logger.Debug("Status event dropped, consumer behind", "key", event.Key)
		}
	}
}
