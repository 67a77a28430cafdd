package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Progress keys for the Redis backend.
const (
	questStatusKey   = "questline:quest_status"
	triggerStatusKey = "questline:trigger_status"
)

// RedisStore implements Store using Redis for progress and the
// filesystem for static resources. It mirrors the file backend's two
// completion maps under prefixed keys so either backend can resume the
// other's session data layout.
type RedisStore struct {
	resources
	client *redis.Client
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. redisURL accepts the
// redis:// form.
func NewRedisStore(redisURL, dataDir string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStore{
		resources: resources{dataDir: dataDir, logger: logger},
		client:    redis.NewClient(opt),
	}, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStore) LoadProgress(ctx context.Context) (map[string]bool, map[string]bool, error) {
	quests, err := r.loadStatusMap(ctx, questStatusKey)
	if err != nil {
		return nil, nil, err
	}
	triggers, err := r.loadStatusMap(ctx, triggerStatusKey)
	if err != nil {
		return nil, nil, err
	}
	return quests, triggers, nil
}

func (r *RedisStore) loadStatusMap(ctx context.Context, key string) (map[string]bool, error) {
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return make(map[string]bool), nil
		}
		return nil, fmt.Errorf("failed to load status map %s: %w", key, err)
	}

	var m map[string]bool
	if err := json.Unmarshal([]byte(cmd.Val()), &m); err != nil {
		r.logger.Warn("Corrupt status map, starting fresh", "key", key, "error", err)
		return make(map[string]bool), nil
	}
	if m == nil {
		m = make(map[string]bool)
	}
	return m, nil
}

func (r *RedisStore) SaveProgress(ctx context.Context, quests map[string]bool, triggers map[string]bool) error {
	if err := r.saveStatusMap(ctx, questStatusKey, quests); err != nil {
		return err
	}
	return r.saveStatusMap(ctx, triggerStatusKey, triggers)
}

func (r *RedisStore) saveStatusMap(ctx context.Context, key string, m map[string]bool) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal status map: %w", err)
	}
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save status map", "key", key, "error", err)
		return fmt.Errorf("failed to save status map %s: %w", key, err)
	}
	return nil
}
