package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/exposure"
)

// SnapshotStore publishes timer snapshots to Redis for out-of-process
// presentation surfaces. Readers only ever see a serialized snapshot;
// they never call the engine.
type SnapshotStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSnapshotStore creates a snapshot store. A non-positive TTL
// defaults to one hour.
func NewSnapshotStore(redisClient *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotStore{redis: redisClient, ttl: ttl}
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("exposure_snapshot:%s", sessionID)
}

// Publish writes the latest snapshot for a session.
func (s *SnapshotStore) Publish(ctx context.Context, sessionID string, snap exposure.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.redis.Set(ctx, snapshotKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to publish snapshot to Redis: %w", err)
	}

	return nil
}

// Get retrieves the latest snapshot for a session. A missing key
// returns nil: the surface shows its no-data placeholder.
func (s *SnapshotStore) Get(ctx context.Context, sessionID string) (*exposure.Snapshot, error) {
	data, err := s.redis.Get(ctx, snapshotKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot from Redis: %w", err)
	}

	snap, err := exposure.DecodeSnapshot([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return snap, nil
}

// Delete removes the snapshot for a session.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, snapshotKey(sessionID)).Err()
}
