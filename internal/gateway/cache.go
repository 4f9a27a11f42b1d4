// internal/gateway/cache.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smartstore-assistant/internal/common/database"
	"smartstore-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

const snapshotCacheKey = "assistant:snapshot"

// snapshotCache keeps the last-known snapshot in Redis so a fresh process
// can serve reference data before its first successful fetch.
type snapshotCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func newSnapshotCache(client *database.RedisClient, ttl time.Duration) *snapshotCache {
	if client == nil {
		return nil
	}
	return &snapshotCache{client: client, ttl: ttl}
}

func (c *snapshotCache) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Client.Set(ctx, snapshotCacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot and whether one was present.
func (c *snapshotCache) Load(ctx context.Context) (models.Snapshot, bool, error) {
	data, err := c.client.Client.Get(ctx, snapshotCacheKey).Bytes()
	if err == redis.Nil {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("read cached snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return snap, true, nil
}
