package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StatusCache is a cache-aside layer for order status lookups.
// Writes are best-effort; the database stays the source of truth.
type StatusCache struct {
	RDB *redis.Client
}

func (c StatusCache) GetStatus(ctx context.Context, orderID int64) (string, bool) {
	s, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

func (c StatusCache) SetStatus(ctx context.Context, orderID int64, status string) {
	_ = c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), status, TTLStatusCache).Err()
}

func (c StatusCache) Invalidate(ctx context.Context, orderID int64) {
	_ = c.RDB.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}
