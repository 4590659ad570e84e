// Package cache holds the Redis-backed view cache for the room listing.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/textbin/rooms_backend/models"
)

const (
	roomListTTL    = 30 * time.Second
	roomListPrefix = "rooms:recent:"
)

// Cache is a best-effort view cache. A nil *Cache is valid and disables
// caching, so callers never have to branch on whether Redis is configured.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// roomListKey returns the key for a recent-room listing of the given size.
func roomListKey(limit int) string {
	return fmt.Sprintf("%s%d", roomListPrefix, limit)
}

// GetRoomList returns the cached recent-room listing, or false when the
// cache is disabled, empty or unreadable.
func (c *Cache) GetRoomList(ctx context.Context, limit int) ([]models.Room, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, roomListKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("failed to read room list cache")
		}
		return nil, false
	}

	var rooms []models.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		log.Warn().Err(err).Msg("failed to decode room list cache")
		return nil, false
	}
	return rooms, true
}

// SetRoomList stores a recent-room listing.
func (c *Cache) SetRoomList(ctx context.Context, limit int, rooms []models.Room) {
	if c == nil {
		return
	}

	data, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, roomListKey(limit), data, roomListTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to write room list cache")
	}
}

// InvalidateRoomList drops all cached room listings. Called after a room is
// created or evicted so polling clients do not see a stale collection.
func (c *Cache) InvalidateRoomList(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, roomListPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Str("key", iter.Val()).Msg("failed to invalidate room list cache")
		}
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("failed to scan room list cache keys")
	}
}
