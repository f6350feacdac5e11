// Package cache holds the Redis-backed cache of fleet maintenance boards.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ukydev/fleet-checkpoint/internal/config"
)

const boardPrefix = "cache:maintenance_board:"

// allUnits is the key suffix of the board spanning every unit.
const allUnits = "_all"

// BoardCache stores rendered maintenance boards per unit.
type BoardCache interface {
	// Get returns nil without error on a miss.
	Get(ctx context.Context, unit string) ([]byte, error)
	Set(ctx context.Context, unit string, board []byte) error
	// Invalidate drops the board of unit and the fleet-wide board.
	Invalidate(ctx context.Context, unit string) error
}

// RedisBoardCache implements BoardCache on Redis.
type RedisBoardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisBoardCache wraps a client. A non-positive ttl defaults to one minute.
func NewRedisBoardCache(client *redis.Client, ttl time.Duration) *RedisBoardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisBoardCache{client: client, ttl: ttl}
}

func boardKey(unit string) string {
	if unit == "" {
		unit = allUnits
	}
	return boardPrefix + unit
}

func (c *RedisBoardCache) Get(ctx context.Context, unit string) ([]byte, error) {
	data, err := c.client.Get(ctx, boardKey(unit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisBoardCache) Set(ctx context.Context, unit string, board []byte) error {
	return c.client.Set(ctx, boardKey(unit), board, c.ttl).Err()
}

func (c *RedisBoardCache) Invalidate(ctx context.Context, unit string) error {
	keys := []string{boardKey("")}
	if unit != "" {
		keys = append(keys, boardKey(unit))
	}
	return c.client.Del(ctx, keys...).Err()
}

// NopBoardCache never stores anything.
type NopBoardCache struct{}

func (NopBoardCache) Get(context.Context, string) ([]byte, error) { return nil, nil }
func (NopBoardCache) Set(context.Context, string, []byte) error   { return nil }
func (NopBoardCache) Invalidate(context.Context, string) error    { return nil }
