package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and verifies the connection.
// Returns (nil, nil) when addr is empty, meaning the cache is disabled.
func New(addr, password string, db int) (*redis.Client, error) {
	const op = "redis.New"

	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}
