package redis_client

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New connects to redis at addr. An empty address means no cache and returns nil.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return rdb, nil
}
