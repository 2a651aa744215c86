// Package redisbridge publishes decoded SNAP frames to Redis and watches a
// Redis list for frames to send, adapted from the bluetooth-service's own
// pkg/redis client and its command-watcher/channel-subscriber shape in
// pkg/service/redis_handlers.go.
package redisbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a thin wrapper over go-redis with the handful of operations
// the bridge needs: hash writes for published frame fields, pub/sub
// notification, and a blocking list pop for outgoing commands.
type Client struct {
	rdb *redis.Client
	ctx context.Context
}

// New connects to addr and pings it to fail fast on misconfiguration.
func New(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &Client{rdb: rdb, ctx: ctx}, nil
}

// WriteAndPublishFields writes fields into the hash at key with one HSet
// per field, all in a single pipeline, and publishes a change notification
// per field, mirroring
// the teacher's WriteAndPublishString pattern.
func (c *Client) WriteAndPublishFields(key string, fields map[string]string) error {
	pipe := c.rdb.Pipeline()
	for field, value := range fields {
		pipe.HSet(c.ctx, key, field, value)
		pipe.Publish(c.ctx, key, field)
	}
	_, err := pipe.Exec(c.ctx)
	return err
}

// BRPop blocks (up to timeout, or indefinitely if timeout is 0) for a
// value pushed to key and returns [key, value], or nil on timeout.
func (c *Client) BRPop(timeout time.Duration, key string) ([]string, error) {
	result, err := c.rdb.BRPop(c.ctx, timeout, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("BRPOP on key %s: %v", key, err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result from key %s: %v", key, result)
	}
	return result, nil
}

// LPush pushes value onto the list at key.
func (c *Client) LPush(key, value string) error {
	return c.rdb.LPush(c.ctx, key, value).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
