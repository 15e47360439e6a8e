// Package redisrepo stores session snapshots in Redis.
package redisrepo

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mgcnb666/Predictive-AI-agent/config"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: timeout,
		ReadTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
