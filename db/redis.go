package db

import (
	"context"
	"fmt"

	"rto_engine/config"

	"github.com/redis/go-redis/v9"
)

// Redis 全局Redis客户端
var Redis *redis.Client

// OpenRedis 创建Redis客户端并检查连通性
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
