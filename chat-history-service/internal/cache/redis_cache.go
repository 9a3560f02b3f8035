package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisMessageCache stores complete history pages as JSON.
type RedisMessageCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisMessageCache(address, password string, db int, prefix string) (*RedisMessageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageCache{
		client: client,
		prefix: prefix,
	}, nil
}

func buildKey(prefix, conversationID, cursor string, limit int) string {
	if cursor == "" {
		cursor = "start"
	}
	return fmt.Sprintf("%s:%s:%s:%d", prefix, conversationID, cursor, limit)
}

func (c *RedisMessageCache) BuildKey(conversationID, cursor string, limit int) string {
	return buildKey(c.prefix, conversationID, cursor, limit)
}

func (c *RedisMessageCache) Get(ctx context.Context, key string) (*domain.ChatHistoryResponse, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result domain.ChatHistoryResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

func (c *RedisMessageCache) Set(ctx context.Context, key string, result *domain.ChatHistoryResponse, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}
