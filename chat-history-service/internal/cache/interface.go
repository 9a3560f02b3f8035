package cache

import (
	"context"
	"time"

	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/domain"
)

type MessageCache interface {
	Get(ctx context.Context, key string) (*domain.ChatHistoryResponse, error)
	Set(ctx context.Context, key string, result *domain.ChatHistoryResponse, ttl time.Duration) error
	BuildKey(conversationID, cursor string, limit int) string
	Close() error
}

// NoopCache always misses. Used when Redis is disabled.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.ChatHistoryResponse, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, *domain.ChatHistoryResponse, time.Duration) error {
	return nil
}

func (NoopCache) BuildKey(conversationID, cursor string, limit int) string {
	return buildKey("noop", conversationID, cursor, limit)
}

func (NoopCache) Close() error { return nil }
