package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/cache"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/pkg/conversation"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
	"github.com/zainabubaker/Villages-Management-System/pkg/presence"
	"golang.org/x/sync/singleflight"
)

type chatHistoryServiceImpl struct {
	store     messagestore.Store
	cache     cache.MessageCache
	directory presence.Directory
	cacheTTL  time.Duration
	sf        singleflight.Group
}

func NewChatHistoryService(
	store messagestore.Store,
	msgCache cache.MessageCache,
	directory presence.Directory,
	cacheTTL time.Duration,
) ChatHistoryService {
	if msgCache == nil {
		msgCache = cache.NoopCache{}
	}
	if directory == nil {
		directory = presence.Noop{}
	}
	return &chatHistoryServiceImpl{
		store:     store,
		cache:     msgCache,
		directory: directory,
		cacheTTL:  cacheTTL,
	}
}

func (s *chatHistoryServiceImpl) GetConversationMessages(
	ctx context.Context,
	caller *jwt.Identity,
	conversationID string,
	cursor string,
	limit int,
) (*domain.ChatHistoryResponse, error) {
	a, b, err := conversation.Parse(conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConversation, err)
	}

	if caller == nil {
		return nil, ErrForbidden
	}
	if !caller.IsAdmin() {
		id := conversation.ParticipantID(caller.ParticipantID)
		if id != a && id != b {
			return nil, ErrForbidden
		}
	}

	cacheKey := s.cache.BuildKey(conversationID, cursor, limit)

	// Use singleflight to prevent duplicate requests for the same key
	result, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		return s.fetchWithCache(ctx, conversationID, cursor, limit, cacheKey)
	})
	if err != nil {
		return nil, err
	}

	page, ok := result.(*domain.ChatHistoryResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return page, nil
}

func (s *chatHistoryServiceImpl) fetchWithCache(
	ctx context.Context,
	conversationID string,
	cursor string,
	limit int,
	cacheKey string,
) (*domain.ChatHistoryResponse, error) {
	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, cache.ErrCacheMiss) {
		// Log error but continue to fetch from the store
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache get error")
	}

	page, err := s.store.QueryByConversation(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from store: %w", err)
	}

	result := domain.FromPage(page)

	// The tail page still grows; only full pages are stable.
	if !result.HasMore {
		return result, nil
	}

	// Store in cache (async to avoid blocking response)
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cacheCtx, cacheKey, result, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("cache set error")
		}
	}()

	return result, nil
}

func (s *chatHistoryServiceImpl) IsOnline(ctx context.Context, participantID string) (bool, error) {
	online, err := s.directory.IsOnline(ctx, participantID)
	if err != nil {
		return false, fmt.Errorf("failed to look up presence: %w", err)
	}
	return online, nil
}
