package service

import (
	"context"
	"errors"

	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
)

var (
	ErrInvalidConversation = errors.New("invalid conversation id")
	ErrForbidden           = errors.New("caller is not a participant of this conversation")
)

type ChatHistoryService interface {
	// GetConversationMessages returns one page of a conversation, oldest
	// first. Only the two participants and admins may read it.
	GetConversationMessages(
		ctx context.Context,
		caller *jwt.Identity,
		conversationID string,
		cursor string,
		limit int,
	) (*domain.ChatHistoryResponse, error)

	IsOnline(ctx context.Context, participantID string) (bool, error)
}
