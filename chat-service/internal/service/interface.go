package service

import (
	"context"
	"errors"

	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/hub"
)

var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrUnauthorized = errors.New("unauthorized")
)

// ChatService interprets the inbound events of one connection. Calls for the
// same connection must be made sequentially, in arrival order.
type ChatService interface {
	HandleLogin(ctx context.Context, conn hub.Conn, ev *domain.LoginEvent) error
	HandleJoin(ctx context.Context, conn hub.Conn, ev *domain.JoinEvent) error
	HandleChatMessage(ctx context.Context, conn hub.Conn, ev *domain.MessageEvent) error
	HandleDisconnect(ctx context.Context, conn hub.Conn) error
	Start(ctx context.Context) error
	Stop() error
}
