package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/audit"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/hub"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/kafka"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
	"github.com/zainabubaker/Villages-Management-System/pkg/presence"
)

// Options tunes the dispatcher.
type Options struct {
	// RequireLoginToken makes login events carry a bearer token whose
	// subject matches userId.
	RequireLoginToken bool
	// HandleTimeout bounds each store and presence call.
	HandleTimeout time.Duration
}

type chatService struct {
	hub       *hub.Hub
	store     messagestore.Store
	producer  kafka.MessageProducer
	directory presence.Directory
	resolver  jwt.Resolver
	opts      Options
}

func NewChatService(
	h *hub.Hub,
	store messagestore.Store,
	producer kafka.MessageProducer,
	directory presence.Directory,
	resolver jwt.Resolver,
	opts Options,
) ChatService {
	if producer == nil {
		producer = kafka.NoopProducer{}
	}
	if directory == nil {
		directory = presence.Noop{}
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = 5 * time.Second
	}

	return &chatService{
		hub:       h,
		store:     store,
		producer:  producer,
		directory: directory,
		resolver:  resolver,
		opts:      opts,
	}
}

func (s *chatService) HandleLogin(ctx context.Context, c hub.Conn, ev *domain.LoginEvent) error {
	l := log.Ctx(ctx)

	if err := domain.Validate(ev); err != nil {
		l.Warn().Err(err).Msg("login dropped: invalid userId")
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if s.opts.RequireLoginToken {
		if err := s.verifyToken(ev); err != nil {
			audit.Log(ctx, audit.ActionLoginFailed, ev.UserID.String(), "login rejected")
			return err
		}
	}

	previous, ok := c.Session().Identify(ev.UserID)
	if !ok {
		return hub.ErrConnClosed
	}

	// Re-login under another identity on the same connection.
	if previous != "" && previous != ev.UserID {
		if s.hub.Release(previous, c) {
			s.withdraw(ctx, previous)
		}
	}

	if replaced := s.hub.Register(ev.UserID, c); replaced != nil && replaced != c {
		l.Info().
			Str(log.FieldParticipantID, ev.UserID.String()).
			Str("replaced_conn_id", replaced.ID()).
			Msg("login superseded an older connection")
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.HandleTimeout)
	defer cancel()
	if err := s.directory.Announce(pctx, ev.UserID.String()); err != nil {
		l.Error().Err(err).Str(log.FieldParticipantID, ev.UserID.String()).Msg("failed to announce presence")
	}

	audit.Log(ctx, audit.ActionLogin, ev.UserID.String(), "participant logged in")
	return nil
}

func (s *chatService) verifyToken(ev *domain.LoginEvent) error {
	if ev.Token == "" || s.resolver == nil {
		return fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	identity, err := s.resolver.Resolve(ev.Token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if identity.ParticipantID != ev.UserID.String() {
		return fmt.Errorf("%w: token subject does not match userId", ErrUnauthorized)
	}
	return nil
}

func (s *chatService) HandleJoin(ctx context.Context, c hub.Conn, ev *domain.JoinEvent) error {
	if err := domain.Validate(ev); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldParticipantID, ev.UserID.String()).
		Str(log.FieldConversationID, ev.ConversationID).
		Msg("participant joined conversation")

	audit.LogWithDetail(ctx, audit.ActionJoin, ev.UserID.String(), ev.ConversationID, "participant joined conversation")
	return nil
}

func (s *chatService) HandleChatMessage(ctx context.Context, c hub.Conn, ev *domain.MessageEvent) error {
	l := log.Ctx(ctx)

	if err := domain.Validate(ev); err != nil {
		l.Warn().Err(err).Msg("message dropped: missing or invalid fields")
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if s.opts.RequireLoginToken && c.Session().ParticipantID() != ev.SenderID {
		l.Warn().Str(log.FieldSenderID, ev.SenderID.String()).Msg("message dropped: sender is not the logged-in participant")
		return fmt.Errorf("%w: sender is not the logged-in participant", ErrUnauthorized)
	}

	conversationID := domain.ConversationID(ev.SenderID, ev.ReceiverID)
	if ev.ConversationID != conversationID {
		l.Warn().
			Str("client_conversation_id", ev.ConversationID).
			Str(log.FieldConversationID, conversationID).
			Msg("client conversation id replaced")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.HandleTimeout)
	msg, err := s.store.Append(storeCtx, conversationID, ev.SenderID.String(), ev.ReceiverID.String(), ev.Message)
	cancel()
	if err != nil {
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to persist message")
		return fmt.Errorf("failed to persist message: %w", err)
	}

	frame, err := json.Marshal(domain.NewMessagePush(msg))
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if receiver, ok := s.hub.Lookup(ev.ReceiverID); ok && receiver != c {
		if err := receiver.Push(frame); err != nil {
			l.Debug().Err(err).Str(log.FieldReceiverID, ev.ReceiverID.String()).Msg("push to receiver skipped")
		}
	}

	// The sender always gets the canonical record back.
	if err := c.Push(frame); err != nil {
		l.Debug().Err(err).Str(log.FieldSenderID, ev.SenderID.String()).Msg("echo to sender skipped")
	}

	if err := s.producer.ProduceMessage(ctx, msg); err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to publish message")
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, msg.SenderID, conversationID, "message sent")
	return nil
}

func (s *chatService) HandleDisconnect(ctx context.Context, c hub.Conn) error {
	participantID, wasIdentified := c.Session().Close()
	if !wasIdentified {
		return nil
	}

	if s.hub.Release(participantID, c) {
		s.withdraw(ctx, participantID)
	}

	audit.Log(ctx, audit.ActionDisconnect, participantID.String(), "participant disconnected")
	return nil
}

func (s *chatService) withdraw(ctx context.Context, participantID domain.ParticipantID) {
	pctx, cancel := context.WithTimeout(ctx, s.opts.HandleTimeout)
	defer cancel()

	if err := s.directory.Withdraw(pctx, participantID.String()); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldParticipantID, participantID.String()).Msg("failed to withdraw presence")
	}
}

func (s *chatService) Start(ctx context.Context) error {
	if err := s.directory.StartHeartbeat(ctx); err != nil {
		return fmt.Errorf("failed to start presence heartbeat: %w", err)
	}
	l := log.L()
	l.Info().Msg("chat service started")
	return nil
}

func (s *chatService) Stop() error {
	s.directory.StopHeartbeat()
	if err := s.producer.Close(); err != nil {
		l := log.L()
		l.Error().Err(err).Msg("failed to close kafka producer")
	}
	return nil
}
