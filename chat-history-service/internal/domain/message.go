package domain

import (
	"time"

	"github.com/samber/lo"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
)

// ChatMessage keeps the field names the chat pages read.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

type ChatHistoryResponse struct {
	Messages   []ChatMessage `json:"messages"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

type PresenceResponse struct {
	ParticipantID string `json:"participant_id"`
	Online        bool   `json:"online"`
}

// FromPage maps a store page to the API shape.
func FromPage(page *messagestore.Page) *ChatHistoryResponse {
	return &ChatHistoryResponse{
		Messages: lo.Map(page.Messages, func(m messagestore.Message, _ int) ChatMessage {
			return ChatMessage{
				ID:             m.ID,
				ConversationID: m.ConversationID,
				SenderID:       m.SenderID,
				ReceiverID:     m.ReceiverID,
				Message:        m.Body,
				Timestamp:      m.Timestamp,
			}
		}),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}
