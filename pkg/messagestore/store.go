// Package messagestore is the durable, append-only log of chat messages
// keyed by conversation.
package messagestore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidQuery   = errors.New("conversation id is required")
	ErrInvalidMessage = errors.New("conversation, sender, receiver and body are required")
	ErrStoreClosed    = errors.New("message store is closed")
)

// Message is a persisted chat message. It is never mutated after Append.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Body           string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// Page is one slice of a conversation in ascending timestamp order.
// NextCursor is the ID of the last message in the page; passing it back
// continues right after that message.
type Page struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor"`
	HasMore    bool      `json:"has_more"`
}

// Store is implemented by every backend.
type Store interface {
	// Append persists a new message. Timestamp and ID are assigned by the
	// store, never taken from the client.
	Append(ctx context.Context, conversationID, senderID, receiverID, body string) (*Message, error)

	// QueryByConversation returns messages after cursor ("" = from the
	// start). limit <= 0 returns everything that remains.
	QueryByConversation(ctx context.Context, conversationID, cursor string, limit int) (*Page, error)

	Close() error
}

func validateAppend(conversationID, senderID, receiverID, body string) error {
	if conversationID == "" || senderID == "" || receiverID == "" || body == "" {
		return ErrInvalidMessage
	}
	return nil
}

// fetchLimit returns how many rows to read for a page: limit+1 to learn
// whether more exist, or 0 for unbounded.
func fetchLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	return limit + 1
}

// buildPage trims the extra probe row and sets the cursor.
func buildPage(messages []Message, limit int) *Page {
	hasMore := limit > 0 && len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	if messages == nil {
		messages = []Message{}
	}

	var nextCursor string
	if len(messages) > 0 {
		nextCursor = messages[len(messages)-1].ID
	}

	return &Page{
		Messages:   messages,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
}
