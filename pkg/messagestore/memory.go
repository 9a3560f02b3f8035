package messagestore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps conversations in process memory. Used by tests and the
// "memory" driver for local runs; contents vanish on restart.
type MemoryStore struct {
	mu            sync.RWMutex
	seq           *Sequencer
	conversations map[string][]Message
	closed        bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:           NewSequencer(),
		conversations: make(map[string][]Message),
	}
}

func (s *MemoryStore) Append(ctx context.Context, conversationID, senderID, receiverID, body string) (*Message, error) {
	if err := validateAppend(conversationID, senderID, receiverID, body); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	// Sequenced under the write lock so slice order is ID order.
	id, ts := s.seq.Next()
	msg := Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		Timestamp:      ts,
	}
	s.conversations[conversationID] = append(s.conversations[conversationID], msg)

	return &msg, nil
}

func (s *MemoryStore) QueryByConversation(ctx context.Context, conversationID, cursor string, limit int) (*Page, error) {
	if conversationID == "" {
		return nil, ErrInvalidQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	all := s.conversations[conversationID]
	start := 0
	if cursor != "" {
		start = sort.Search(len(all), func(i int) bool { return all[i].ID > cursor })
	}

	rest := all[start:]
	if n := fetchLimit(limit); n > 0 && len(rest) > n {
		rest = rest[:n]
	}

	out := make([]Message, len(rest))
	copy(out, rest)
	return buildPage(out, limit), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
