package messagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds the embedded store settings.
type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// BadgerStore keeps messages in an embedded badger database under keys
// "msg:{len(conversation)}:{conversation}:{ulid}". The length makes one
// conversation's prefix never match another's keys. ULIDs sort
// lexicographically in time order, so a forward prefix scan yields the
// conversation in timestamp order.
type BadgerStore struct {
	db  *badger.DB
	seq *Sequencer
}

func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.WARNING)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db, seq: NewSequencer()}, nil
}

func conversationPrefix(conversationID string) []byte {
	return []byte("msg:" + strconv.Itoa(len(conversationID)) + ":" + conversationID + ":")
}

func (s *BadgerStore) Append(ctx context.Context, conversationID, senderID, receiverID, body string) (*Message, error) {
	if err := validateAppend(conversationID, senderID, receiverID, body); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, ts := s.seq.Next()
	msg := Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		Timestamp:      ts,
	}

	value, err := json.Marshal(&msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	key := append(conversationPrefix(conversationID), id...)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return &msg, nil
}

func (s *BadgerStore) QueryByConversation(ctx context.Context, conversationID, cursor string, limit int) (*Page, error) {
	if conversationID == "" {
		return nil, ErrInvalidQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := conversationPrefix(conversationID)
	want := fetchLimit(limit)
	var messages []Message

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if cursor != "" {
			seek = append(append([]byte{}, prefix...), cursor...)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if cursor != "" && string(item.Key()[len(prefix):]) <= cursor {
				continue
			}

			var msg Message
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			})
			if err != nil {
				return err
			}
			if msg.ConversationID != conversationID {
				continue
			}
			messages = append(messages, msg)

			if want > 0 && len(messages) == want {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	return buildPage(messages, limit), nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
