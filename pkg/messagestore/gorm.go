package messagestore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zainabubaker/Villages-Management-System/pkg/database"
)

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID             string    `gorm:"type:varchar(26);primaryKey;index:idx_messages_conversation_id,priority:2"`
	ConversationID string    `gorm:"type:varchar(255);not null;index:idx_messages_conversation_id,priority:1"`
	SenderID       string    `gorm:"type:varchar(128);not null"`
	ReceiverID     string    `gorm:"type:varchar(128);not null"`
	Body           string    `gorm:"type:text;not null"`
	Timestamp      time.Time `gorm:"not null"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

func (m *MessageModel) toDomain() Message {
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Body,
		Timestamp:      m.Timestamp.UTC(),
	}
}

// GormStore persists messages in postgres, mysql or sqlite.
type GormStore struct {
	db  *gorm.DB
	seq *Sequencer
}

// NewGormStore migrates the messages table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := database.AutoMigrate(db, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate messages table: %w", err)
	}
	return &GormStore{db: db, seq: NewSequencer()}, nil
}

func (s *GormStore) Append(ctx context.Context, conversationID, senderID, receiverID, body string) (*Message, error) {
	if err := validateAppend(conversationID, senderID, receiverID, body); err != nil {
		return nil, err
	}

	id, ts := s.seq.Next()
	model := &MessageModel{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		Timestamp:      ts,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	msg := model.toDomain()
	return &msg, nil
}

func (s *GormStore) QueryByConversation(ctx context.Context, conversationID, cursor string, limit int) (*Page, error) {
	if conversationID == "" {
		return nil, ErrInvalidQuery
	}

	q := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC")
	if cursor != "" {
		q = q.Where("id > ?", cursor)
	}
	if n := fetchLimit(limit); n > 0 {
		q = q.Limit(n)
	}

	var models []MessageModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages := make([]Message, 0, len(models))
	for i := range models {
		messages = append(messages, models[i].toDomain())
	}
	return buildPage(messages, limit), nil
}

func (s *GormStore) Close() error {
	return database.Close(s.db)
}
