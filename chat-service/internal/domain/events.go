package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
)

// Inbound event types.
const (
	EventLogin   = "login"
	EventJoin    = "join"
	EventMessage = "message"
)

// Outbound frame type.
const MsgTypeMessage = "message"

var ErrMalformedEvent = errors.New("malformed event")

var validate = validator.New()

// Event is one decoded inbound frame.
type Event interface {
	EventType() string
}

// LoginEvent binds the connection to a participant. Token is optional and
// only checked when the server requires it.
type LoginEvent struct {
	UserID ParticipantID `json:"userId" validate:"required,excludes=_"`
	Token  string        `json:"token,omitempty"`
}

// JoinEvent is a UI synchronization signal with no side effect.
type JoinEvent struct {
	UserID         ParticipantID `json:"userId" validate:"required"`
	ConversationID string        `json:"conversationId" validate:"required"`
}

type MessageEvent struct {
	ConversationID string        `json:"conversationId" validate:"required"`
	SenderID       ParticipantID `json:"senderId" validate:"required,excludes=_"`
	ReceiverID     ParticipantID `json:"receiverId" validate:"required,excludes=_,nefield=SenderID"`
	Message        string        `json:"message" validate:"required"`
}

// UnknownEvent carries the type tag of a frame nobody handles.
type UnknownEvent struct {
	Type string
}

func (*LoginEvent) EventType() string   { return EventLogin }
func (*JoinEvent) EventType() string    { return EventJoin }
func (*MessageEvent) EventType() string { return EventMessage }
func (e *UnknownEvent) EventType() string {
	return e.Type
}

// DecodeEvent parses one inbound frame. Only syntax is checked here; use
// Validate for required fields.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var ev Event
	switch envelope.Type {
	case EventLogin:
		ev = &LoginEvent{}
	case EventJoin:
		ev = &JoinEvent{}
	case EventMessage:
		ev = &MessageEvent{}
	default:
		return &UnknownEvent{Type: envelope.Type}, nil
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, envelope.Type, err)
	}
	return ev, nil
}

// Validate checks the required fields of a decoded event.
func Validate(ev Event) error {
	return validate.Struct(ev)
}

// MessagePush is the frame pushed to the receiver and echoed to the sender.
type MessagePush struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewMessagePush(m *messagestore.Message) *MessagePush {
	return &MessagePush{
		Type:           MsgTypeMessage,
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Message:        m.Body,
		Timestamp:      m.Timestamp,
	}
}
