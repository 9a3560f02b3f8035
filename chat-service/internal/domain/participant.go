package domain

import "github.com/zainabubaker/Villages-Management-System/pkg/conversation"

// ParticipantID names one chat participant (an admin or a village user).
type ParticipantID = conversation.ParticipantID

// ConversationID returns the canonical key for the conversation between a
// and b.
func ConversationID(a, b ParticipantID) string {
	return conversation.ID(a, b)
}
