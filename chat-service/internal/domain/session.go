package domain

import (
	"sync"
	"time"
)

// State is the lifecycle of one connection.
type State int

const (
	StateUnidentified State = iota
	StateIdentified
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnidentified:
		return "unidentified"
	case StateIdentified:
		return "identified"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Session struct {
	ID            string
	CreatedAt     time.Time
	LastActiveAt  time.Time
	participantID ParticipantID
	state         State
	mu            sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
		state:        StateUnidentified,
	}
}

// Identify moves the session to StateIdentified under participantID. It
// returns the ID the session was identified with before ("" if none) and
// false when the session is already closed.
func (s *Session) Identify(participantID ParticipantID) (ParticipantID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return "", false
	}

	previous := s.participantID
	s.participantID = participantID
	s.state = StateIdentified
	s.LastActiveAt = time.Now()
	return previous, true
}

// Close marks the session terminal and returns the participant it was
// identified as, if any.
func (s *Session) Close() (ParticipantID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasIdentified := s.state == StateIdentified
	s.state = StateClosed
	return s.participantID, wasIdentified
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) ParticipantID() ParticipantID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participantID
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
