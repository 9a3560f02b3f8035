package hub

import (
	"sync"

	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
)

// Conn is a live outbound transport for one participant.
type Conn interface {
	ID() string
	Session() *domain.Session
	// Push queues data for delivery without blocking.
	Push(data []byte) error
}

// Hub maps participant IDs to their current connection. At most one
// connection is registered per participant; a later login replaces it.
type Hub struct {
	conns map[domain.ParticipantID]Conn
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[domain.ParticipantID]Conn),
	}
}

// Register binds participantID to conn and returns the connection it
// replaced, if any. The replaced connection is left open.
func (h *Hub) Register(participantID domain.ParticipantID, conn Conn) Conn {
	h.mu.Lock()
	previous := h.conns[participantID]
	h.conns[participantID] = conn
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldParticipantID, participantID.String()).Str(log.FieldConnID, conn.ID()).Msg("participant registered")
	return previous
}

func (h *Hub) Lookup(participantID domain.ParticipantID) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[participantID]
	return conn, ok
}

// Unregister removes participantID. Removing an absent participant is a no-op.
func (h *Hub) Unregister(participantID domain.ParticipantID) {
	h.mu.Lock()
	delete(h.conns, participantID)
	h.mu.Unlock()
}

// Release removes participantID only while it is still bound to conn, so a
// connection closing after its participant logged in elsewhere leaves the
// newer binding alone.
func (h *Hub) Release(participantID domain.ParticipantID, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.conns[participantID]
	if !ok || current != conn {
		return false
	}
	delete(h.conns, participantID)
	return true
}

func (h *Hub) IsOnline(participantID domain.ParticipantID) bool {
	_, ok := h.Lookup(participantID)
	return ok
}

// Count returns the number of registered participants.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
