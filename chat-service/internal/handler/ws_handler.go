package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/config"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/hub"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/service"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqLogger := log.Ctx(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		reqLogger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.wsCfg)

	// The request context ends when this handler returns; the connection
	// outlives it.
	connLogger := reqLogger.With().Str(log.FieldConnID, client.ID()).Logger()
	ctx := log.WithLogger(context.Background(), connLogger)
	connLogger.Info().Msg("connection opened")

	go client.WritePump()
	go func() {
		client.ReadPump(func(c *hub.Client, message []byte) {
			h.handleMessage(ctx, c, message)
		})

		if err := h.service.HandleDisconnect(ctx, client); err != nil {
			connLogger.Error().Err(err).Msg("disconnect handling failed")
		}
		client.Close()
		connLogger.Info().Msg("connection closed")
	}()
}

// handleMessage decodes and dispatches one frame. Nothing here closes the
// connection: bad frames are logged and dropped.
func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := log.Ctx(ctx)

	ev, err := domain.DecodeEvent(message)
	if err != nil {
		l.Warn().Err(err).Int("size", len(message)).Msg("malformed event dropped")
		return
	}

	switch ev := ev.(type) {
	case *domain.LoginEvent:
		err = h.service.HandleLogin(ctx, client, ev)
	case *domain.JoinEvent:
		err = h.service.HandleJoin(ctx, client, ev)
	case *domain.MessageEvent:
		err = h.service.HandleChatMessage(ctx, client, ev)
	case *domain.UnknownEvent:
		l.Warn().Str(log.FieldEventType, ev.Type).Msg("unknown event type dropped")
		return
	}

	if err != nil {
		evt := l.Error()
		if errors.Is(err, service.ErrInvalidEvent) || errors.Is(err, service.ErrUnauthorized) {
			evt = l.Warn()
		}
		evt.Err(err).Str(log.FieldEventType, ev.EventType()).Msg("event dropped")
	}
}

// HandleOnline reports whether a participant holds a connection on this
// instance.
func (h *WSHandler) HandleOnline(w http.ResponseWriter, r *http.Request) {
	participantID := mux.Vars(r)["participant_id"]

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"participant_id": participantID,
		"online":         h.hub.IsOnline(domain.ParticipantID(participantID)),
	})
}

func (h *WSHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": h.hub.Count(),
	})
}

func (h *WSHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chat/ws", h.HandleWebSocket).Methods(http.MethodGet)
	router.HandleFunc("/chat/participants/{participant_id}/online", h.HandleOnline).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
