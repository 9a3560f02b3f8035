package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/domain"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/service"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/middleware"
	"github.com/zainabubaker/Villages-Management-System/pkg/response"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type HTTPHandler struct {
	chatHistoryService service.ChatHistoryService
	auth               *middleware.AuthMiddleware
}

func NewHTTPHandler(chatHistoryService service.ChatHistoryService, auth *middleware.AuthMiddleware) *HTTPHandler {
	return &HTTPHandler{
		chatHistoryService: chatHistoryService,
		auth:               auth,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.auth.RequireAuth())
	{
		api.GET("/conversations/:conversation_id/messages", h.GetMessages)
		api.GET("/participants/:participant_id/presence", h.GetPresence)
	}

	r.GET("/health", h.HealthCheck)
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	cursor := c.Query("cursor")

	limit := defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsedLimit
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	result, err := h.chatHistoryService.GetConversationMessages(
		c.Request.Context(),
		middleware.GetIdentity(c),
		conversationID,
		cursor,
		limit,
	)
	switch {
	case errors.Is(err, service.ErrInvalidConversation):
		response.BadRequest(c, "conversation_id must be two participant ids joined by '_'")
		return
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "not a participant of this conversation")
		return
	case err != nil:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to get chat history")
		response.InternalError(c, "failed to get chat history")
		return
	}

	response.Success(c, result)
}

func (h *HTTPHandler) GetPresence(c *gin.Context) {
	participantID := c.Param("participant_id")

	online, err := h.chatHistoryService.IsOnline(c.Request.Context(), participantID)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str("target_id", participantID).Msg("presence lookup failed")
		response.ServiceUnavailable(c, "presence lookup failed")
		return
	}

	response.Success(c, domain.PresenceResponse{
		ParticipantID: participantID,
		Online:        online,
	})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
