package api

import (
	"net/http"

	"chatbot-demo/backend/internal/service"
	apperrors "chatbot-demo/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// sendMessageRequest is the POST /messages body. IsFromUser is optional and
// defaults to true. The flag is honored as sent: a message posted with
// isFromUser=false is persisted as bot-authored and does not trigger a
// simulated reply.
type sendMessageRequest struct {
	Content        string `json:"content" binding:"required"`
	ConversationID string `json:"conversationId" binding:"required"`
	IsFromUser     *bool  `json:"isFromUser"`
}

// MessageHandler handles message endpoints
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// RegisterRoutes registers the message routes
func (h *MessageHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/messages", h.SendMessage)
}

// SendMessage validates and appends a message, scheduling the simulated bot
// reply for user-authored sends. The response carries only the message just
// persisted; the reply arrives later through polling.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidArgumentError("INVALID_REQUEST", "Request body is malformed").WithDetails(err.Error()))
		return
	}

	isFromUser := true
	if req.IsFromUser != nil {
		isFromUser = *req.IsFromUser
	}

	message, err := h.messages.Send(c.Request.Context(), service.SendInput{
		ConversationID: req.ConversationID,
		Content:        req.Content,
		IsFromUser:     isFromUser,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}
