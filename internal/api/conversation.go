// Package api exposes the HTTP surface of the chatbot backend.
package api

import (
	"net/http"

	"chatbot-demo/backend/internal/service"
	apperrors "chatbot-demo/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConversationHandler handles conversation lifecycle endpoints
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// RegisterRoutes registers the conversation routes
func (h *ConversationHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/conversations")
	{
		group.GET("", h.ListConversations)
		group.POST("", h.CreateConversation)
		group.DELETE("/:id", h.DeleteConversation)
		group.GET("/:id/messages", h.GetMessages)
	}
}

// ListConversations returns all conversations newest-first, each with its
// messages nested oldest-first.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	conversations, err := h.conversations.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// CreateConversation creates a new conversation seeded with the bot
// greeting. The seeded message is not included in the response payload.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	conversation, err := h.conversations.Create(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

// DeleteConversation removes a conversation and all of its messages.
// Deleting an unknown conversation is an error, not a no-op.
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.Error(apperrors.NewInvalidArgumentError("INVALID_CONVERSATION_ID", "Conversation id must be a valid UUID"))
		return
	}

	if err := h.conversations.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMessages returns a conversation's messages oldest-first.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.Error(apperrors.NewInvalidArgumentError("INVALID_CONVERSATION_ID", "Conversation id must be a valid UUID"))
		return
	}

	messages, err := h.conversations.Messages(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
