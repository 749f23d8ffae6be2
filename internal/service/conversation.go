// Package service contains the business logic for conversation lifecycle,
// message sending and the simulated bot reply.
package service

import (
	"context"
	"errors"

	"chatbot-demo/backend/internal/models"
	"chatbot-demo/backend/internal/repository"
	apperrors "chatbot-demo/backend/pkg/errors"
	"chatbot-demo/backend/pkg/logger"
)

// DefaultGreeting is the bot message seeded into every new conversation.
const DefaultGreeting = "How can I help you?"

// ConversationService manages the conversation lifecycle. Every new
// conversation is seeded with an initial bot greeting, so a conversation
// never exists without at least one message.
type ConversationService struct {
	store    repository.Store
	log      *logger.Logger
	greeting string
}

// NewConversationService creates a conversation service. An empty greeting
// falls back to DefaultGreeting.
func NewConversationService(store repository.Store, log *logger.Logger, greeting string) *ConversationService {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &ConversationService{
		store:    store,
		log:      log.WithComponent("conversation_service"),
		greeting: greeting,
	}
}

// Create persists a new conversation and seeds it with the bot greeting.
// The operation is all-or-nothing: if seeding fails, the conversation is
// rolled back and the error returned.
func (s *ConversationService) Create(ctx context.Context) (*models.Conversation, error) {
	conversation, err := s.store.CreateConversation(ctx)
	if err != nil {
		return nil, apperrors.FromError(err)
	}

	if _, err := s.store.AppendMessage(ctx, conversation.ID, s.greeting, false); err != nil {
		if delErr := s.store.DeleteConversation(ctx, conversation.ID); delErr != nil {
			s.log.LogError(delErr, "failed to roll back conversation after seeding failure",
				"conversation_id", conversation.ID,
			)
		}
		return nil, apperrors.FromError(err)
	}

	s.log.Info("conversation created", "conversation_id", conversation.ID)
	return conversation, nil
}

// Delete removes a conversation and all of its messages.
func (s *ConversationService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return apperrors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation does not exist")
		}
		return apperrors.FromError(err)
	}

	s.log.Info("conversation deleted", "conversation_id", id)
	return nil
}

// List returns all conversations newest-first with their messages included.
func (s *ConversationService) List(ctx context.Context) ([]models.Conversation, error) {
	conversations, err := s.store.ListConversationsWithMessages(ctx)
	if err != nil {
		return nil, apperrors.FromError(err)
	}
	return conversations, nil
}

// Messages returns a conversation's messages oldest-first.
func (s *ConversationService) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperrors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation does not exist")
		}
		return nil, apperrors.FromError(err)
	}
	return messages, nil
}
