package service

import (
	"context"
	"errors"

	"chatbot-demo/backend/internal/models"
	"chatbot-demo/backend/internal/repository"
	apperrors "chatbot-demo/backend/pkg/errors"
	"chatbot-demo/backend/pkg/logger"

	"github.com/google/uuid"
)

// SendInput carries a validated-on-entry message send request.
type SendInput struct {
	ConversationID string
	Content        string
	IsFromUser     bool
}

// MessageService validates and appends messages. A user-authored send also
// schedules the simulated bot reply; the caller never waits for it.
type MessageService struct {
	store     repository.Store
	simulator *ReplySimulator
	log       *logger.Logger
}

// NewMessageService creates a message service.
func NewMessageService(store repository.Store, simulator *ReplySimulator, log *logger.Logger) *MessageService {
	return &MessageService{
		store:     store,
		simulator: simulator,
		log:       log.WithComponent("message_service"),
	}
}

// validateSend checks a send request before any mutation. It returns nil
// when the input is acceptable and a typed InvalidArgument error otherwise.
func validateSend(in SendInput) *apperrors.AppError {
	if len(in.Content) < 1 {
		return apperrors.NewInvalidArgumentError("EMPTY_CONTENT", "Message content must not be empty")
	}
	if _, err := uuid.Parse(in.ConversationID); err != nil {
		return apperrors.NewInvalidArgumentError("INVALID_CONVERSATION_ID", "Conversation id must be a valid UUID")
	}
	return nil
}

// Send persists the message exactly as authored and, for user-authored
// messages only, schedules a simulated bot reply — a bot-authored send is
// stored without one. The returned message is the one just persisted; the
// reply is not awaited and not reflected in the return value.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*models.Message, error) {
	if verr := validateSend(in); verr != nil {
		return nil, verr
	}

	message, err := s.store.AppendMessage(ctx, in.ConversationID, in.Content, in.IsFromUser)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperrors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation does not exist")
		}
		if errors.Is(err, repository.ErrEmptyContent) {
			return nil, apperrors.NewInvalidArgumentError("EMPTY_CONTENT", "Message content must not be empty")
		}
		return nil, apperrors.FromError(err)
	}

	if message.IsFromUser {
		s.simulator.Schedule(in.ConversationID)
	}

	s.log.Info("message stored",
		"conversation_id", message.ConversationID,
		"message_id", message.ID,
		"from_user", message.IsFromUser,
	)
	return message, nil
}
