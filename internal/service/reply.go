package service

import (
	"context"
	"errors"
	"time"

	"chatbot-demo/backend/internal/repository"
	"chatbot-demo/backend/pkg/logger"
	"chatbot-demo/backend/pkg/metrics"
)

// DefaultBotReply is the canned content of every simulated reply.
const DefaultBotReply = "This is an AI generated response"

// DefaultReplyDelay is how long the simulator waits before appending the
// bot reply.
const DefaultReplyDelay = 2000 * time.Millisecond

// ReplySimulator appends a synthetic bot message to a conversation a fixed
// delay after being scheduled. Each Schedule call arms an independent timer;
// there is no cancellation, and nobody waits for the result. If the
// conversation is deleted before the timer fires, the append fails with
// NotFound and the failure is swallowed.
type ReplySimulator struct {
	store repository.Store
	log   *logger.Logger
	delay time.Duration
	reply string
}

// NewReplySimulator creates a reply simulator. Non-positive delay falls back
// to DefaultReplyDelay, empty reply content to DefaultBotReply.
func NewReplySimulator(store repository.Store, log *logger.Logger, delay time.Duration, reply string) *ReplySimulator {
	if delay <= 0 {
		delay = DefaultReplyDelay
	}
	if reply == "" {
		reply = DefaultBotReply
	}
	return &ReplySimulator{
		store: store,
		log:   log.WithComponent("reply_simulator"),
		delay: delay,
		reply: reply,
	}
}

// Schedule arms a timer that appends the bot reply after the configured
// delay. It returns immediately; the append runs detached from any request
// lifetime with a background context.
func (s *ReplySimulator) Schedule(conversationID string) {
	time.AfterFunc(s.delay, func() {
		message, err := s.store.AppendMessage(context.Background(), conversationID, s.reply, false)
		if err != nil {
			// Nobody is waiting for this reply; log and move on. NotFound
			// means the conversation was deleted while the timer was armed.
			if errors.Is(err, repository.ErrConversationNotFound) {
				metrics.ObserveReply("conversation_gone")
				s.log.Info("simulated reply dropped, conversation gone",
					"conversation_id", conversationID,
				)
				return
			}
			metrics.ObserveReply("error")
			s.log.LogError(err, "failed to append simulated reply",
				"conversation_id", conversationID,
			)
			return
		}

		metrics.ObserveReply("delivered")
		s.log.Info("simulated reply stored",
			"conversation_id", conversationID,
			"message_id", message.ID,
		)
	})
}
