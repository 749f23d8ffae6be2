// Package repository implements durable storage for conversations and
// messages on top of GORM.
package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"chatbot-demo/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors returned by the store. Callers translate these into
// transport-level errors; raw GORM errors never leave this package.
var (
	// ErrConversationNotFound is returned when a referenced conversation
	// does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrEmptyContent is returned when a message is appended with empty
	// content.
	ErrEmptyContent = errors.New("message content must not be empty")
)

// Store is the persistence interface for conversations and messages.
// It is the sole owner of identity and ordering: ids and timestamps are
// generated here, and every listing honors the documented order.
type Store interface {
	// ListConversations returns all conversations, newest-created-first.
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	// ListConversationsWithMessages returns all conversations newest-first,
	// each with its messages preloaded oldest-first.
	ListConversationsWithMessages(ctx context.Context) ([]models.Conversation, error)
	// CreateConversation persists a new conversation with a fresh id.
	CreateConversation(ctx context.Context) (*models.Conversation, error)
	// DeleteConversation removes a conversation and all of its messages.
	// Returns ErrConversationNotFound if no such conversation exists.
	DeleteConversation(ctx context.Context, id string) error
	// ListMessages returns a conversation's messages oldest-first.
	// Returns ErrConversationNotFound if the conversation does not exist.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// AppendMessage persists a message at the end of a conversation.
	// Returns ErrConversationNotFound if the conversation does not exist
	// and ErrEmptyContent if content is empty.
	AppendMessage(ctx context.Context, conversationID, content string, isFromUser bool) (*models.Message, error)
}

// GormStore is the GORM-backed Store implementation.
type GormStore struct {
	db *gorm.DB

	// seq increases monotonically per process; combined with CreatedAt it
	// keeps same-instant appends in arrival order.
	seq atomic.Int64
}

// NewGormStore creates a new store backed by the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// messageOrder is the canonical within-conversation ordering.
const messageOrder = "created_at ASC, seq ASC"

func (s *GormStore) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (s *GormStore) ListConversationsWithMessages(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order(messageOrder)
		}).
		Order("created_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (s *GormStore) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	conversation := &models.Conversation{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *GormStore) DeleteConversation(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Conversation{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
}

func (s *GormStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if err := s.conversationExists(ctx, s.db, conversationID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order(messageOrder).
		Find(&messages).Error
	return messages, err
}

func (s *GormStore) AppendMessage(ctx context.Context, conversationID, content string, isFromUser bool) (*models.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	message := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Content:        content,
		IsFromUser:     isFromUser,
		CreatedAt:      time.Now().UTC(),
		Seq:            s.seq.Add(1),
	}

	// The existence check and the insert share one transaction so a
	// concurrent delete cannot leave an orphaned message behind.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.conversationExists(ctx, tx, conversationID); err != nil {
			return err
		}
		return tx.Create(message).Error
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *GormStore) conversationExists(ctx context.Context, db *gorm.DB, id string) error {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}
