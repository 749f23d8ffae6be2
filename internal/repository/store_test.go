package repository

import (
	"context"
	"testing"

	"chatbot-demo/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Conversation{}, &models.Message{}))

	return NewGormStore(db)
}

func TestCreateConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conversation, err := store.CreateConversation(ctx)
	require.NoError(t, err)

	_, err = uuid.Parse(conversation.ID)
	assert.NoError(t, err, "conversation id should be a UUID")
	assert.False(t, conversation.CreatedAt.IsZero())
}

func TestListConversationsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateConversation(ctx)
	require.NoError(t, err)
	second, err := store.CreateConversation(ctx)
	require.NoError(t, err)
	third, err := store.CreateConversation(ctx)
	require.NoError(t, err)

	conversations, err := store.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, conversations, 3)

	assert.Equal(t, third.ID, conversations[0].ID)
	assert.Equal(t, second.ID, conversations[1].ID)
	assert.Equal(t, first.ID, conversations[2].ID)
}

func TestListConversationsEmpty(t *testing.T) {
	store := newTestStore(t)

	conversations, err := store.ListConversations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conversations)
}

func TestAppendMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conversation, err := store.CreateConversation(ctx)
	require.NoError(t, err)

	message, err := store.AppendMessage(ctx, conversation.ID, "hello", true)
	require.NoError(t, err)

	assert.Equal(t, conversation.ID, message.ConversationID)
	assert.Equal(t, "hello", message.Content)
	assert.True(t, message.IsFromUser)
	assert.False(t, message.CreatedAt.IsZero())

	messages, err := store.ListMessages(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, message.ID, messages[0].ID)
}

func TestAppendMessageEmptyContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conversation, err := store.CreateConversation(ctx)
	require.NoError(t, err)

	_, err = store.AppendMessage(ctx, conversation.ID, "", true)
	assert.ErrorIs(t, err, ErrEmptyContent)

	messages, err := store.ListMessages(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Empty(t, messages, "nothing should be persisted on validation failure")
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AppendMessage(context.Background(), uuid.New().String(), "hello", true)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListMessagesOrderedOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conversation, err := store.CreateConversation(ctx)
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four"}
	for _, content := range contents {
		_, err := store.AppendMessage(ctx, conversation.ID, content, true)
		require.NoError(t, err)
	}

	messages, err := store.ListMessages(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(contents))

	for i, message := range messages {
		assert.Equal(t, contents[i], message.Content)
		if i > 0 {
			assert.False(t, message.CreatedAt.Before(messages[i-1].CreatedAt),
				"createdAt must be non-decreasing")
			assert.Greater(t, message.Seq, messages[i-1].Seq,
				"seq must preserve arrival order")
		}
	}
}

func TestListMessagesUnknownConversation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ListMessages(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestDeleteConversationCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conversation, err := store.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, conversation.ID, "hello", true)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, conversation.ID, "world", false)
	require.NoError(t, err)

	require.NoError(t, store.DeleteConversation(ctx, conversation.ID))

	_, err = store.ListMessages(ctx, conversation.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	var count int64
	require.NoError(t, store.db.Model(&models.Message{}).
		Where("conversation_id = ?", conversation.ID).
		Count(&count).Error)
	assert.Zero(t, count, "messages must be removed with their conversation")
}

func TestDeleteConversationNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteConversation(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestDeleteConversationLeavesOthersIntact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keep, err := store.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, keep.ID, "staying", true)
	require.NoError(t, err)

	drop, err := store.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, drop.ID, "going", true)
	require.NoError(t, err)

	require.NoError(t, store.DeleteConversation(ctx, drop.ID))

	messages, err := store.ListMessages(ctx, keep.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "staying", messages[0].Content)
}

func TestListConversationsWithMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older, err := store.CreateConversation(ctx)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, older.ID, "first", false)
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, older.ID, "second", true)
	require.NoError(t, err)

	newer, err := store.CreateConversation(ctx)
	require.NoError(t, err)

	conversations, err := store.ListConversationsWithMessages(ctx)
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	assert.Equal(t, newer.ID, conversations[0].ID)
	assert.Equal(t, older.ID, conversations[1].ID)

	require.Len(t, conversations[1].Messages, 2)
	assert.Equal(t, "first", conversations[1].Messages[0].Content)
	assert.Equal(t, "second", conversations[1].Messages[1].Content)
}
