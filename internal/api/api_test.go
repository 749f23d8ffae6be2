package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatbot-demo/backend/internal/models"
	"chatbot-demo/backend/internal/repository"
	"chatbot-demo/backend/internal/service"
	"chatbot-demo/backend/pkg/errors"
	"chatbot-demo/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testReplyDelay = 30 * time.Millisecond

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Conversation{}, &models.Message{}))

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	store := repository.NewGormStore(db)
	simulator := service.NewReplySimulator(store, log, testReplyDelay, "")
	conversations := service.NewConversationService(store, log, "")
	messages := service.NewMessageService(store, simulator, log)

	engine := gin.New()
	engine.Use(logger.Middleware(log))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	NewConversationHandler(conversations).RegisterRoutes(engine)
	NewMessageHandler(messages).RegisterRoutes(engine)

	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func createConversation(t *testing.T, engine *gin.Engine) models.Conversation {
	t.Helper()

	w := doRequest(t, engine, http.MethodPost, "/conversations", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var conversation models.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conversation))
	require.NotEmpty(t, conversation.ID)
	return conversation
}

func listMessages(t *testing.T, engine *gin.Engine, conversationID string) (int, []models.Message) {
	t.Helper()

	w := doRequest(t, engine, http.MethodGet, fmt.Sprintf("/conversations/%s/messages", conversationID), nil)
	if w.Code != http.StatusOK {
		return w.Code, nil
	}

	var messages []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	return w.Code, messages
}

func TestCreateConversationSeedsGreeting(t *testing.T) {
	engine := newTestRouter(t)

	conversation := createConversation(t, engine)

	// The create payload carries no messages
	w := doRequest(t, engine, http.MethodPost, "/conversations", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "content")

	code, messages := listMessages(t, engine, conversation.ID)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, messages, 1)
	assert.Equal(t, service.DefaultGreeting, messages[0].Content)
	assert.False(t, messages[0].IsFromUser)
}

func TestSendThenPollScenario(t *testing.T) {
	engine := newTestRouter(t)
	conversation := createConversation(t, engine)

	w := doRequest(t, engine, http.MethodPost, "/messages", gin.H{
		"content":        "hello",
		"conversationId": conversation.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var sent models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.True(t, sent.IsFromUser)
	assert.Equal(t, "hello", sent.Content)

	// Immediately after send: seed + user message, reply not yet visible
	code, messages := listMessages(t, engine, conversation.ID)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, messages, 2)
	assert.False(t, messages[0].IsFromUser)
	assert.True(t, messages[1].IsFromUser)

	// After the delay the simulated reply shows up as the last message
	assert.Eventually(t, func() bool {
		_, messages := listMessages(t, engine, conversation.ID)
		return len(messages) == 3
	}, time.Second, 5*time.Millisecond)

	_, messages = listMessages(t, engine, conversation.ID)
	last := messages[len(messages)-1]
	assert.False(t, last.IsFromUser)
	assert.Equal(t, service.DefaultBotReply, last.Content)
}

func TestSendValidation(t *testing.T) {
	engine := newTestRouter(t)
	conversation := createConversation(t, engine)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"empty content", gin.H{"content": "", "conversationId": conversation.ID}, http.StatusBadRequest},
		{"missing content", gin.H{"conversationId": conversation.ID}, http.StatusBadRequest},
		{"malformed conversation id", gin.H{"content": "hi", "conversationId": "nope"}, http.StatusBadRequest},
		{"missing conversation id", gin.H{"content": "hi"}, http.StatusBadRequest},
		{"unknown conversation", gin.H{"content": "hi", "conversationId": uuid.New().String()}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, engine, http.MethodPost, "/messages", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}

	// None of the rejected sends may have persisted anything
	code, messages := listMessages(t, engine, conversation.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, messages, 1)
}

func TestSendWithExplicitIsFromUserFalse(t *testing.T) {
	engine := newTestRouter(t)
	conversation := createConversation(t, engine)

	w := doRequest(t, engine, http.MethodPost, "/messages", gin.H{
		"content":        "manual bot note",
		"conversationId": conversation.ID,
		"isFromUser":     false,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var sent models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.False(t, sent.IsFromUser)

	// No simulated reply for bot-authored sends
	time.Sleep(3 * testReplyDelay)
	_, messages := listMessages(t, engine, conversation.ID)
	assert.Len(t, messages, 2)
}

func TestDeleteConversation(t *testing.T) {
	engine := newTestRouter(t)
	conversation := createConversation(t, engine)

	w := doRequest(t, engine, http.MethodDelete, "/conversations/"+conversation.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	code, _ := listMessages(t, engine, conversation.ID)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteUnknownConversationIs404(t *testing.T) {
	engine := newTestRouter(t)

	w := doRequest(t, engine, http.MethodDelete, "/conversations/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMalformedIDIs400(t *testing.T) {
	engine := newTestRouter(t)

	w := doRequest(t, engine, http.MethodDelete, "/conversations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteBeforeReplyFires(t *testing.T) {
	engine := newTestRouter(t)
	conversation := createConversation(t, engine)

	w := doRequest(t, engine, http.MethodPost, "/messages", gin.H{
		"content":        "hi",
		"conversationId": conversation.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, engine, http.MethodDelete, "/conversations/"+conversation.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The armed reply timer fires into a deleted conversation; the failure
	// is swallowed and nothing reappears
	time.Sleep(3 * testReplyDelay)
	code, _ := listMessages(t, engine, conversation.ID)
	assert.Equal(t, http.StatusNotFound, code)

	w = doRequest(t, engine, http.MethodGet, "/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conversations []models.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conversations))
	assert.Empty(t, conversations)
}

func TestListConversationsNewestFirstWithNestedMessages(t *testing.T) {
	engine := newTestRouter(t)

	older := createConversation(t, engine)
	newer := createConversation(t, engine)

	w := doRequest(t, engine, http.MethodPost, "/messages", gin.H{
		"content":        "hello older",
		"conversationId": older.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, engine, http.MethodGet, "/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var conversations []models.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conversations))
	require.Len(t, conversations, 2)

	assert.Equal(t, newer.ID, conversations[0].ID)
	assert.Equal(t, older.ID, conversations[1].ID)

	require.Len(t, conversations[1].Messages, 2)
	assert.False(t, conversations[1].Messages[0].IsFromUser)
	assert.Equal(t, "hello older", conversations[1].Messages[1].Content)
}
