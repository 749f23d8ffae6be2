// Package di wires the application's dependencies together.
package di

import (
	"time"

	"chatbot-demo/backend/internal/repository"
	"chatbot-demo/backend/internal/service"
	"chatbot-demo/backend/pkg/logger"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB                  *gorm.DB
	Logger              *logger.Logger
	Store               repository.Store
	ReplySimulator      *service.ReplySimulator
	ConversationService *service.ConversationService
	MessageService      *service.MessageService
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig logger.Config
	ReplyDelay   time.Duration
	BotReply     string
	Greeting     string
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig: logger.DefaultConfig(),
		ReplyDelay:   service.DefaultReplyDelay,
		BotReply:     service.DefaultBotReply,
		Greeting:     service.DefaultGreeting,
	}
}

// New creates a new dependency injection container. The store is built once
// here and injected into every service; nothing else touches the database
// handle directly.
func New(db *gorm.DB, config *Config) *Container {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.New(config.LoggerConfig)

	store := repository.NewGormStore(db)
	simulator := service.NewReplySimulator(store, log, config.ReplyDelay, config.BotReply)
	conversationService := service.NewConversationService(store, log, config.Greeting)
	messageService := service.NewMessageService(store, simulator, log)

	return &Container{
		DB:                  db,
		Logger:              log,
		Store:               store,
		ReplySimulator:      simulator,
		ConversationService: conversationService,
		MessageService:      messageService,
	}
}
