package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chatbot-demo/backend/internal/models"
	"chatbot-demo/backend/pkg/config"
	"chatbot-demo/backend/pkg/di"
	"chatbot-demo/backend/pkg/logger"
	"chatbot-demo/backend/pkg/router"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.Conversation{}, &models.Message{}); err != nil {
		appLog.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create index for ordered history reads
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_conversation_messages ON messages(conversation_id, created_at)").Error; err != nil {
		appLog.LogError(err, "Failed to create message index", "index", "idx_conversation_messages")
	}

	// Initialize dependency injection container
	diConfig := di.DefaultConfig()
	diConfig.LoggerConfig = logConfig
	diConfig.ReplyDelay = cfg.Bot.ReplyDelay
	diConfig.BotReply = cfg.Bot.Reply
	diConfig.Greeting = cfg.Bot.Greeting

	container := di.New(db, diConfig)

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		appLog.Info("Server starting", "port", cfg.Server.Port, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.LogError(err, "Server forced to shutdown")
	}

	// Reply timers still armed at this point are dropped; their messages
	// are an acceptable loss
	if err := config.CloseDB(db); err != nil {
		appLog.LogError(err, "Failed to close database connection")
	}

	appLog.Info("Server exited")
}
