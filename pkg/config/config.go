package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		TrustedProxies []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Bot reply simulation settings
	Bot struct {
		ReplyDelay time.Duration
		Greeting   string
		Reply      string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "3001")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "chatbot")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 25))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 50)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
		instance.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Bot reply simulation
		instance.Bot.ReplyDelay = getEnvDuration("BOT_REPLY_DELAY", 2000*time.Millisecond)
		instance.Bot.Greeting = getEnvString("BOT_GREETING", "How can I help you?")
		instance.Bot.Reply = getEnvString("BOT_REPLY", "This is an AI generated response")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
