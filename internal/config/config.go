package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Widget   WidgetConfig
	SMTP     SMTPConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret   string
	IdentityTTL time.Duration
	RenewalTTL  time.Duration
}

type WidgetConfig struct {
	TokenTTL       time.Duration
	RefreshGrace   time.Duration
	IdleTimeout    time.Duration
	MaxSessions    int64
	EmbedBaseURL   string
	ChatRateLimit  int
	ChatRateWindow time.Duration
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "huggingface"
	LLMModel      string
	OllamaBaseURL string
	HfApiKey      string
	HfBaseURL     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret:   getEnv("JWT_SECRET", ""),
			IdentityTTL: getEnvAsDuration("IDENTITY_TOKEN_TTL", 24*time.Hour),
			RenewalTTL:  getEnvAsDuration("RENEWAL_TOKEN_TTL", 30*24*time.Hour),
		},
		Widget: WidgetConfig{
			TokenTTL:       getEnvAsDuration("WIDGET_TOKEN_TTL", 7*24*time.Hour),
			RefreshGrace:   getEnvAsDuration("WIDGET_REFRESH_GRACE", 24*time.Hour),
			IdleTimeout:    getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			MaxSessions:    int64(getEnvAsInt("MAX_SESSIONS_PER_BOT", 100)),
			EmbedBaseURL:   getEnv("WIDGET_EMBED_BASE_URL", "http://localhost:3000"),
			ChatRateLimit:  getEnvAsInt("WIDGET_CHAT_RATE_LIMIT", 30),
			ChatRateWindow: getEnvAsDuration("WIDGET_CHAT_RATE_WINDOW", time.Minute),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Aidly"),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HfApiKey:      getEnv("HF_API_KEY", ""),
			HfBaseURL:     getEnv("HF_BASE_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
