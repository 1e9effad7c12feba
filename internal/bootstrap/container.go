package bootstrap

import (
	"context"
	"log"

	"aidly-widget-be/internal/config"
	"aidly-widget-be/internal/controller"
	"aidly-widget-be/internal/pkg/logger"
	"aidly-widget-be/internal/pkg/mailer"
	"aidly-widget-be/internal/pkg/ratelimit"
	"aidly-widget-be/internal/pkg/token"
	"aidly-widget-be/internal/repository/memory"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/internal/service"
	"aidly-widget-be/pkg/answer"
	"aidly-widget-be/pkg/llm/factory"

	pktNats "aidly-widget-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const auditTopicName = "AUDIT_EVENTS"

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	BotController    controller.IBotController
	WidgetController controller.IWidgetController

	// Shared collaborators main.go and the server need
	TokenManager *token.Manager
	AuditService service.IAuditService
	Logger       logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	if cfg.Auth.JwtSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET must be set")
	}
	tokenManager := token.NewManager(cfg.Auth.JwtSecret, cfg.Auth.IdentityTTL, cfg.Widget.TokenTTL)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
	)

	// 2. Event Bus (in-process audit trail)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	var limiter ratelimit.RateLimiter = ratelimit.NoopRateLimiter{}
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v (rate limiting disabled)", err)
		} else {
			limiter = ratelimit.NewRedisRateLimiter(rdb)
		}
	}

	// Answer engine behind the widget chat path
	var engine answer.Engine
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HfApiKey,
	)
	if err != nil {
		log.Printf("[WARN] Failed to initialize LLM Provider: %v (using static replies)", err)
		engine = answer.StaticEngine{Reply: "I'm warming up, please try again shortly."}
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
		engine = answer.NewLLMEngine(llmProvider)
	}

	botCache := memory.NewBotCache()

	// 3. Services
	auditService := service.NewAuditService(pubSub, auditTopicName, uowFactory, auditLogger)
	authService := service.NewAuthService(uowFactory, tokenManager, cfg.Auth.RenewalTTL, emailService, auditService, natsPub)
	botService := service.NewBotService(uowFactory, botCache, auditService)
	widgetService := service.NewWidgetService(uowFactory, tokenManager, botService, auditService, cfg.Widget.RefreshGrace, cfg.Widget.EmbedBaseURL)
	sessionService := service.NewSessionService(uowFactory, engine, auditService, cfg.Widget.IdleTimeout, cfg.Widget.MaxSessions)

	sysLogger.Info("bootstrap", "container wired", map[string]interface{}{
		"llm_provider": cfg.Ai.LLMProvider,
		"environment":  cfg.App.Environment,
	})

	// 4. Controllers
	return &Container{
		AuthController:   controller.NewAuthController(authService),
		BotController:    controller.NewBotController(botService, sessionService),
		WidgetController: controller.NewWidgetController(widgetService, sessionService, limiter, cfg.Widget.ChatRateLimit, cfg.Widget.ChatRateWindow),
		TokenManager:     tokenManager,
		AuditService:     auditService,
		Logger:           sysLogger,
	}
}
