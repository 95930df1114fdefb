package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"supportdesk/internal/backend"
	"supportdesk/internal/cache"
	"supportdesk/internal/config"
	"supportdesk/internal/controllers"
	"supportdesk/internal/handlers"
	"supportdesk/internal/logger"
	"supportdesk/internal/middleware"
	"supportdesk/internal/observability"
	"supportdesk/internal/rabbitmq"
	"supportdesk/internal/repositories"
	"supportdesk/internal/telemetry"
	"supportdesk/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.Init(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.OTLPEndpoint, "supportdesk", cfg.Environment)
	if err != nil {
		zlog.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	client, err := backend.ConnectPostgres(cfg.DatabaseDSN, []byte(cfg.JWTSecret), cfg.BlobBaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to backend", zap.Error(err))
	}
	defer client.Close()

	var store cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			zlog.Warn("redis unavailable, using in-memory cache", zap.Error(err))
			store = cache.NewMemory()
		} else {
			store = redisCache
		}
	} else {
		store = cache.NewMemory()
	}
	defer store.Close()
	snapshots := cache.NewSnapshots(store, cfg.ConversationCacheTTL)

	conversationRepo := repositories.NewConversationRepo(client)
	messageRepo := repositories.NewMessageRepo(client, conversationRepo)
	profileRepo := repositories.NewProfileRepo(client)
	companyRepo := repositories.NewCompanyRepo(client)
	notificationRepo := repositories.NewNotificationRepo(client)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	zlog.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)))
	audit := telemetry.NewAuditEmitter(publisher, "audit.supportdesk", "supportdesk", cfg.Environment)

	if wsPublisher, perr := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); perr == nil {
		observability.SetPublisher(wsPublisher)
		defer wsPublisher.Close()
	} else {
		zlog.Info("ws event publishing disabled", zap.Error(perr))
	}

	hub := ws.NewHub()

	// Server-side realtime feed: every stored message reaches the open
	// websocket rooms, whichever path created it.
	feed := client.Subscribe(backend.TableMessages, nil, func(row backend.Row) {
		hub.BroadcastMessage(repositories.MessageFromRow(row))
	})
	defer feed.Unsubscribe()

	listController := controllers.NewConversationListController(conversationRepo, snapshots)

	conversationHandler := handlers.NewConversationHandler(conversationRepo, notificationRepo, listController, hub, audit)
	messageHandler := handlers.NewMessageHandler(conversationRepo, messageRepo, snapshots, hub, audit)
	companyHandler := handlers.NewCompanyHandler(companyRepo, client)
	webhookHandler := handlers.NewWebhookHandler(companyRepo, profileRepo, conversationRepo, messageRepo, notificationRepo, listController, hub, cfg.WebhookVerifyToken)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	uploadHandler := handlers.NewUploadHandler(client, cfg.MaxUploadBytes)
	healthHandler := handlers.NewHealthHandler(client)

	conversationWS := ws.NewConversationSocketHandler(hub, conversationRepo, client)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("supportdesk"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(client)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.POST("/conversations/start", authMiddleware, conversationHandler.StartConversation)
	router.POST("/conversations/groups", authMiddleware, conversationHandler.CreateGroup)
	router.POST("/conversations/:conversation_id/transfer", authMiddleware, conversationHandler.TransferConversation)
	router.POST("/conversations/:conversation_id/status", authMiddleware, conversationHandler.UpdateConversationStatus)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, messageHandler.PostMessage)

	router.GET("/notifications", authMiddleware, notificationHandler.ListNotifications)
	router.POST("/notifications/:notification_id/read", authMiddleware, notificationHandler.MarkNotificationRead)

	router.GET("/companies", authMiddleware, companyHandler.ListCompanies)
	router.POST("/companies", authMiddleware, companyHandler.CreateCompany)
	router.PUT("/companies/:company_id", authMiddleware, companyHandler.UpdateCompany)
	router.DELETE("/companies/:company_id", authMiddleware, companyHandler.DeleteCompany)
	router.POST("/companies/:company_id/check", authMiddleware, companyHandler.CheckCompany)

	router.GET("/webhook", webhookHandler.Verify)
	router.POST("/webhook", webhookHandler.Receive)

	router.POST("/uploads", authMiddleware, uploadHandler.Upload)
	router.GET("/files/:bucket/:name", uploadHandler.Serve)

	router.GET("/ws/conversations/:conversation_id", conversationWS.Handle)

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/readyz", healthHandler.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, cfg.Environment != "production")

	zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := router.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
