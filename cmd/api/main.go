package main

import (
	"context"
	"log"

	"uniform-studio/config"
	"uniform-studio/internal/events"
	"uniform-studio/internal/gateway"
	"uniform-studio/internal/handler"
	"uniform-studio/internal/middleware"
	"uniform-studio/internal/proxy"
	"uniform-studio/internal/redis"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/server"
	"uniform-studio/internal/services"
	"uniform-studio/internal/storage"
	"uniform-studio/internal/websocket"
	"uniform-studio/pkg/database"
	"uniform-studio/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close(db)

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	checks := []server.HealthCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}}

	var (
		bus     events.Bus
		cache   services.RateCache
		limiter middleware.Limiter
	)
	resolver := events.NewRoomChannelResolver()
	if cfg.EventBusMode == "memory" {
		l.Logger.Info("using in-process event bus; rate limiting and rate cache disabled")
		bus = events.NewMemoryEventBus(resolver)
	} else {
		redis.Initialize(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rc := redis.GetClient()
		if err := redis.HealthCheck(ctx, rc); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rc.Close()

		bus = events.NewRedisEventBus(rc, resolver, l)
		cache = redis.NewCacheStore(rc, redis.CacheConfig{ServiceRateTTL: cfg.ServiceRateTTL})
		limiter = redis.NewRateLimiter(rc, redis.RateLimitConfig{
			MessageLimit:  cfg.MessageRateLimit,
			MessageWindow: cfg.MessageRateWindow,
			AuthLimit:     cfg.AuthRateLimit,
			AuthWindow:    cfg.AuthRateWindow,
		})
		checks = append(checks, server.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redis.HealthCheck(ctx, rc) },
		})
	}
	defer bus.Close()

	var uploads services.ImagePresigner
	if s3c, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
		PresignTTL: cfg.S3PresignTTL,
	}); err != nil {
		l.Warnf("image uploads disabled: %v", err)
	} else {
		uploads = s3c
	}

	gw, err := gateway.New(l, gateway.Config{
		BaseURL: cfg.PaymentGatewayURL,
		APIKey:  cfg.PaymentGatewayKey,
		Timeout: cfg.PaymentTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to configure payment gateway: %v", err)
	}

	schoolRepo := repository.NewSchoolRepository(db)
	requestRepo := repository.NewDesignRequestRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	access := proxy.NewAccessControl(requestRepo)

	authService := services.NewAuthService(schoolRepo, cfg)
	configService := services.NewConfigService(repository.NewConfigRepository(db), cache, services.FeeScheduleFromConfig(cfg), l)
	paymentService := services.NewPaymentService(db,
		repository.NewPaymentRepository(db),
		repository.NewWalletRepository(db),
		configService, gw, bus,
		services.PaymentConfig{ReturnBase: cfg.PaymentReturnBase, CallbackSecret: cfg.PaymentCallbackSecret},
		l,
	)
	workflowService := services.NewWorkflowService(db, requestRepo, deliveryRepo, access, paymentService, bus, l)
	chatService := services.NewChatService(db,
		repository.NewMessageRepository(db),
		repository.NewChatRoomRepository(db),
		access, workflowService, uploads, bus, l,
	)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Chat:    handler.NewChatHandler(chatService),
		Design:  handler.NewDesignHandler(workflowService),
		Payment: handler.NewPaymentHandler(paymentService),
		Socket:  websocket.NewHandler(authService, chatService, hub, l, cfg.CORSOrigins),
	}, authService, limiter, checks...)

	if err := srv.Start(); err != nil {
		l.Logger.Error("server stopped with error", zap.Error(err))
	}
}
