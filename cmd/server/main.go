package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"story-organizer/internal/batch"
	"story-organizer/internal/config"
	"story-organizer/internal/handler"
	"story-organizer/internal/realtime"
	"story-organizer/internal/service"
	"story-organizer/shared/authutils"
	"story-organizer/shared/interfaces"
	sharedLogger "story-organizer/shared/logger"
	"story-organizer/shared/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "story-organizer",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	cfg.LogSummary(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Хранилища ---
	stores, closeStores, err := setupStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up storage", zap.Error(err))
	}
	defer closeStores()

	// --- Кэш историй ---
	var storyCache interfaces.StoryCache
	if cfg.RedisURL != "" {
		redisClient, err := setupRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		storyCache = wrapStoryCache(&stores, redisClient, cfg.StoryCacheTTL, logger)
	}

	// --- События ---
	var hub *realtime.Hub
	if cfg.RealtimeEnabled {
		hub = realtime.NewHub(logger)
		defer hub.Close()
	}

	var handlers messaging.HandlerChain
	bindingKey := messaging.StoryChangesBindingKey
	if storyCache != nil {
		handlers = append(handlers, messaging.NewStoryCacheInvalidator(storyCache, logger))
	}
	if hub != nil {
		handlers = append(handlers, hub)
		bindingKey = messaging.AllContentBindingKey
	}

	var publisher interfaces.ContentEventPublisher
	consuming := false
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()

		contentPublisher, err := messaging.NewRabbitMQContentPublisher(rabbitConn, logger)
		if err != nil {
			logger.Fatal("Failed to create content event publisher", zap.Error(err))
		}
		defer contentPublisher.Close()
		publisher = contentPublisher

		// С потребителем события доходят до кэша и WebSocket через брокер, в том числе от других экземпляров
		if cfg.ContentEventsConsumer && len(handlers) > 0 {
			consumer, err := messaging.NewContentEventConsumer(rabbitConn, bindingKey, handlers, logger)
			if err != nil {
				logger.Fatal("Failed to create content event consumer", zap.Error(err))
			}
			if err := consumer.StartConsuming(ctx); err != nil {
				logger.Fatal("Failed to start content event consumer", zap.Error(err))
			}
			defer consumer.Stop()
			consuming = true
		}
	}
	if hub != nil && !consuming {
		publisher = messaging.NewMultiPublisher(publisher, hub)
	}

	// --- Сервис и HTTP ---
	coordinator := batch.NewCoordinator(batch.Config{
		Concurrency: cfg.BatchConcurrency,
		MaxItems:    cfg.BatchMaxItems,
	}, batch.NewMetrics(prometheus.DefaultRegisterer), logger)

	svc := service.New(service.Deps{
		Stores:      stores,
		Coordinator: coordinator,
		Publisher:   publisher,
		Logger:      logger,
	})

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}
	var wsHandler *realtime.Handler
	if hub != nil {
		wsHandler = realtime.NewHandler(hub, verifier.VerifyToken, cfg.CORSAllowedOrigins, logger)
	}
	router := setupRouter(cfg, handler.NewStoryOrganizerHandler(svc, verifier.VerifyToken, logger), wsHandler, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTTL)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("Story organizer stopped")
}
