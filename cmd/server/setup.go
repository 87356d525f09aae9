package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"story-organizer/internal/config"
	"story-organizer/internal/handler"
	"story-organizer/internal/realtime"
	"story-organizer/pkg/migration"
	"story-organizer/shared/database"
	"story-organizer/shared/database/memory"
	"story-organizer/shared/database/migrations"
	"story-organizer/shared/interfaces"
	sharedMiddleware "story-organizer/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// setupStores создает хранилища выбранного драйвера. Для postgres применяет миграции, если включено.
func setupStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.Stores, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStores().Interfaces(), func() {}, nil
	}

	pool, err := setupDatabase(ctx, cfg)
	if err != nil {
		return interfaces.Stores{}, nil, err
	}
	logger.Info("Connected to PostgreSQL")

	if cfg.RunMigrations {
		migrator := migration.NewMigrator(migration.Config{MigrationsPath: ".", MigrationsFS: migrations.FS}, pool, logger)
		version, err := migrator.Up(ctx)
		if err != nil {
			pool.Close()
			return interfaces.Stores{}, nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("Database schema ready", zap.Uint("version", version))
	}
	return database.NewPgStores(pool, logger), pool.Close, nil
}

// setupDatabase инициализирует пул соединений с БД.
func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// setupRedis подключается к Redis с повторными попытками.
func setupRedis(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	maxRetries := 5
	retryDelay := 3 * time.Second
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("Connected to Redis", zap.String("addr", opts.Addr), zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying", zap.Int("attempt", attempt), zap.Int("max_attempts", maxRetries), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("unable to ping redis after %d attempts: %w", maxRetries, lastErr)
}

// wrapStoryCache подменяет хранилище историй кэширующим декоратором.
func wrapStoryCache(stores *interfaces.Stores, client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.StoryCache {
	cache := database.NewRedisStoryCache(client, ttl, logger)
	stores.Stories = database.NewCachedStoryStore(stores.Stories, cache, logger)
	return cache
}

// connectRabbitMQ подключается к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info("Connected to RabbitMQ")
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}

// setupRouter собирает gin: логирование, recovery, CORS, /health, маршруты API и /metrics.
// ws может быть nil, если поток событий выключен.
func setupRouter(cfg *config.Config, h *handler.StoryOrganizerHandler, ws *realtime.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", sharedMiddleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Prometheus до регистрации маршрутов: middleware gin применяется только к маршрутам, добавленным после Use
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router)
	if ws != nil {
		// Токен проверяет сам обработчик: браузер передает его в query
		router.GET("/api/v1/events/ws", ws.ServeWS)
	}

	return router
}
