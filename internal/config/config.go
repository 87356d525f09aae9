package config

import (
	"fmt"
	"strings"
	"time"

	"story-organizer/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Драйверы хранилища.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config конфигурация сервиса органайзера историй.
type Config struct {
	// Настройки сервера
	Port        string        `envconfig:"SERVER_PORT" default:"8080"`
	Env         string        `envconfig:"ENV" default:"development"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string        `envconfig:"LOG_ENCODING" default:"json"`
	ShutdownTTL time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"story_organizer"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	RunMigrations bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	// Секрет без envconfig тега
	DBPassword string `ignored:"true"`

	// Кэш историй в Redis; пустой URL отключает кэш
	RedisURL      string        `envconfig:"REDIS_URL"`
	StoryCacheTTL time.Duration `envconfig:"STORY_CACHE_TTL" default:"5m"`

	// RabbitMQ; пустой URL отключает события
	RabbitMQURL           string `envconfig:"RABBITMQ_URL"`
	ContentEventsConsumer bool   `envconfig:"CONTENT_EVENTS_CONSUMER" default:"false"`

	// Поток изменений контента владельцу по WebSocket
	RealtimeEnabled bool `envconfig:"REALTIME_ENABLED" default:"true"`

	BatchConcurrency int `envconfig:"BATCH_CONCURRENCY" default:"1"`
	BatchMaxItems    int `envconfig:"BATCH_MAX_ITEMS" default:"500"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Секрет без envconfig тега
	JWTSecret string `ignored:"true"`
}

// GetDSN строка подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency)
	}
	if c.BatchMaxItems < 0 {
		return fmt.Errorf("BATCH_MAX_ITEMS must not be negative, got %d", c.BatchMaxItems)
	}
	if c.ContentEventsConsumer && c.RabbitMQURL == "" {
		return fmt.Errorf("CONTENT_EVENTS_CONSUMER requires RABBITMQ_URL")
	}
	return nil
}

// LoadConfig читает .env (если есть), переменные окружения и секреты.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load story-organizer config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)

	var err error
	cfg.JWTSecret, err = utils.ReadSecret("jwt_secret", "JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if cfg.StorageDriver == StorageDriverPostgres {
		cfg.DBPassword, err = utils.ReadSecret("db_password", "DB_PASSWORD")
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LogSummary печатает конфигурацию без секретов.
func (c *Config) LogSummary(logger *zap.Logger) {
	logger.Info("Configuration loaded",
		zap.String("port", c.Port),
		zap.String("env", c.Env),
		zap.String("storageDriver", c.StorageDriver),
		zap.String("db", fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)),
		zap.Bool("runMigrations", c.RunMigrations),
		zap.Bool("redisCache", c.RedisURL != ""),
		zap.Duration("storyCacheTTL", c.StoryCacheTTL),
		zap.Bool("rabbitmq", c.RabbitMQURL != ""),
		zap.Bool("realtime", c.RealtimeEnabled),
		zap.Int("batchConcurrency", c.BatchConcurrency),
		zap.Int("batchMaxItems", c.BatchMaxItems),
		zap.Strings("corsAllowedOrigins", c.CORSAllowedOrigins),
	)
}
