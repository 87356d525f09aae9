package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	defaultTable       = "schema_migrations"
	defaultLockTimeout = 30 * time.Second
)

// ErrDirty возвращается, если предыдущая миграция упала на середине и требует ForceVersion.
var ErrDirty = errors.New("database schema is dirty")

// Config настройки источника миграций.
type Config struct {
	// MigrationsFS файлы вида 000001_name.up.sql / .down.sql
	MigrationsFS fs.FS
	// MigrationsPath каталог внутри MigrationsFS ("." для корня)
	MigrationsPath string
	Table          string
	LockTimeout    time.Duration
}

// Migrator применяет SQL-миграции схемы хранилища через golang-migrate поверх пула pgx.
type Migrator struct {
	config Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewMigrator(config Config, pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	if config.MigrationsPath == "" {
		config.MigrationsPath = "."
	}
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = defaultLockTimeout
	}
	return &Migrator{
		config: config,
		pool:   pool,
		logger: logger.Named("Migrator"),
	}
}

// Up применяет все новые миграции и возвращает итоговую версию схемы.
func (m *Migrator) Up(ctx context.Context) (uint, error) {
	return m.apply(ctx, "up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down откатывает все миграции.
func (m *Migrator) Down(ctx context.Context) error {
	_, err := m.apply(ctx, "down", func(mg *migrate.Migrate) error { return mg.Down() })
	return err
}

// Steps применяет n миграций вперед (n > 0) или откатывает |n| назад.
func (m *Migrator) Steps(ctx context.Context, n int) (uint, error) {
	return m.apply(ctx, fmt.Sprintf("steps(%d)", n), func(mg *migrate.Migrate) error { return mg.Steps(n) })
}

// ForceVersion выставляет версию без выполнения SQL и снимает флаг dirty.
func (m *Migrator) ForceVersion(ctx context.Context, version uint) error {
	return m.withMigrate(ctx, func(mg *migrate.Migrate) error {
		if err := mg.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
		m.logger.Warn("Database migration version forced", zap.Uint("version", version))
		return nil
	})
}

// Version возвращает текущую версию схемы; 0 - миграции еще не применялись.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	err = m.withMigrate(ctx, func(mg *migrate.Migrate) error {
		version, dirty, err = currentVersion(mg)
		return err
	})
	return version, dirty, err
}

func (m *Migrator) apply(ctx context.Context, op string, fn func(*migrate.Migrate) error) (uint, error) {
	var result uint
	err := m.withMigrate(ctx, func(mg *migrate.Migrate) error {
		from, dirty, err := currentVersion(mg)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("%w at version %d", ErrDirty, from)
		}

		if err := fn(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations %s: %w", op, err)
		}

		to, _, err := currentVersion(mg)
		if err != nil {
			return err
		}
		result = to
		if from == to {
			m.logger.Info("Database schema is up to date", zap.String("op", op), zap.Uint("version", to))
		} else {
			m.logger.Info("Database migrations applied", zap.String("op", op), zap.Uint("from", from), zap.Uint("to", to))
		}
		return nil
	})
	return result, err
}

func currentVersion(mg *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// withMigrate открывает экземпляр migrate на время fn.
func (m *Migrator) withMigrate(ctx context.Context, fn func(*migrate.Migrate) error) error {
	if m.config.MigrationsFS == nil {
		return errors.New("migrations FS is not configured")
	}
	if err := m.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// sql.DB поверх пула pgx
	db := stdlib.OpenDBFromPool(m.pool)
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: m.config.Table,
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	mg.LockTimeout = m.config.LockTimeout
	defer func() {
		if srcErr, dbErr := mg.Close(); srcErr != nil || dbErr != nil {
			m.logger.Warn("Failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	return fn(mg)
}
