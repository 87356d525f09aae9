package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// tableSpec описывает отображение сущности на таблицу.
// columns[0] всегда первичный ключ "id"; values возвращает значения в порядке columns.
type tableSpec[T any] struct {
	kind          models.EntityKind
	table         string
	columns       []string
	parentColumns []string
	orderBy       string
	values        func(*T) []any
	id            func(*T) uuid.UUID
}

// pgEntityStore общая реализация interfaces.EntityStore поверх pgx + scany.
type pgEntityStore[T any] struct {
	db     interfaces.DBTX
	logger *zap.Logger
	spec   tableSpec[T]

	selectByIDQuery     string
	selectByParentQuery string
	insertQuery         string
	updateQuery         string
	deleteQuery         string
}

func newPgEntityStore[T any](db interfaces.DBTX, logger *zap.Logger, spec tableSpec[T]) *pgEntityStore[T] {
	cols := strings.Join(spec.columns, ", ")

	placeholders := make([]string, len(spec.columns))
	for i := range spec.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	// Нумерация плейсхолдеров SET совпадает с порядком updateArgs: $1 = id.
	sets := make([]string, 0, len(spec.columns)-1)
	n := 2
	for _, c := range spec.columns[1:] {
		// created_at не меняется при обновлении
		if c == "created_at" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", c, n))
		n++
	}
	parents := make([]string, len(spec.parentColumns))
	for i, c := range spec.parentColumns {
		parents[i] = c + " = $1"
	}
	orderBy := spec.orderBy
	if orderBy == "" {
		orderBy = "id"
	}

	return &pgEntityStore[T]{
		db:                  db,
		logger:              logger.Named("Pg" + strings.ReplaceAll(spec.kind.DisplayName(), " ", "") + "Store"),
		spec:                spec,
		selectByIDQuery:     fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", cols, spec.table),
		selectByParentQuery: fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s", cols, spec.table, strings.Join(parents, " OR "), orderBy),
		insertQuery:         fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", spec.table, cols, strings.Join(placeholders, ", ")),
		updateQuery:         fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", spec.table, strings.Join(sets, ", ")),
		deleteQuery:         fmt.Sprintf("DELETE FROM %s WHERE id = $1", spec.table),
	}
}

// FindByID retrieves an entity by its ID. Returns models.ErrNotFound if there is no such row.
func (r *pgEntityStore[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := pgxscan.Get(ctx, r.db, &entity, r.selectByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Entity not found by ID", zap.Stringer("id", id))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get entity by ID", zap.Stringer("id", id), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения %s по ID %s: %w", r.spec.kind, id, err)
	}
	return &entity, nil
}

// FindByParent returns all entities referencing parentID.
func (r *pgEntityStore[T]) FindByParent(ctx context.Context, parentID uuid.UUID) ([]*T, error) {
	entities := make([]*T, 0)
	if err := pgxscan.Select(ctx, r.db, &entities, r.selectByParentQuery, parentID); err != nil {
		r.logger.Error("Failed to list entities by parent", zap.Stringer("parentID", parentID), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка %s по родителю %s: %w", r.spec.kind, parentID, err)
	}
	return entities, nil
}

func (r *pgEntityStore[T]) Save(ctx context.Context, entity *T) error {
	if _, err := r.db.Exec(ctx, r.insertQuery, r.spec.values(entity)...); err != nil {
		r.logger.Error("Failed to insert entity", zap.Stringer("id", r.spec.id(entity)), zap.Error(err))
		return fmt.Errorf("ошибка создания %s: %w", r.spec.kind, translatePgError(err))
	}
	r.logger.Debug("Entity created", zap.Stringer("id", r.spec.id(entity)))
	return nil
}

// SaveMany вставляет все записи одной транзакцией.
func (r *pgEntityStore[T]) SaveMany(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	return r.inTx(ctx, "save_many", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entities {
			batch.Queue(r.insertQuery, r.spec.values(e)...)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for i := range entities {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("ошибка вставки %s %s: %w", r.spec.kind, r.spec.id(entities[i]), translatePgError(err))
			}
		}
		return nil
	})
}

func (r *pgEntityStore[T]) Update(ctx context.Context, entity *T) error {
	tag, err := r.db.Exec(ctx, r.updateQuery, r.updateArgs(entity)...)
	if err != nil {
		r.logger.Error("Failed to update entity", zap.Stringer("id", r.spec.id(entity)), zap.Error(err))
		return fmt.Errorf("ошибка обновления %s: %w", r.spec.kind, translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateMany обновляет все записи одной транзакцией; отсутствие любой из них откатывает всю пачку.
func (r *pgEntityStore[T]) UpdateMany(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	return r.inTx(ctx, "update_many", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entities {
			batch.Queue(r.updateQuery, r.updateArgs(e)...)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for i := range entities {
			tag, err := br.Exec()
			if err != nil {
				return fmt.Errorf("ошибка обновления %s %s: %w", r.spec.kind, r.spec.id(entities[i]), translatePgError(err))
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%s %s: %w", r.spec.kind, r.spec.id(entities[i]), models.ErrNotFound)
			}
		}
		return nil
	})
}

func (r *pgEntityStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, r.deleteQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete entity", zap.Stringer("id", id), zap.Error(err))
		return fmt.Errorf("ошибка удаления %s %s: %w", r.spec.kind, id, translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Debug("Entity deleted", zap.Stringer("id", id))
	return nil
}

// updateArgs: $1 = id, далее значения колонок без created_at, в том же порядке, что и SET.
func (r *pgEntityStore[T]) updateArgs(entity *T) []any {
	values := r.spec.values(entity)
	args := make([]any, 0, len(values))
	args = append(args, values[0])
	for i, c := range r.spec.columns[1:] {
		if c == "created_at" {
			continue
		}
		args = append(args, values[i+1])
	}
	return args
}

func (r *pgEntityStore[T]) inTx(ctx context.Context, operation string, fn func(tx pgx.Tx) error) error {
	return withTx(ctx, r.db, r.logger, operation, fn)
}

// withTx выполняет fn в транзакции (или savepoint, если db уже транзакция) с откатом при ошибке.
func withTx(ctx context.Context, db interfaces.DBTX, logger *zap.Logger, operation string, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin %s transaction: %w", operation, err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				logger.Error("Failed to rollback transaction after panic", zap.String("operation", operation), zap.Error(rollbackErr))
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			logger.Error("Failed to rollback transaction",
				zap.String("operation", operation),
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit transaction", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("failed to commit %s transaction: %w", operation, err)
	}
	return nil
}

// translatePgError сводит нарушения внешних ключей к models.ErrNotFound, а уникальности к models.ErrAlreadyExists.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", models.ErrNotFound, pgErr.ConstraintName)
		case "23505": // unique_violation
			return fmt.Errorf("%w: duplicate key %s", models.ErrAlreadyExists, pgErr.ConstraintName)
		}
	}
	return err
}
