package database

import (
	"context"
	"fmt"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const deleteImplicitChoicesQuery = `DELETE FROM choices WHERE is_implicit = TRUE AND scene_id = ANY($1)`

type pgChoiceStore struct {
	*pgEntityStore[models.Choice]
}

var _ interfaces.ChoiceStore = (*pgChoiceStore)(nil)

// NewPgChoiceStore создает хранилище ребер графа сцен.
func NewPgChoiceStore(db interfaces.DBTX, logger *zap.Logger) interfaces.ChoiceStore {
	return &pgChoiceStore{pgEntityStore: newPgEntityStore(db, logger, choiceSpec)}
}

// ReplaceImplicit удаляет неявные ребра сцен sourceSceneIDs и вставляет edges в одной транзакции.
func (r *pgChoiceStore) ReplaceImplicit(ctx context.Context, sourceSceneIDs []uuid.UUID, edges []*models.Choice) error {
	logFields := []zap.Field{zap.Int("sourceScenes", len(sourceSceneIDs)), zap.Int("edges", len(edges))}
	err := r.inTx(ctx, "replace_implicit_choices", func(tx pgx.Tx) error {
		if len(sourceSceneIDs) > 0 {
			if _, err := tx.Exec(ctx, deleteImplicitChoicesQuery, sourceSceneIDs); err != nil {
				return fmt.Errorf("ошибка удаления неявных переходов: %w", err)
			}
		}
		if len(edges) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, e := range edges {
			batch.Queue(r.insertQuery, r.spec.values(e)...)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for range edges {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("ошибка вставки неявного перехода: %w", translatePgError(err))
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to replace implicit choices", append(logFields, zap.Error(err))...)
		return err
	}
	r.logger.Debug("Implicit choices replaced", logFields...)
	return nil
}
