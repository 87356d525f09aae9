package database

import (
	"context"
	"fmt"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	characterMomentColumns = "character_id, moment_id, created_at, updated_at"

	findCharacterMomentQuery = `
		SELECT ` + characterMomentColumns + `
		FROM character_moments
		WHERE character_id = $1 AND moment_id = $2`

	findCharacterMomentsByCharacterQuery = `
		SELECT ` + characterMomentColumns + `
		FROM character_moments
		WHERE character_id = $1
		ORDER BY moment_id`

	findCharacterMomentsByMomentQuery = `
		SELECT ` + characterMomentColumns + `
		FROM character_moments
		WHERE moment_id = $1
		ORDER BY character_id`

	insertCharacterMomentQuery = `
		INSERT INTO character_moments (` + characterMomentColumns + `)
		VALUES ($1, $2, $3, $4)`

	deleteCharacterMomentQuery = `DELETE FROM character_moments WHERE character_id = $1 AND moment_id = $2`
)

type pgCharacterMomentStore struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

var _ interfaces.CharacterMomentStore = (*pgCharacterMomentStore)(nil)

// NewPgCharacterMomentStore создает хранилище связей персонаж-момент.
func NewPgCharacterMomentStore(db interfaces.DBTX, logger *zap.Logger) interfaces.CharacterMomentStore {
	return &pgCharacterMomentStore{
		db:     db,
		logger: logger.Named("PgCharacterMomentStore"),
	}
}

func (r *pgCharacterMomentStore) Find(ctx context.Context, characterID, momentID uuid.UUID) (*models.CharacterMoment, error) {
	var link models.CharacterMoment
	if err := pgxscan.Get(ctx, r.db, &link, findCharacterMomentQuery, characterID, momentID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get character moment",
			zap.Stringer("characterID", characterID), zap.Stringer("momentID", momentID), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения связи персонаж-момент: %w", err)
	}
	return &link, nil
}

func (r *pgCharacterMomentStore) FindByCharacter(ctx context.Context, characterID uuid.UUID) ([]*models.CharacterMoment, error) {
	return r.list(ctx, findCharacterMomentsByCharacterQuery, characterID)
}

func (r *pgCharacterMomentStore) FindByMoment(ctx context.Context, momentID uuid.UUID) ([]*models.CharacterMoment, error) {
	return r.list(ctx, findCharacterMomentsByMomentQuery, momentID)
}

func (r *pgCharacterMomentStore) list(ctx context.Context, query string, id uuid.UUID) ([]*models.CharacterMoment, error) {
	links := make([]*models.CharacterMoment, 0)
	if err := pgxscan.Select(ctx, r.db, &links, query, id); err != nil {
		r.logger.Error("Failed to list character moments", zap.Stringer("id", id), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения связей персонаж-момент: %w", err)
	}
	return links, nil
}

func (r *pgCharacterMomentStore) Save(ctx context.Context, link *models.CharacterMoment) error {
	_, err := r.db.Exec(ctx, insertCharacterMomentQuery, link.CharacterID, link.MomentID, link.CreatedAt, link.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert character moment",
			zap.Stringer("characterID", link.CharacterID), zap.Stringer("momentID", link.MomentID), zap.Error(err))
		return fmt.Errorf("ошибка создания связи персонаж-момент: %w", translatePgError(err))
	}
	return nil
}

// SaveMany вставляет все связи одной транзакцией.
func (r *pgCharacterMomentStore) SaveMany(ctx context.Context, links []*models.CharacterMoment) error {
	if len(links) == 0 {
		return nil
	}
	return withTx(ctx, r.db, r.logger, "save_character_moments", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, l := range links {
			batch.Queue(insertCharacterMomentQuery, l.CharacterID, l.MomentID, l.CreatedAt, l.UpdatedAt)
		}
		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for _, l := range links {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("ошибка вставки связи %s: %w", l.Key(), translatePgError(err))
			}
		}
		return nil
	})
}

func (r *pgCharacterMomentStore) Delete(ctx context.Context, characterID, momentID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteCharacterMomentQuery, characterID, momentID)
	if err != nil {
		r.logger.Error("Failed to delete character moment",
			zap.Stringer("characterID", characterID), zap.Stringer("momentID", momentID), zap.Error(err))
		return fmt.Errorf("ошибка удаления связи персонаж-момент: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
