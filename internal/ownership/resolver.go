// Package ownership проверяет принадлежность сущностей пользователю через цепочку родителей
// до истории и согласованность связываемых сущностей.
package ownership

import (
	"context"
	"errors"
	"fmt"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver разрешает любую сущность до владеющей истории.
type Resolver struct {
	chains  Chains
	stories interfaces.Finder[models.Story]
	logger  *zap.Logger
}

// NewResolver создает Resolver по таблице цепочек и хранилищу историй.
func NewResolver(chains Chains, stories interfaces.Finder[models.Story], logger *zap.Logger) *Resolver {
	return &Resolver{
		chains:  chains,
		stories: stories,
		logger:  logger.Named("OwnershipResolver"),
	}
}

// Resolve проходит цепочку родителей ref до истории и проверяет, что история принадлежит userID.
//
// Первое отсутствующее звено дает "<Type> not found" без дальнейших запросов.
// Отсутствующая и чужая история дают одну и ту же ошибку models.ErrStoryNotOwned.
func (r *Resolver) Resolve(ctx context.Context, ref models.Ref, userID uuid.UUID) (*models.Story, error) {
	current := ref
	for current.Kind != models.KindStory {
		link, ok := r.chains[current.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: no ownership chain for %s", models.ErrInvalidInput, current.Kind)
		}
		parentID, err := link.lookup(ctx, current.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				r.logger.Debug("Ownership chain broken",
					zap.Stringer("ref", ref),
					zap.String("missing", string(current.Kind)),
					zap.Stringer("missingID", current.ID))
				return nil, models.NewNotFound(current.Kind)
			}
			r.logger.Error("Failed to load ownership chain link", zap.Stringer("ref", current), zap.Error(err))
			return nil, fmt.Errorf("load %s %s: %w", current.Kind, current.ID, err)
		}
		current = models.Ref{Kind: link.Parent, ID: parentID}
	}

	story, err := r.stories.FindByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("Owning story not found", zap.Stringer("ref", ref), zap.Stringer("storyID", current.ID))
			return nil, models.ErrStoryNotOwned
		}
		r.logger.Error("Failed to load story", zap.Stringer("storyID", current.ID), zap.Error(err))
		return nil, fmt.Errorf("load story %s: %w", current.ID, err)
	}
	if story.UserID != userID {
		// Владельца не логируем
		r.logger.Warn("Access to foreign story denied",
			zap.Stringer("ref", ref),
			zap.Stringer("storyID", story.ID),
			zap.Stringer("userID", userID))
		return nil, models.ErrStoryNotOwned
	}
	return story, nil
}

// ResolveStory короткий путь для идентификатора истории.
func (r *Resolver) ResolveStory(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	return r.Resolve(ctx, models.NewRef(models.KindStory, storyID), userID)
}
