package interfaces

import (
	"context"

	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// StoryCache кэш записей историй, используемый при проверке владения.
// Get возвращает (nil, nil) при промахе.
type StoryCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Story, error)
	Set(ctx context.Context, story *models.Story) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}
