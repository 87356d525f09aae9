package ownership

import (
	"context"

	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// StoryResolver разрешает сущность до владеющей истории.
type StoryResolver interface {
	Resolve(ctx context.Context, ref models.Ref, userID uuid.UUID) (*models.Story, error)
}

// Checker проверяет, что две связываемые сущности принадлежат одной истории.
type Checker struct {
	resolver StoryResolver
}

func NewChecker(resolver StoryResolver) *Checker {
	return &Checker{resolver: resolver}
}

// RequireSameStory разрешает обе стороны независимо и требует совпадения историй.
// Если не разрешилась хотя бы одна сторона, возвращается ошибка первой в порядке аргументов.
func (c *Checker) RequireSameStory(ctx context.Context, a, b models.Ref, userID uuid.UUID) (*models.Story, error) {
	storyA, errA := c.resolver.Resolve(ctx, a, userID)
	storyB, errB := c.resolver.Resolve(ctx, b, userID)
	if errA != nil {
		return nil, errA
	}
	if errB != nil {
		return nil, errB
	}
	if storyA.ID != storyB.ID {
		return nil, &models.AssociationError{A: a.Kind, B: b.Kind}
	}
	return storyA, nil
}
