package service

import (
	"context"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// publish отправляет событие об изменении. Ошибка публикации только логируется:
// запись уже выполнена и откатывать ее нельзя.
func (s *Service) publish(ctx context.Context, userID, storyID uuid.UUID, kind models.EntityKind, entityID string, action interfaces.ContentAction) {
	if s.publisher == nil {
		return
	}
	event := interfaces.ContentEvent{
		StoryID:    storyID,
		EntityType: kind,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishContentEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish content event",
			zap.String("entityType", string(kind)),
			zap.String("entityID", entityID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
