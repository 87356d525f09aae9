package interfaces

import (
	"time"

	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// ContentAction тип изменения контента.
type ContentAction string

const (
	ContentActionCreated ContentAction = "created"
	ContentActionUpdated ContentAction = "updated"
	ContentActionDeleted ContentAction = "deleted"
)

// ContentEvent событие об изменении сущности истории.
type ContentEvent struct {
	StoryID    uuid.UUID         `json:"storyId"`
	EntityType models.EntityKind `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Action     ContentAction     `json:"action"`
	UserID     uuid.UUID         `json:"userId"`
	OccurredAt time.Time         `json:"occurredAt"`
}
