package interfaces

import (
	"context"
)

// ContentEventPublisher публикует события об изменении контента для других сервисов.
type ContentEventPublisher interface {
	PublishContentEvent(ctx context.Context, event ContentEvent) error
}
