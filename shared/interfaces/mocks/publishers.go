package mocks

import (
	"context"

	"story-organizer/shared/interfaces"

	"github.com/stretchr/testify/mock"
)

// Mock ContentEventPublisher
type ContentEventPublisher struct {
	mock.Mock
}

func (m *ContentEventPublisher) PublishContentEvent(ctx context.Context, event interfaces.ContentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
