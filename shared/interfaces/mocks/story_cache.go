package mocks

import (
	"context"

	"story-organizer/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryCache
type StoryCache struct {
	mock.Mock
}

func (m *StoryCache) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *StoryCache) Set(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *StoryCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
