package mocks

import (
	"context"

	"story-organizer/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// EntityStore is a mock type for the generic EntityStore interface
type EntityStore[T any] struct {
	mock.Mock
}

func (m *EntityStore[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *EntityStore[T]) FindByParent(ctx context.Context, parentID uuid.UUID) ([]*T, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*T), args.Error(1)
}

func (m *EntityStore[T]) Save(ctx context.Context, entity *T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *EntityStore[T]) SaveMany(ctx context.Context, entities []*T) error {
	args := m.Called(ctx, entities)
	return args.Error(0)
}

func (m *EntityStore[T]) Update(ctx context.Context, entity *T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *EntityStore[T]) UpdateMany(ctx context.Context, entities []*T) error {
	args := m.Called(ctx, entities)
	return args.Error(0)
}

func (m *EntityStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CharacterMomentStore is a mock type for the CharacterMomentStore interface
type CharacterMomentStore struct {
	mock.Mock
}

func (m *CharacterMomentStore) Find(ctx context.Context, characterID, momentID uuid.UUID) (*models.CharacterMoment, error) {
	args := m.Called(ctx, characterID, momentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CharacterMoment), args.Error(1)
}

func (m *CharacterMomentStore) FindByCharacter(ctx context.Context, characterID uuid.UUID) ([]*models.CharacterMoment, error) {
	args := m.Called(ctx, characterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CharacterMoment), args.Error(1)
}

func (m *CharacterMomentStore) FindByMoment(ctx context.Context, momentID uuid.UUID) ([]*models.CharacterMoment, error) {
	args := m.Called(ctx, momentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CharacterMoment), args.Error(1)
}

func (m *CharacterMomentStore) Save(ctx context.Context, link *models.CharacterMoment) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *CharacterMomentStore) SaveMany(ctx context.Context, links []*models.CharacterMoment) error {
	args := m.Called(ctx, links)
	return args.Error(0)
}

func (m *CharacterMomentStore) Delete(ctx context.Context, characterID, momentID uuid.UUID) error {
	args := m.Called(ctx, characterID, momentID)
	return args.Error(0)
}
