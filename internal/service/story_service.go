package service

import (
	"context"
	"fmt"
	"strings"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateStory создает историю пользователя. Тип по умолчанию linear.
func (s *Service) CreateStory(ctx context.Context, userID uuid.UUID, in models.CreateStoryInput) (*models.Story, error) {
	if userID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewMissingField("title")
	}
	storyType := in.Type
	if storyType == "" {
		storyType = models.StoryTypeLinear
	}
	if !storyType.Valid() {
		return nil, models.ErrInvalidStoryType
	}

	story := &models.Story{
		ID:          models.NewID(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Type:        storyType,
	}
	story.Touch(s.now())
	if err := s.stores.Stories.Save(ctx, story); err != nil {
		s.logger.Error("Failed to save story", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("save story: %w", err)
	}
	s.logger.Info("Story created", zap.Stringer("storyID", story.ID), zap.Stringer("userID", userID))
	s.publish(ctx, userID, story.ID, models.KindStory, story.ID.String(), interfaces.ContentActionCreated)
	return story, nil
}

func (s *Service) GetStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error) {
	if storyID == uuid.Nil {
		return nil, models.NewMissingField("storyId")
	}
	return s.resolver.ResolveStory(ctx, storyID, userID)
}

// ListStories истории пользователя в порядке создания.
func (s *Service) ListStories(ctx context.Context, userID uuid.UUID) ([]*models.Story, error) {
	if userID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	stories, err := s.stores.Stories.FindByParent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

func (s *Service) UpdateStory(ctx context.Context, userID, storyID uuid.UUID, in models.UpdateStoryInput) (*models.Story, error) {
	story, err := s.GetStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewMissingField("title")
		}
		story.Title = *in.Title
	}
	if in.Description != nil {
		story.Description = *in.Description
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, models.ErrInvalidStoryType
		}
		story.Type = *in.Type
	}
	story.Touch(s.now())
	if err := s.stores.Stories.Update(ctx, story); err != nil {
		return nil, storeErr(models.KindStory, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindStory, story.ID.String(), interfaces.ContentActionUpdated)
	return story, nil
}

// DeleteStory удаляет историю. Удаление потомков - забота хранилища (ON DELETE CASCADE).
func (s *Service) DeleteStory(ctx context.Context, userID, storyID uuid.UUID) error {
	story, err := s.GetStory(ctx, userID, storyID)
	if err != nil {
		return err
	}
	if err := s.stores.Stories.Delete(ctx, story.ID); err != nil {
		return storeErr(models.KindStory, "delete", err)
	}
	s.logger.Info("Story deleted", zap.Stringer("storyID", story.ID), zap.Stringer("userID", userID))
	s.publish(ctx, userID, story.ID, models.KindStory, story.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
