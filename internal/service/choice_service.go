package service

import (
	"context"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func (s *Service) AddChoice(ctx context.Context, userID uuid.UUID, in models.CreateChoiceInput) (*models.Choice, error) {
	choice, story, err := s.graph.AddChoice(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID, story.ID, models.KindChoice, choice.ID.String(), interfaces.ContentActionCreated)
	return choice, nil
}

func (s *Service) GetChoice(ctx context.Context, userID, choiceID uuid.UUID) (*models.Choice, error) {
	return s.graph.GetChoice(ctx, userID, choiceID)
}

// OutgoingChoices ребра, выходящие из сцены (для linear истории - не больше одного неявного).
func (s *Service) OutgoingChoices(ctx context.Context, userID, sceneID uuid.UUID) ([]*models.Choice, error) {
	return s.graph.OutgoingChoices(ctx, userID, sceneID)
}

func (s *Service) UpdateChoice(ctx context.Context, userID uuid.UUID, in models.UpdateChoiceInput) (*models.Choice, error) {
	choice, story, err := s.graph.UpdateChoice(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID, story.ID, models.KindChoice, choice.ID.String(), interfaces.ContentActionUpdated)
	return choice, nil
}

func (s *Service) DeleteChoice(ctx context.Context, userID, choiceID uuid.UUID) error {
	choice, story, err := s.graph.DeleteChoice(ctx, userID, choiceID)
	if err != nil {
		return err
	}
	s.publish(ctx, userID, story.ID, models.KindChoice, choice.ID.String(), interfaces.ContentActionDeleted)
	return nil
}

// RebuildImplicitChoices пересобирает неявные переходы истории по порядку глав и сцен.
func (s *Service) RebuildImplicitChoices(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Choice, error) {
	if storyID == uuid.Nil {
		return nil, models.NewMissingField("storyId")
	}
	edges, story, err := s.graph.RebuildImplicitChoices(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID, story.ID, models.KindStory, story.ID.String(), interfaces.ContentActionUpdated)
	return edges, nil
}
