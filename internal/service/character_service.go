package service

import (
	"context"
	"fmt"
	"strings"

	"story-organizer/internal/batch"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func characterParent(c *models.Character) models.Ref { return storyParent(c.StoryID) }

func (s *Service) CreateCharacter(ctx context.Context, userID uuid.UUID, in models.CreateCharacterInput) (*models.Character, error) {
	story, err := s.requireParent(ctx, models.KindStory, "storyId", in.StoryID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewMissingField("name")
	}
	character := &models.Character{
		ID:          models.NewID(),
		StoryID:     story.ID,
		Name:        in.Name,
		Description: in.Description,
	}
	character.Touch(s.now())
	if err := s.stores.Characters.Save(ctx, character); err != nil {
		return nil, fmt.Errorf("save character: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacter, character.ID.String(), interfaces.ContentActionCreated)
	return character, nil
}

func (s *Service) GetCharacter(ctx context.Context, userID, characterID uuid.UUID) (*models.Character, error) {
	character, _, err := loadOwned(ctx, s, s.stores.Characters, models.KindCharacter, characterID, userID, characterParent)
	return character, err
}

func (s *Service) ListCharacters(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Character, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	characters, err := s.stores.Characters.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

func (s *Service) prepareCharacterUpdate(ctx context.Context, userID uuid.UUID, in models.UpdateCharacterInput) (*models.Character, *models.Story, error) {
	character, story, err := loadOwned(ctx, s, s.stores.Characters, models.KindCharacter, in.ID, userID, characterParent)
	if err != nil {
		return nil, nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, nil, models.NewMissingField("name")
		}
		character.Name = *in.Name
	}
	if in.Description != nil {
		character.Description = *in.Description
	}
	character.Touch(s.now())
	return character, story, nil
}

func (s *Service) UpdateCharacter(ctx context.Context, userID uuid.UUID, in models.UpdateCharacterInput) (*models.Character, error) {
	character, story, err := s.prepareCharacterUpdate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Characters.Update(ctx, character); err != nil {
		return nil, storeErr(models.KindCharacter, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacter, character.ID.String(), interfaces.ContentActionUpdated)
	return character, nil
}

// UpdateCharacters атомарно обновляет набор персонажей.
func (s *Service) UpdateCharacters(ctx context.Context, userID uuid.UUID, items []models.UpdateCharacterInput) ([]*models.Character, error) {
	seen := make(idGuard, len(items))
	outcome, err := batch.Execute(ctx, s.batch, "update_characters", items, batch.Handler[models.UpdateCharacterInput, string, owned[models.Character]]{
		Key: func(in models.UpdateCharacterInput) string { return in.ID.String() },
		Prepare: func(ctx context.Context, in models.UpdateCharacterInput) (owned[models.Character], error) {
			if err := seen.check(in.ID); err != nil {
				return owned[models.Character]{}, err
			}
			character, story, err := s.prepareCharacterUpdate(ctx, userID, in)
			return owned[models.Character]{entity: character, story: story}, err
		},
		Commit: func(ctx context.Context, prepared []owned[models.Character]) error {
			if err := s.stores.Characters.UpdateMany(ctx, entities(prepared)); err != nil {
				return storeErr(models.KindCharacter, "update", err)
			}
			return nil
		},
	}, batch.Atomic)
	if err != nil {
		return nil, err
	}
	for _, o := range outcome.Applied {
		s.publish(ctx, userID, o.story.ID, models.KindCharacter, o.entity.ID.String(), interfaces.ContentActionUpdated)
	}
	return entities(outcome.Applied), nil
}

func (s *Service) DeleteCharacter(ctx context.Context, userID, characterID uuid.UUID) error {
	character, story, err := loadOwned(ctx, s, s.stores.Characters, models.KindCharacter, characterID, userID, characterParent)
	if err != nil {
		return err
	}
	if err := s.stores.Characters.Delete(ctx, character.ID); err != nil {
		return storeErr(models.KindCharacter, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacter, character.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
