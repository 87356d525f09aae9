package service

import (
	"context"
	"errors"
	"fmt"

	"story-organizer/internal/batch"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// linkItem проверенная связь персонаж-момент вместе с историей.
type linkItem struct {
	link  *models.CharacterMoment
	story *models.Story
}

// parseLinkKey проверяет обязательные поля ключа до любых обращений к хранилищу.
func parseLinkKey(key models.CharacterMomentKey) (characterID, momentID uuid.UUID, err error) {
	if key.CharacterID == "" {
		return uuid.Nil, uuid.Nil, models.NewMissingField("characterId")
	}
	if key.MomentID == "" {
		return uuid.Nil, uuid.Nil, models.NewMissingField("momentId")
	}
	if characterID, err = parseKey(models.KindCharacter, "characterId", key.CharacterID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if momentID, err = parseKey(models.KindMoment, "momentId", key.MomentID); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return characterID, momentID, nil
}

func (s *Service) requireLinkable(ctx context.Context, userID uuid.UUID, key models.CharacterMomentKey) (*models.CharacterMoment, *models.Story, error) {
	characterID, momentID, err := parseLinkKey(key)
	if err != nil {
		return nil, nil, err
	}
	story, err := s.checker.RequireSameStory(ctx,
		models.NewRef(models.KindCharacter, characterID),
		models.NewRef(models.KindMoment, momentID),
		userID)
	if err != nil {
		return nil, nil, err
	}
	return &models.CharacterMoment{CharacterID: characterID, MomentID: momentID}, story, nil
}

func (s *Service) ensureNotLinked(ctx context.Context, link *models.CharacterMoment) error {
	_, err := s.stores.CharacterMoments.Find(ctx, link.CharacterID, link.MomentID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: character %s is already in moment %s", models.ErrAlreadyExists, link.CharacterID, link.MomentID)
	case errors.Is(err, models.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("load character moment: %w", err)
	}
}

// AddCharacterToMoment связывает персонажа с моментом той же истории.
func (s *Service) AddCharacterToMoment(ctx context.Context, userID uuid.UUID, key models.CharacterMomentKey) (*models.CharacterMoment, error) {
	link, story, err := s.requireLinkable(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotLinked(ctx, link); err != nil {
		return nil, err
	}
	link.Touch(s.now())
	if err := s.stores.CharacterMoments.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save character moment: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacterMoment, link.Key().String(), interfaces.ContentActionCreated)
	return link, nil
}

// AddCharactersToMoments атомарно добавляет набор связей: либо все, либо ни одной.
func (s *Service) AddCharactersToMoments(ctx context.Context, userID uuid.UUID, keys []models.CharacterMomentKey) ([]*models.CharacterMoment, error) {
	seen := make(map[models.CharacterMomentKey]struct{}, len(keys))
	outcome, err := batch.Execute(ctx, s.batch, "add_characters_to_moments", keys, batch.Handler[models.CharacterMomentKey, models.CharacterMomentKey, linkItem]{
		Key: func(k models.CharacterMomentKey) models.CharacterMomentKey { return k },
		Prepare: func(ctx context.Context, k models.CharacterMomentKey) (linkItem, error) {
			link, story, err := s.requireLinkable(ctx, userID, k)
			if err != nil {
				return linkItem{}, err
			}
			if _, dup := seen[link.Key()]; dup {
				return linkItem{}, fmt.Errorf("%w: duplicate pair %s", models.ErrInvalidInput, link.Key())
			}
			seen[link.Key()] = struct{}{}
			if err := s.ensureNotLinked(ctx, link); err != nil {
				return linkItem{}, err
			}
			link.Touch(s.now())
			return linkItem{link: link, story: story}, nil
		},
		Commit: func(ctx context.Context, prepared []linkItem) error {
			links := make([]*models.CharacterMoment, 0, len(prepared))
			for _, p := range prepared {
				links = append(links, p.link)
			}
			if err := s.stores.CharacterMoments.SaveMany(ctx, links); err != nil {
				return fmt.Errorf("save character moments: %w", err)
			}
			return nil
		},
	}, batch.Atomic)
	if err != nil {
		return nil, err
	}
	links := make([]*models.CharacterMoment, 0, len(outcome.Applied))
	for _, p := range outcome.Applied {
		links = append(links, p.link)
		s.publish(ctx, userID, p.story.ID, models.KindCharacterMoment, p.link.Key().String(), interfaces.ContentActionCreated)
	}
	return links, nil
}

// RemoveCharactersFromMoments удаляет связи в режиме best-effort: каждая пара обрабатывается
// независимо, неудачные попадают в отчет с причиной.
func (s *Service) RemoveCharactersFromMoments(ctx context.Context, userID uuid.UUID, keys []models.CharacterMomentKey) (*models.BatchResult[models.CharacterMomentKey], error) {
	outcome, err := batch.Execute(ctx, s.batch, "remove_characters_from_moments", keys, batch.Handler[models.CharacterMomentKey, models.CharacterMomentKey, linkItem]{
		Key: func(k models.CharacterMomentKey) models.CharacterMomentKey { return k },
		Prepare: func(ctx context.Context, k models.CharacterMomentKey) (linkItem, error) {
			link, story, err := s.requireLinkable(ctx, userID, k)
			if err != nil {
				return linkItem{}, err
			}
			return linkItem{link: link, story: story}, nil
		},
		Commit: func(ctx context.Context, prepared []linkItem) error {
			for _, p := range prepared {
				if err := s.stores.CharacterMoments.Delete(ctx, p.link.CharacterID, p.link.MomentID); err != nil {
					return storeErr(models.KindCharacterMoment, "delete", err)
				}
			}
			return nil
		},
	}, batch.BestEffort)
	if err != nil {
		return nil, err
	}
	for _, p := range outcome.Applied {
		s.publish(ctx, userID, p.story.ID, models.KindCharacterMoment, p.link.Key().String(), interfaces.ContentActionDeleted)
	}
	if outcome.Result.HasFailures() {
		s.logger.Info("Some character moments were not removed",
			zap.Stringer("userID", userID),
			zap.Int("removed", len(outcome.Result.SuccessfulKeys)),
			zap.Int("failed", len(outcome.Result.FailedKeysWithReason)))
	}
	return outcome.Result, nil
}

// ListMomentCharacters персонажи, участвующие в моменте.
func (s *Service) ListMomentCharacters(ctx context.Context, userID, momentID uuid.UUID) ([]*models.Character, error) {
	if _, err := s.requireParent(ctx, models.KindMoment, "momentId", momentID, userID); err != nil {
		return nil, err
	}
	links, err := s.stores.CharacterMoments.FindByMoment(ctx, momentID)
	if err != nil {
		return nil, fmt.Errorf("list moment characters: %w", err)
	}
	characters := make([]*models.Character, 0, len(links))
	for _, l := range links {
		c, err := load(ctx, s.stores.Characters, models.KindCharacter, l.CharacterID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// Связь пережила персонажа: хранилище без каскада
				continue
			}
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, nil
}

// ListCharacterMoments моменты, в которых участвует персонаж.
func (s *Service) ListCharacterMoments(ctx context.Context, userID, characterID uuid.UUID) ([]*models.Moment, error) {
	if _, err := s.requireParent(ctx, models.KindCharacter, "characterId", characterID, userID); err != nil {
		return nil, err
	}
	links, err := s.stores.CharacterMoments.FindByCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("list character moments: %w", err)
	}
	moments := make([]*models.Moment, 0, len(links))
	for _, l := range links {
		m, err := load(ctx, s.stores.Moments, models.KindMoment, l.MomentID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		moments = append(moments, m)
	}
	return moments, nil
}
