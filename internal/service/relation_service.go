package service

import (
	"context"
	"fmt"

	"story-organizer/internal/batch"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func relationParent(r *models.CharacterRelation) models.Ref {
	return models.NewRef(models.KindCharacter, r.CharID1)
}

// CreateRelation создает отношение между двумя разными персонажами одной истории.
func (s *Service) CreateRelation(ctx context.Context, userID uuid.UUID, in models.CreateRelationInput) (*models.CharacterRelation, error) {
	if in.CharID1 == uuid.Nil {
		return nil, models.NewMissingField("charId1")
	}
	if in.CharID2 == uuid.Nil {
		return nil, models.NewMissingField("charId2")
	}
	if in.CharID1 == in.CharID2 {
		return nil, models.ErrSelfRelation
	}
	story, err := s.checker.RequireSameStory(ctx,
		models.NewRef(models.KindCharacter, in.CharID1),
		models.NewRef(models.KindCharacter, in.CharID2),
		userID)
	if err != nil {
		return nil, err
	}
	relation := &models.CharacterRelation{
		ID:           models.NewID(),
		CharID1:      in.CharID1,
		CharID2:      in.CharID2,
		RelationType: in.RelationType,
	}
	relation.Touch(s.now())
	if err := s.stores.CharacterRelations.Save(ctx, relation); err != nil {
		return nil, fmt.Errorf("save character relation: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacterRelation, relation.ID.String(), interfaces.ContentActionCreated)
	return relation, nil
}

func (s *Service) GetRelation(ctx context.Context, userID, relationID uuid.UUID) (*models.CharacterRelation, error) {
	relation, _, err := loadOwned(ctx, s, s.stores.CharacterRelations, models.KindCharacterRelation, relationID, userID, relationParent)
	return relation, err
}

// ListRelations отношения, в которых персонаж участвует с любой стороны.
func (s *Service) ListRelations(ctx context.Context, userID, characterID uuid.UUID) ([]*models.CharacterRelation, error) {
	if _, err := s.requireParent(ctx, models.KindCharacter, "characterId", characterID, userID); err != nil {
		return nil, err
	}
	relations, err := s.stores.CharacterRelations.FindByParent(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("list character relations: %w", err)
	}
	return relations, nil
}

func (s *Service) UpdateRelation(ctx context.Context, userID uuid.UUID, in models.UpdateRelationInput) (*models.CharacterRelation, error) {
	relation, story, err := loadOwned(ctx, s, s.stores.CharacterRelations, models.KindCharacterRelation, in.ID, userID, relationParent)
	if err != nil {
		return nil, err
	}
	if in.RelationType != nil {
		relation.RelationType = *in.RelationType
	}
	relation.Touch(s.now())
	if err := s.stores.CharacterRelations.Update(ctx, relation); err != nil {
		return nil, storeErr(models.KindCharacterRelation, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacterRelation, relation.ID.String(), interfaces.ContentActionUpdated)
	return relation, nil
}

func (s *Service) DeleteRelation(ctx context.Context, userID, relationID uuid.UUID) error {
	relation, story, err := loadOwned(ctx, s, s.stores.CharacterRelations, models.KindCharacterRelation, relationID, userID, relationParent)
	if err != nil {
		return err
	}
	if err := s.stores.CharacterRelations.Delete(ctx, relation.ID); err != nil {
		return storeErr(models.KindCharacterRelation, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindCharacterRelation, relation.ID.String(), interfaces.ContentActionDeleted)
	return nil
}

// DeleteRelations удаляет отношения в режиме best-effort.
func (s *Service) DeleteRelations(ctx context.Context, userID uuid.UUID, ids []string) (*models.BatchResult[string], error) {
	outcome, err := batch.Execute(ctx, s.batch, "delete_relations", ids, batch.Handler[string, string, owned[models.CharacterRelation]]{
		Key: func(id string) string { return id },
		Prepare: func(ctx context.Context, raw string) (owned[models.CharacterRelation], error) {
			id, err := parseKey(models.KindCharacterRelation, "id", raw)
			if err != nil {
				return owned[models.CharacterRelation]{}, err
			}
			relation, story, err := loadOwned(ctx, s, s.stores.CharacterRelations, models.KindCharacterRelation, id, userID, relationParent)
			return owned[models.CharacterRelation]{entity: relation, story: story}, err
		},
		Commit: func(ctx context.Context, prepared []owned[models.CharacterRelation]) error {
			for _, p := range prepared {
				if err := s.stores.CharacterRelations.Delete(ctx, p.entity.ID); err != nil {
					return storeErr(models.KindCharacterRelation, "delete", err)
				}
			}
			return nil
		},
	}, batch.BestEffort)
	if err != nil {
		return nil, err
	}
	for _, p := range outcome.Applied {
		s.publish(ctx, userID, p.story.ID, models.KindCharacterRelation, p.entity.ID.String(), interfaces.ContentActionDeleted)
	}
	return outcome.Result, nil
}
