package service

import (
	"context"
	"fmt"

	"story-organizer/internal/batch"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func momentParent(m *models.Moment) models.Ref { return models.NewRef(models.KindScene, m.SceneID) }

func (s *Service) CreateMoment(ctx context.Context, userID uuid.UUID, in models.CreateMomentInput) (*models.Moment, error) {
	story, err := s.requireParent(ctx, models.KindScene, "sceneId", in.SceneID, userID)
	if err != nil {
		return nil, err
	}
	moment := &models.Moment{
		ID:      models.NewID(),
		SceneID: in.SceneID,
		Title:   in.Title,
		Content: in.Content,
		Index:   in.Index,
	}
	moment.Touch(s.now())
	if err := s.stores.Moments.Save(ctx, moment); err != nil {
		return nil, fmt.Errorf("save moment: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindMoment, moment.ID.String(), interfaces.ContentActionCreated)
	return moment, nil
}

func (s *Service) GetMoment(ctx context.Context, userID, momentID uuid.UUID) (*models.Moment, error) {
	moment, _, err := loadOwned(ctx, s, s.stores.Moments, models.KindMoment, momentID, userID, momentParent)
	return moment, err
}

// ListMoments моменты сцены по index.
func (s *Service) ListMoments(ctx context.Context, userID, sceneID uuid.UUID) ([]*models.Moment, error) {
	if _, err := s.requireParent(ctx, models.KindScene, "sceneId", sceneID, userID); err != nil {
		return nil, err
	}
	moments, err := s.stores.Moments.FindByParent(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	models.SortByIndex(moments)
	return moments, nil
}

func (s *Service) prepareMomentUpdate(ctx context.Context, userID uuid.UUID, in models.UpdateMomentInput) (*models.Moment, *models.Story, error) {
	moment, story, err := loadOwned(ctx, s, s.stores.Moments, models.KindMoment, in.ID, userID, momentParent)
	if err != nil {
		return nil, nil, err
	}
	if in.SceneID != nil && *in.SceneID != moment.SceneID {
		if *in.SceneID == uuid.Nil {
			return nil, nil, models.NewMissingField("sceneId")
		}
		if err := s.requireSameStoryAs(ctx, story, models.KindMoment, models.NewRef(models.KindScene, *in.SceneID), userID); err != nil {
			return nil, nil, err
		}
		moment.SceneID = *in.SceneID
	}
	if in.Title != nil {
		moment.Title = *in.Title
	}
	if in.Content != nil {
		moment.Content = *in.Content
	}
	if in.Index != nil {
		moment.Index = *in.Index
	}
	moment.Touch(s.now())
	return moment, story, nil
}

func (s *Service) UpdateMoment(ctx context.Context, userID uuid.UUID, in models.UpdateMomentInput) (*models.Moment, error) {
	moment, story, err := s.prepareMomentUpdate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Moments.Update(ctx, moment); err != nil {
		return nil, storeErr(models.KindMoment, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindMoment, moment.ID.String(), interfaces.ContentActionUpdated)
	return moment, nil
}

// UpdateMoments атомарно обновляет набор моментов: при ошибке любого элемента не записывается ничего.
func (s *Service) UpdateMoments(ctx context.Context, userID uuid.UUID, items []models.UpdateMomentInput) ([]*models.Moment, error) {
	seen := make(idGuard, len(items))
	outcome, err := batch.Execute(ctx, s.batch, "update_moments", items, batch.Handler[models.UpdateMomentInput, string, owned[models.Moment]]{
		Key: func(in models.UpdateMomentInput) string { return in.ID.String() },
		Prepare: func(ctx context.Context, in models.UpdateMomentInput) (owned[models.Moment], error) {
			if err := seen.check(in.ID); err != nil {
				return owned[models.Moment]{}, err
			}
			moment, story, err := s.prepareMomentUpdate(ctx, userID, in)
			return owned[models.Moment]{entity: moment, story: story}, err
		},
		Commit: func(ctx context.Context, prepared []owned[models.Moment]) error {
			if err := s.stores.Moments.UpdateMany(ctx, entities(prepared)); err != nil {
				return storeErr(models.KindMoment, "update", err)
			}
			return nil
		},
	}, batch.Atomic)
	if err != nil {
		return nil, err
	}
	for _, o := range outcome.Applied {
		s.publish(ctx, userID, o.story.ID, models.KindMoment, o.entity.ID.String(), interfaces.ContentActionUpdated)
	}
	return entities(outcome.Applied), nil
}

func (s *Service) DeleteMoment(ctx context.Context, userID, momentID uuid.UUID) error {
	moment, story, err := loadOwned(ctx, s, s.stores.Moments, models.KindMoment, momentID, userID, momentParent)
	if err != nil {
		return err
	}
	if err := s.stores.Moments.Delete(ctx, moment.ID); err != nil {
		return storeErr(models.KindMoment, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindMoment, moment.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
