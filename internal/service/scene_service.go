package service

import (
	"context"
	"fmt"

	"story-organizer/internal/batch"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func sceneParent(sc *models.Scene) models.Ref { return models.NewRef(models.KindChapter, sc.ChapterID) }

// CreateScene создает сцену в главе; локация, если задана, должна быть из той же истории.
func (s *Service) CreateScene(ctx context.Context, userID uuid.UUID, in models.CreateSceneInput) (*models.Scene, error) {
	if in.ChapterID == uuid.Nil {
		return nil, models.NewMissingField("chapterId")
	}
	var (
		story *models.Story
		err   error
	)
	if in.LocationID != nil && *in.LocationID != uuid.Nil {
		story, err = s.checker.RequireSameStory(ctx,
			models.NewRef(models.KindChapter, in.ChapterID),
			models.NewRef(models.KindLocation, *in.LocationID),
			userID)
	} else {
		story, err = s.resolver.Resolve(ctx, models.NewRef(models.KindChapter, in.ChapterID), userID)
	}
	if err != nil {
		return nil, err
	}

	scene := &models.Scene{
		ID:        models.NewID(),
		ChapterID: in.ChapterID,
		Title:     in.Title,
		Summary:   in.Summary,
		Index:     in.Index,
	}
	if in.LocationID != nil && *in.LocationID != uuid.Nil {
		locationID := *in.LocationID
		scene.LocationID = &locationID
	}
	scene.Touch(s.now())
	if err := s.stores.Scenes.Save(ctx, scene); err != nil {
		return nil, fmt.Errorf("save scene: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindScene, scene.ID.String(), interfaces.ContentActionCreated)
	return scene, nil
}

func (s *Service) GetScene(ctx context.Context, userID, sceneID uuid.UUID) (*models.Scene, error) {
	scene, _, err := loadOwned(ctx, s, s.stores.Scenes, models.KindScene, sceneID, userID, sceneParent)
	return scene, err
}

// ListScenes сцены главы по index.
func (s *Service) ListScenes(ctx context.Context, userID, chapterID uuid.UUID) ([]*models.Scene, error) {
	if _, err := s.requireParent(ctx, models.KindChapter, "chapterId", chapterID, userID); err != nil {
		return nil, err
	}
	scenes, err := s.stores.Scenes.FindByParent(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	models.SortByIndex(scenes)
	return scenes, nil
}

func (s *Service) prepareSceneUpdate(ctx context.Context, userID uuid.UUID, in models.UpdateSceneInput) (*models.Scene, *models.Story, error) {
	scene, story, err := loadOwned(ctx, s, s.stores.Scenes, models.KindScene, in.ID, userID, sceneParent)
	if err != nil {
		return nil, nil, err
	}
	if in.ChapterID != nil && *in.ChapterID != scene.ChapterID {
		if *in.ChapterID == uuid.Nil {
			return nil, nil, models.NewMissingField("chapterId")
		}
		if err := s.requireSameStoryAs(ctx, story, models.KindScene, models.NewRef(models.KindChapter, *in.ChapterID), userID); err != nil {
			return nil, nil, err
		}
		scene.ChapterID = *in.ChapterID
	}
	switch {
	case in.ClearLocation:
		scene.LocationID = nil
	case in.LocationID != nil && *in.LocationID != uuid.Nil:
		location := models.NewRef(models.KindLocation, *in.LocationID)
		// Локация проверяется относительно главы, в которой сцена окажется после обновления
		if _, err := s.checker.RequireSameStory(ctx, models.NewRef(models.KindChapter, scene.ChapterID), location, userID); err != nil {
			return nil, nil, err
		}
		locationID := *in.LocationID
		scene.LocationID = &locationID
	}
	if in.Title != nil {
		scene.Title = *in.Title
	}
	if in.Summary != nil {
		scene.Summary = *in.Summary
	}
	if in.Index != nil {
		scene.Index = *in.Index
	}
	scene.Touch(s.now())
	return scene, story, nil
}

func (s *Service) UpdateScene(ctx context.Context, userID uuid.UUID, in models.UpdateSceneInput) (*models.Scene, error) {
	scene, story, err := s.prepareSceneUpdate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Scenes.Update(ctx, scene); err != nil {
		return nil, storeErr(models.KindScene, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindScene, scene.ID.String(), interfaces.ContentActionUpdated)
	return scene, nil
}

// UpdateScenes атомарно обновляет набор сцен.
func (s *Service) UpdateScenes(ctx context.Context, userID uuid.UUID, items []models.UpdateSceneInput) ([]*models.Scene, error) {
	seen := make(idGuard, len(items))
	outcome, err := batch.Execute(ctx, s.batch, "update_scenes", items, batch.Handler[models.UpdateSceneInput, string, owned[models.Scene]]{
		Key: func(in models.UpdateSceneInput) string { return in.ID.String() },
		Prepare: func(ctx context.Context, in models.UpdateSceneInput) (owned[models.Scene], error) {
			if err := seen.check(in.ID); err != nil {
				return owned[models.Scene]{}, err
			}
			scene, story, err := s.prepareSceneUpdate(ctx, userID, in)
			return owned[models.Scene]{entity: scene, story: story}, err
		},
		Commit: func(ctx context.Context, prepared []owned[models.Scene]) error {
			if err := s.stores.Scenes.UpdateMany(ctx, entities(prepared)); err != nil {
				return storeErr(models.KindScene, "update", err)
			}
			return nil
		},
	}, batch.Atomic)
	if err != nil {
		return nil, err
	}
	for _, o := range outcome.Applied {
		s.publish(ctx, userID, o.story.ID, models.KindScene, o.entity.ID.String(), interfaces.ContentActionUpdated)
	}
	return entities(outcome.Applied), nil
}

func (s *Service) DeleteScene(ctx context.Context, userID, sceneID uuid.UUID) error {
	scene, story, err := loadOwned(ctx, s, s.stores.Scenes, models.KindScene, sceneID, userID, sceneParent)
	if err != nil {
		return err
	}
	if err := s.stores.Scenes.Delete(ctx, scene.ID); err != nil {
		return storeErr(models.KindScene, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindScene, scene.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
