package service

import (
	"context"
	"fmt"

	"story-organizer/internal/batch"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func chapterParent(c *models.Chapter) models.Ref { return storyParent(c.StoryID) }

func (s *Service) CreateChapter(ctx context.Context, userID uuid.UUID, in models.CreateChapterInput) (*models.Chapter, error) {
	story, err := s.requireParent(ctx, models.KindStory, "storyId", in.StoryID, userID)
	if err != nil {
		return nil, err
	}
	chapter := &models.Chapter{
		ID:      models.NewID(),
		StoryID: story.ID,
		Title:   in.Title,
		Index:   in.Index,
	}
	chapter.Touch(s.now())
	if err := s.stores.Chapters.Save(ctx, chapter); err != nil {
		return nil, fmt.Errorf("save chapter: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindChapter, chapter.ID.String(), interfaces.ContentActionCreated)
	return chapter, nil
}

func (s *Service) GetChapter(ctx context.Context, userID, chapterID uuid.UUID) (*models.Chapter, error) {
	chapter, _, err := loadOwned(ctx, s, s.stores.Chapters, models.KindChapter, chapterID, userID, chapterParent)
	return chapter, err
}

// ListChapters главы истории по index.
func (s *Service) ListChapters(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Chapter, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	chapters, err := s.stores.Chapters.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	models.SortByIndex(chapters)
	return chapters, nil
}

// prepareChapterUpdate проверяет владение по существующей записи и применяет изменения в памяти.
func (s *Service) prepareChapterUpdate(ctx context.Context, userID uuid.UUID, in models.UpdateChapterInput) (*models.Chapter, *models.Story, error) {
	chapter, story, err := loadOwned(ctx, s, s.stores.Chapters, models.KindChapter, in.ID, userID, chapterParent)
	if err != nil {
		return nil, nil, err
	}
	if in.Title != nil {
		chapter.Title = *in.Title
	}
	if in.Index != nil {
		chapter.Index = *in.Index
	}
	chapter.Touch(s.now())
	return chapter, story, nil
}

func (s *Service) UpdateChapter(ctx context.Context, userID uuid.UUID, in models.UpdateChapterInput) (*models.Chapter, error) {
	chapter, story, err := s.prepareChapterUpdate(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Chapters.Update(ctx, chapter); err != nil {
		return nil, storeErr(models.KindChapter, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindChapter, chapter.ID.String(), interfaces.ContentActionUpdated)
	return chapter, nil
}

// UpdateChapters атомарно обновляет набор глав (например, смена порядка).
func (s *Service) UpdateChapters(ctx context.Context, userID uuid.UUID, items []models.UpdateChapterInput) ([]*models.Chapter, error) {
	seen := make(idGuard, len(items))
	outcome, err := batch.Execute(ctx, s.batch, "update_chapters", items, batch.Handler[models.UpdateChapterInput, string, owned[models.Chapter]]{
		Key: func(in models.UpdateChapterInput) string { return in.ID.String() },
		Prepare: func(ctx context.Context, in models.UpdateChapterInput) (owned[models.Chapter], error) {
			if err := seen.check(in.ID); err != nil {
				return owned[models.Chapter]{}, err
			}
			chapter, story, err := s.prepareChapterUpdate(ctx, userID, in)
			return owned[models.Chapter]{entity: chapter, story: story}, err
		},
		Commit: func(ctx context.Context, prepared []owned[models.Chapter]) error {
			if err := s.stores.Chapters.UpdateMany(ctx, entities(prepared)); err != nil {
				return storeErr(models.KindChapter, "update", err)
			}
			return nil
		},
	}, batch.Atomic)
	if err != nil {
		return nil, err
	}
	for _, o := range outcome.Applied {
		s.publish(ctx, userID, o.story.ID, models.KindChapter, o.entity.ID.String(), interfaces.ContentActionUpdated)
	}
	return entities(outcome.Applied), nil
}

func (s *Service) DeleteChapter(ctx context.Context, userID, chapterID uuid.UUID) error {
	chapter, story, err := loadOwned(ctx, s, s.stores.Chapters, models.KindChapter, chapterID, userID, chapterParent)
	if err != nil {
		return err
	}
	if err := s.stores.Chapters.Delete(ctx, chapter.ID); err != nil {
		return storeErr(models.KindChapter, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindChapter, chapter.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
