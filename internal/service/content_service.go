package service

import (
	"context"
	"fmt"
	"strings"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// Теги, заметки и правила мира висят прямо на истории.

func tagParent(t *models.Tag) models.Ref             { return storyParent(t.StoryID) }
func noteParent(n *models.Note) models.Ref           { return storyParent(n.StoryID) }
func worldRuleParent(w *models.WorldRule) models.Ref { return storyParent(w.StoryID) }

func (s *Service) GetTag(ctx context.Context, userID, tagID uuid.UUID) (*models.Tag, error) {
	tag, _, err := loadOwned(ctx, s, s.stores.Tags, models.KindTag, tagID, userID, tagParent)
	return tag, err
}

func (s *Service) GetNote(ctx context.Context, userID, noteID uuid.UUID) (*models.Note, error) {
	note, _, err := loadOwned(ctx, s, s.stores.Notes, models.KindNote, noteID, userID, noteParent)
	return note, err
}

func (s *Service) GetWorldRule(ctx context.Context, userID, ruleID uuid.UUID) (*models.WorldRule, error) {
	rule, _, err := loadOwned(ctx, s, s.stores.WorldRules, models.KindWorldRule, ruleID, userID, worldRuleParent)
	return rule, err
}

func (s *Service) CreateTag(ctx context.Context, userID uuid.UUID, in models.CreateTagInput) (*models.Tag, error) {
	story, err := s.requireParent(ctx, models.KindStory, "storyId", in.StoryID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewMissingField("name")
	}
	tag := &models.Tag{ID: models.NewID(), StoryID: story.ID, Name: in.Name, Color: in.Color}
	tag.Touch(s.now())
	if err := s.stores.Tags.Save(ctx, tag); err != nil {
		return nil, fmt.Errorf("save tag: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindTag, tag.ID.String(), interfaces.ContentActionCreated)
	return tag, nil
}

func (s *Service) ListTags(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Tag, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	tags, err := s.stores.Tags.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *Service) UpdateTag(ctx context.Context, userID uuid.UUID, in models.UpdateTagInput) (*models.Tag, error) {
	tag, story, err := loadOwned(ctx, s, s.stores.Tags, models.KindTag, in.ID, userID, tagParent)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, models.NewMissingField("name")
		}
		tag.Name = *in.Name
	}
	if in.Color != nil {
		tag.Color = *in.Color
	}
	tag.Touch(s.now())
	if err := s.stores.Tags.Update(ctx, tag); err != nil {
		return nil, storeErr(models.KindTag, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindTag, tag.ID.String(), interfaces.ContentActionUpdated)
	return tag, nil
}

func (s *Service) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error {
	tag, story, err := loadOwned(ctx, s, s.stores.Tags, models.KindTag, tagID, userID, tagParent)
	if err != nil {
		return err
	}
	if err := s.stores.Tags.Delete(ctx, tag.ID); err != nil {
		return storeErr(models.KindTag, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindTag, tag.ID.String(), interfaces.ContentActionDeleted)
	return nil
}

func (s *Service) CreateNote(ctx context.Context, userID uuid.UUID, in models.CreateContentInput) (*models.Note, error) {
	story, err := s.requireParent(ctx, models.KindStory, "storyId", in.StoryID, userID)
	if err != nil {
		return nil, err
	}
	note := &models.Note{ID: models.NewID(), StoryID: story.ID, Title: in.Title, Content: in.Body}
	note.Touch(s.now())
	if err := s.stores.Notes.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindNote, note.ID.String(), interfaces.ContentActionCreated)
	return note, nil
}

func (s *Service) ListNotes(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Note, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	notes, err := s.stores.Notes.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *Service) UpdateNote(ctx context.Context, userID uuid.UUID, in models.UpdateContentInput) (*models.Note, error) {
	note, story, err := loadOwned(ctx, s, s.stores.Notes, models.KindNote, in.ID, userID, noteParent)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Body != nil {
		note.Content = *in.Body
	}
	note.Touch(s.now())
	if err := s.stores.Notes.Update(ctx, note); err != nil {
		return nil, storeErr(models.KindNote, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindNote, note.ID.String(), interfaces.ContentActionUpdated)
	return note, nil
}

func (s *Service) DeleteNote(ctx context.Context, userID, noteID uuid.UUID) error {
	note, story, err := loadOwned(ctx, s, s.stores.Notes, models.KindNote, noteID, userID, noteParent)
	if err != nil {
		return err
	}
	if err := s.stores.Notes.Delete(ctx, note.ID); err != nil {
		return storeErr(models.KindNote, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindNote, note.ID.String(), interfaces.ContentActionDeleted)
	return nil
}

func (s *Service) CreateWorldRule(ctx context.Context, userID uuid.UUID, in models.CreateContentInput) (*models.WorldRule, error) {
	story, err := s.requireParent(ctx, models.KindStory, "storyId", in.StoryID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewMissingField("title")
	}
	rule := &models.WorldRule{ID: models.NewID(), StoryID: story.ID, Title: in.Title, Description: in.Body}
	rule.Touch(s.now())
	if err := s.stores.WorldRules.Save(ctx, rule); err != nil {
		return nil, fmt.Errorf("save world rule: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindWorldRule, rule.ID.String(), interfaces.ContentActionCreated)
	return rule, nil
}

func (s *Service) ListWorldRules(ctx context.Context, userID, storyID uuid.UUID) ([]*models.WorldRule, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	rules, err := s.stores.WorldRules.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list world rules: %w", err)
	}
	return rules, nil
}

func (s *Service) UpdateWorldRule(ctx context.Context, userID uuid.UUID, in models.UpdateContentInput) (*models.WorldRule, error) {
	rule, story, err := loadOwned(ctx, s, s.stores.WorldRules, models.KindWorldRule, in.ID, userID, worldRuleParent)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewMissingField("title")
		}
		rule.Title = *in.Title
	}
	if in.Body != nil {
		rule.Description = *in.Body
	}
	rule.Touch(s.now())
	if err := s.stores.WorldRules.Update(ctx, rule); err != nil {
		return nil, storeErr(models.KindWorldRule, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindWorldRule, rule.ID.String(), interfaces.ContentActionUpdated)
	return rule, nil
}

func (s *Service) DeleteWorldRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	rule, story, err := loadOwned(ctx, s, s.stores.WorldRules, models.KindWorldRule, ruleID, userID, worldRuleParent)
	if err != nil {
		return err
	}
	if err := s.stores.WorldRules.Delete(ctx, rule.ID); err != nil {
		return storeErr(models.KindWorldRule, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindWorldRule, rule.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
