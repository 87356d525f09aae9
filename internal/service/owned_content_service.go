package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// requireOwnerInStory проверяет необязательного полиморфного владельца (ownerType + ownerId):
// оба поля задаются вместе, владелец должен лежать в той же истории.
func (s *Service) requireOwnerInStory(ctx context.Context, userID, storyID uuid.UUID, kind models.EntityKind, ownerType *models.EntityKind, ownerID *uuid.UUID) (*models.Story, error) {
	if storyID == uuid.Nil {
		return nil, models.NewMissingField("storyId")
	}
	hasType, hasID := ownerType != nil && *ownerType != "", ownerID != nil && *ownerID != uuid.Nil
	switch {
	case !hasType && !hasID:
		return s.resolver.ResolveStory(ctx, storyID, userID)
	case !hasType:
		return nil, models.NewMissingField("ownerType")
	case !hasID:
		return nil, models.NewMissingField("ownerId")
	}
	if !ownerType.Valid() || *ownerType == models.KindUser || *ownerType == models.KindCharacterMoment {
		return nil, fmt.Errorf("%w: unsupported owner type %q", models.ErrInvalidInput, *ownerType)
	}

	owner := models.NewRef(*ownerType, *ownerID)
	story, err := s.checker.RequireSameStory(ctx, models.NewRef(models.KindStory, storyID), owner, userID)
	if err != nil {
		var assocErr *models.AssociationError
		if errors.As(err, &assocErr) {
			return nil, &models.AssociationError{A: kind, B: owner.Kind}
		}
		return nil, err
	}
	return story, nil
}

func hasOwner(ownerType *models.EntityKind, ownerID *uuid.UUID) bool {
	return ownerType != nil && *ownerType != "" && ownerID != nil && *ownerID != uuid.Nil
}

func galleryItemParent(g *models.GalleryItem) models.Ref { return storyParent(g.StoryID) }

func suggestionParent(sg *models.Suggestion) models.Ref { return storyParent(sg.StoryID) }

func (s *Service) GetGalleryItem(ctx context.Context, userID, itemID uuid.UUID) (*models.GalleryItem, error) {
	item, _, err := loadOwned(ctx, s, s.stores.GalleryItems, models.KindGalleryItem, itemID, userID, galleryItemParent)
	return item, err
}

func (s *Service) GetSuggestion(ctx context.Context, userID, suggestionID uuid.UUID) (*models.Suggestion, error) {
	suggestion, _, err := loadOwned(ctx, s, s.stores.Suggestions, models.KindSuggestion, suggestionID, userID, suggestionParent)
	return suggestion, err
}

func (s *Service) CreateGalleryItem(ctx context.Context, userID uuid.UUID, in models.CreateGalleryItemInput) (*models.GalleryItem, error) {
	story, err := s.requireOwnerInStory(ctx, userID, in.StoryID, models.KindGalleryItem, in.OwnerType, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return nil, models.NewMissingField("imageUrl")
	}
	item := &models.GalleryItem{
		ID:       models.NewID(),
		StoryID:  story.ID,
		ImageURL: in.ImageURL,
		Caption:  in.Caption,
	}
	if hasOwner(in.OwnerType, in.OwnerID) {
		item.OwnerType, item.OwnerID = in.OwnerType, in.OwnerID
	}
	item.Touch(s.now())
	if err := s.stores.GalleryItems.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save gallery item: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindGalleryItem, item.ID.String(), interfaces.ContentActionCreated)
	return item, nil
}

func (s *Service) ListGalleryItems(ctx context.Context, userID, storyID uuid.UUID) ([]*models.GalleryItem, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	items, err := s.stores.GalleryItems.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	return items, nil
}

func (s *Service) UpdateGalleryItem(ctx context.Context, userID uuid.UUID, in models.UpdateGalleryItemInput) (*models.GalleryItem, error) {
	item, story, err := loadOwned(ctx, s, s.stores.GalleryItems, models.KindGalleryItem, in.ID, userID, galleryItemParent)
	if err != nil {
		return nil, err
	}
	switch {
	case in.ClearOwner:
		item.OwnerType, item.OwnerID = nil, nil
	case in.OwnerType != nil || in.OwnerID != nil:
		if _, err := s.requireOwnerInStory(ctx, userID, item.StoryID, models.KindGalleryItem, in.OwnerType, in.OwnerID); err != nil {
			return nil, err
		}
		item.OwnerType, item.OwnerID = in.OwnerType, in.OwnerID
	}
	if in.Caption != nil {
		item.Caption = *in.Caption
	}
	item.Touch(s.now())
	if err := s.stores.GalleryItems.Update(ctx, item); err != nil {
		return nil, storeErr(models.KindGalleryItem, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindGalleryItem, item.ID.String(), interfaces.ContentActionUpdated)
	return item, nil
}

func (s *Service) DeleteGalleryItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, story, err := loadOwned(ctx, s, s.stores.GalleryItems, models.KindGalleryItem, itemID, userID, galleryItemParent)
	if err != nil {
		return err
	}
	if err := s.stores.GalleryItems.Delete(ctx, item.ID); err != nil {
		return storeErr(models.KindGalleryItem, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindGalleryItem, item.ID.String(), interfaces.ContentActionDeleted)
	return nil
}

func (s *Service) CreateSuggestion(ctx context.Context, userID uuid.UUID, in models.CreateSuggestionInput) (*models.Suggestion, error) {
	story, err := s.requireOwnerInStory(ctx, userID, in.StoryID, models.KindSuggestion, in.OwnerType, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewMissingField("content")
	}
	suggestion := &models.Suggestion{
		ID:      models.NewID(),
		StoryID: story.ID,
		Content: in.Content,
		Status:  models.SuggestionPending,
	}
	if hasOwner(in.OwnerType, in.OwnerID) {
		suggestion.OwnerType, suggestion.OwnerID = in.OwnerType, in.OwnerID
	}
	suggestion.Touch(s.now())
	if err := s.stores.Suggestions.Save(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("save suggestion: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindSuggestion, suggestion.ID.String(), interfaces.ContentActionCreated)
	return suggestion, nil
}

func (s *Service) ListSuggestions(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Suggestion, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	suggestions, err := s.stores.Suggestions.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return suggestions, nil
}

func (s *Service) UpdateSuggestion(ctx context.Context, userID uuid.UUID, in models.UpdateSuggestionInput) (*models.Suggestion, error) {
	suggestion, story, err := loadOwned(ctx, s, s.stores.Suggestions, models.KindSuggestion, in.ID, userID, suggestionParent)
	if err != nil {
		return nil, err
	}
	if in.Content != nil {
		suggestion.Content = *in.Content
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown suggestion status %q", models.ErrInvalidInput, *in.Status)
		}
		suggestion.Status = *in.Status
	}
	suggestion.Touch(s.now())
	if err := s.stores.Suggestions.Update(ctx, suggestion); err != nil {
		return nil, storeErr(models.KindSuggestion, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindSuggestion, suggestion.ID.String(), interfaces.ContentActionUpdated)
	return suggestion, nil
}

func (s *Service) DeleteSuggestion(ctx context.Context, userID, suggestionID uuid.UUID) error {
	suggestion, story, err := loadOwned(ctx, s, s.stores.Suggestions, models.KindSuggestion, suggestionID, userID, suggestionParent)
	if err != nil {
		return err
	}
	if err := s.stores.Suggestions.Delete(ctx, suggestion.ID); err != nil {
		return storeErr(models.KindSuggestion, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindSuggestion, suggestion.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
