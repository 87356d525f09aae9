package service

import (
	"context"
	"fmt"
	"strings"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

func locationParent(l *models.Location) models.Ref { return storyParent(l.StoryID) }

func (s *Service) CreateLocation(ctx context.Context, userID uuid.UUID, in models.CreateLocationInput) (*models.Location, error) {
	story, err := s.requireParent(ctx, models.KindStory, "storyId", in.StoryID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewMissingField("name")
	}
	location := &models.Location{
		ID:          models.NewID(),
		StoryID:     story.ID,
		Name:        in.Name,
		Description: in.Description,
	}
	location.Touch(s.now())
	if err := s.stores.Locations.Save(ctx, location); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	s.publish(ctx, userID, story.ID, models.KindLocation, location.ID.String(), interfaces.ContentActionCreated)
	return location, nil
}

func (s *Service) GetLocation(ctx context.Context, userID, locationID uuid.UUID) (*models.Location, error) {
	location, _, err := loadOwned(ctx, s, s.stores.Locations, models.KindLocation, locationID, userID, locationParent)
	return location, err
}

func (s *Service) ListLocations(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Location, error) {
	if _, err := s.requireParent(ctx, models.KindStory, "storyId", storyID, userID); err != nil {
		return nil, err
	}
	locations, err := s.stores.Locations.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *Service) UpdateLocation(ctx context.Context, userID uuid.UUID, in models.UpdateLocationInput) (*models.Location, error) {
	location, story, err := loadOwned(ctx, s, s.stores.Locations, models.KindLocation, in.ID, userID, locationParent)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, models.NewMissingField("name")
		}
		location.Name = *in.Name
	}
	if in.Description != nil {
		location.Description = *in.Description
	}
	location.Touch(s.now())
	if err := s.stores.Locations.Update(ctx, location); err != nil {
		return nil, storeErr(models.KindLocation, "update", err)
	}
	s.publish(ctx, userID, story.ID, models.KindLocation, location.ID.String(), interfaces.ContentActionUpdated)
	return location, nil
}

func (s *Service) DeleteLocation(ctx context.Context, userID, locationID uuid.UUID) error {
	location, story, err := loadOwned(ctx, s, s.stores.Locations, models.KindLocation, locationID, userID, locationParent)
	if err != nil {
		return err
	}
	if err := s.stores.Locations.Delete(ctx, location.ID); err != nil {
		return storeErr(models.KindLocation, "delete", err)
	}
	s.publish(ctx, userID, story.ID, models.KindLocation, location.ID.String(), interfaces.ContentActionDeleted)
	return nil
}
