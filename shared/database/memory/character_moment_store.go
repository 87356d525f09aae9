package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

type cmKey struct {
	characterID uuid.UUID
	momentID    uuid.UUID
}

// CharacterMomentStore in-memory хранилище связей персонаж-момент.
type CharacterMomentStore struct {
	mu    sync.RWMutex
	links map[cmKey]models.CharacterMoment
}

var _ interfaces.CharacterMomentStore = (*CharacterMomentStore)(nil)

func NewCharacterMomentStore() *CharacterMomentStore {
	return &CharacterMomentStore{links: make(map[cmKey]models.CharacterMoment)}
}

func (s *CharacterMomentStore) Find(ctx context.Context, characterID, momentID uuid.UUID) (*models.CharacterMoment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[cmKey{characterID, momentID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &link, nil
}

func (s *CharacterMomentStore) FindByCharacter(ctx context.Context, characterID uuid.UUID) ([]*models.CharacterMoment, error) {
	return s.filter(ctx, func(k cmKey) bool { return k.characterID == characterID })
}

func (s *CharacterMomentStore) FindByMoment(ctx context.Context, momentID uuid.UUID) ([]*models.CharacterMoment, error) {
	return s.filter(ctx, func(k cmKey) bool { return k.momentID == momentID })
}

func (s *CharacterMomentStore) filter(ctx context.Context, match func(cmKey) bool) ([]*models.CharacterMoment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.CharacterMoment, 0)
	for k, link := range s.links {
		if match(k) {
			link := link
			result = append(result, &link)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if c := bytes.Compare(result[i].CharacterID[:], result[j].CharacterID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(result[i].MomentID[:], result[j].MomentID[:]) < 0
	})
	return result, nil
}

func (s *CharacterMomentStore) Save(ctx context.Context, link *models.CharacterMoment) error {
	return s.SaveMany(ctx, []*models.CharacterMoment{link})
}

func (s *CharacterMomentStore) SaveMany(ctx context.Context, links []*models.CharacterMoment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range links {
		if _, exists := s.links[cmKey{l.CharacterID, l.MomentID}]; exists {
			return fmt.Errorf("memory character_moment store: link %s: %w", l.Key(), models.ErrAlreadyExists)
		}
	}
	for _, l := range links {
		s.links[cmKey{l.CharacterID, l.MomentID}] = *l
	}
	return nil
}

func (s *CharacterMomentStore) Delete(ctx context.Context, characterID, momentID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := cmKey{characterID, momentID}
	if _, exists := s.links[k]; !exists {
		return models.ErrNotFound
	}
	delete(s.links, k)
	return nil
}

// Len возвращает количество связей.
func (s *CharacterMomentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}
