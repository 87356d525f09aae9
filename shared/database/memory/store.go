// Package memory provides an in-memory implementation of the entity stores
// used for tests and ephemeral environments (STORAGE_DRIVER=memory).
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

// Store хранит сущности одного типа в памяти. Наружу отдаются только копии.
type Store[T any] struct {
	mu      sync.RWMutex
	kind    models.EntityKind
	rows    map[uuid.UUID]T
	id      func(*T) uuid.UUID
	parents func(*T) []uuid.UUID
}

// NewStore создает хранилище. parents возвращает идентификаторы, по которым запись ищется в FindByParent.
func NewStore[T any](kind models.EntityKind, id func(*T) uuid.UUID, parents func(*T) []uuid.UUID) *Store[T] {
	return &Store[T]{
		kind:    kind,
		rows:    make(map[uuid.UUID]T),
		id:      id,
		parents: parents,
	}
}

var _ interfaces.EntityStore[models.Story] = (*Store[models.Story])(nil)

func (s *Store[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &row, nil
}

func (s *Store[T]) FindByParent(ctx context.Context, parentID uuid.UUID) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*T, 0)
	for _, row := range s.rows {
		row := row
		for _, p := range s.parents(&row) {
			if p == parentID {
				result = append(result, &row)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := s.id(result[i]), s.id(result[j])
		return bytes.Compare(a[:], b[:]) < 0
	})
	return result, nil
}

func (s *Store[T]) Save(ctx context.Context, entity *T) error {
	return s.SaveMany(ctx, []*T{entity})
}

func (s *Store[T]) SaveMany(ctx context.Context, entities []*T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]struct{}, len(entities))
	for _, e := range entities {
		id := s.id(e)
		if id == uuid.Nil {
			return fmt.Errorf("memory %s store: empty id", s.kind)
		}
		if _, exists := s.rows[id]; exists {
			return fmt.Errorf("memory %s store: duplicate id %s: %w", s.kind, id, models.ErrAlreadyExists)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("memory %s store: duplicate id %s in batch: %w", s.kind, id, models.ErrAlreadyExists)
		}
		seen[id] = struct{}{}
	}
	for _, e := range entities {
		s.rows[s.id(e)] = *e
	}
	return nil
}

func (s *Store[T]) Update(ctx context.Context, entity *T) error {
	return s.UpdateMany(ctx, []*T{entity})
}

func (s *Store[T]) UpdateMany(ctx context.Context, entities []*T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		if _, exists := s.rows[s.id(e)]; !exists {
			return fmt.Errorf("memory %s store: update %s: %w", s.kind, s.id(e), models.ErrNotFound)
		}
	}
	for _, e := range entities {
		s.rows[s.id(e)] = *e
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[id]; !exists {
		return models.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Len возвращает количество записей.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
