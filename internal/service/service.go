// Package service содержит use case'ы органайзера историй. Каждая операция получает
// userID явно, проверяет цепочку владения и только потом обращается к хранилищу.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-organizer/internal/batch"
	"story-organizer/internal/narrative"
	"story-organizer/internal/ownership"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service набор use case'ов над деревом истории.
type Service struct {
	stores    interfaces.Stores
	resolver  *ownership.Resolver
	checker   *ownership.Checker
	graph     *narrative.Graph
	batch     *batch.Coordinator
	publisher interfaces.ContentEventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// Deps зависимости Service. Publisher может быть nil - события тогда не публикуются.
type Deps struct {
	Stores      interfaces.Stores
	Coordinator *batch.Coordinator
	Publisher   interfaces.ContentEventPublisher
	Logger      *zap.Logger
}

// New собирает Service вместе с Resolver, Checker и Graph поверх переданных хранилищ.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := ownership.NewResolver(ownership.DefaultChains(deps.Stores), deps.Stores.Stories, logger)
	checker := ownership.NewChecker(resolver)
	coordinator := deps.Coordinator
	if coordinator == nil {
		coordinator = batch.NewCoordinator(batch.Config{}, nil, logger)
	}
	return &Service{
		stores:    deps.Stores,
		resolver:  resolver,
		checker:   checker,
		graph:     narrative.NewGraph(deps.Stores, resolver, checker, logger),
		batch:     coordinator,
		publisher: deps.Publisher,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("StoryOrganizerService"),
	}
}

// Resolver доступ к проверке владения (нужен обработчикам, которые проверяют произвольные ссылки).
func (s *Service) Resolver() *ownership.Resolver { return s.resolver }

// load загружает сущность по id; отсутствие превращается в "<Type> not found".
func load[T any](ctx context.Context, finder interfaces.Finder[T], kind models.EntityKind, id uuid.UUID) (*T, error) {
	if id == uuid.Nil {
		return nil, models.NewMissingField("id")
	}
	entity, err := finder.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound(kind)
		}
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return entity, nil
}

// loadOwned загружает существующую запись и разрешает владение от ее родителя.
func loadOwned[T any](ctx context.Context, s *Service, finder interfaces.Finder[T], kind models.EntityKind, id, userID uuid.UUID, parent func(*T) models.Ref) (*T, *models.Story, error) {
	entity, err := load(ctx, finder, kind, id)
	if err != nil {
		return nil, nil, err
	}
	story, err := s.resolver.Resolve(ctx, parent(entity), userID)
	if err != nil {
		return nil, nil, err
	}
	return entity, story, nil
}

// storyParent родитель для сущностей, висящих прямо на истории.
func storyParent(id uuid.UUID) models.Ref { return models.NewRef(models.KindStory, id) }

// requireParent проверяет, что родитель задан и принадлежит пользователю.
func (s *Service) requireParent(ctx context.Context, kind models.EntityKind, field string, id, userID uuid.UUID) (*models.Story, error) {
	if id == uuid.Nil {
		return nil, models.NewMissingField(field)
	}
	return s.resolver.Resolve(ctx, models.NewRef(kind, id), userID)
}

// requireSameStoryAs проверяет, что новый родитель лежит в той же истории, что и сущность.
func (s *Service) requireSameStoryAs(ctx context.Context, current *models.Story, entity models.EntityKind, parent models.Ref, userID uuid.UUID) error {
	story, err := s.resolver.Resolve(ctx, parent, userID)
	if err != nil {
		return err
	}
	if story.ID != current.ID {
		return &models.AssociationError{A: entity, B: parent.Kind}
	}
	return nil
}

// storeErr переводит ErrNotFound хранилища при записи в "<Type> not found".
func storeErr(kind models.EntityKind, op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.NewNotFound(kind)
	}
	return fmt.Errorf("%s %s: %w", op, kind, err)
}

// parseKey разбирает строковый идентификатор элемента пакета.
// Пустой - MissingRequiredField, неразбираемый - "<Type> not found".
func parseKey(kind models.EntityKind, field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, models.NewMissingField(field)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, models.NewNotFound(kind)
	}
	return id, nil
}

// idGuard отклоняет повторный id внутри одного пакета обновлений.
type idGuard map[uuid.UUID]struct{}

func (g idGuard) check(id uuid.UUID) error {
	if _, dup := g[id]; dup {
		return fmt.Errorf("%w: duplicate id %s", models.ErrInvalidInput, id)
	}
	g[id] = struct{}{}
	return nil
}

// owned подготовленная в пакете сущность вместе с владеющей историей.
type owned[T any] struct {
	entity *T
	story  *models.Story
}

func entities[T any](items []owned[T]) []*T {
	result := make([]*T, 0, len(items))
	for _, o := range items {
		result = append(result, o.entity)
	}
	return result
}
