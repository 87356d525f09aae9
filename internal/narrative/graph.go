// Package narrative хранит граф повествования: сцены - узлы, выборы (Choice) - направленные ребра.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-organizer/internal/ownership"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Graph операции над ребрами графа сцен.
//
// Правила типов историй:
//   - linear принимает только неявные ребра;
//   - из сцены выходит не больше одного неявного ребра;
//   - циклы разрешены, обходящий граф клиент сам защищается от зацикливания.
type Graph struct {
	choices  interfaces.ChoiceStore
	scenes   interfaces.SceneStore
	chapters interfaces.ChapterStore
	resolver *ownership.Resolver
	checker  *ownership.Checker
	now      func() time.Time
	logger   *zap.Logger
}

func NewGraph(stores interfaces.Stores, resolver *ownership.Resolver, checker *ownership.Checker, logger *zap.Logger) *Graph {
	return &Graph{
		choices:  stores.Choices,
		scenes:   stores.Scenes,
		chapters: stores.Chapters,
		resolver: resolver,
		checker:  checker,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.Named("NarrativeGraph"),
	}
}

// AddChoice создает ребро sceneId -> nextSceneId. Обе сцены должны принадлежать одной истории пользователя.
//
// Кроме ошибок разрешения владения возвращает:
//   - models.ErrCrossStoryAssociation (AssociationError), если сцены из разных историй;
//   - models.ErrBranchingNotAllowed для авторского (не неявного) ребра в линейной истории;
//   - models.ErrImplicitChoiceConflict, если у sceneId уже есть неявное ребро.
func (g *Graph) AddChoice(ctx context.Context, userID uuid.UUID, in models.CreateChoiceInput) (*models.Choice, *models.Story, error) {
	if in.SceneID == uuid.Nil {
		return nil, nil, models.NewMissingField("sceneId")
	}
	if in.NextSceneID == uuid.Nil {
		return nil, nil, models.NewMissingField("nextSceneId")
	}

	story, err := g.checker.RequireSameStory(ctx,
		models.NewRef(models.KindScene, in.SceneID),
		models.NewRef(models.KindScene, in.NextSceneID),
		userID)
	if err != nil {
		return nil, nil, err
	}
	if story.Type == models.StoryTypeLinear && !in.IsImplicit {
		return nil, nil, models.ErrBranchingNotAllowed
	}
	if in.IsImplicit {
		if err := g.ensureNoImplicit(ctx, in.SceneID); err != nil {
			return nil, nil, err
		}
	}

	choice := &models.Choice{
		ID:          models.NewID(),
		SceneID:     in.SceneID,
		NextSceneID: in.NextSceneID,
		Text:        in.Text,
		IsImplicit:  in.IsImplicit,
	}
	choice.Touch(g.now())
	if err := g.choices.Save(ctx, choice); err != nil {
		g.logger.Error("Failed to save choice", zap.Stringer("sceneID", in.SceneID), zap.Error(err))
		return nil, nil, fmt.Errorf("save choice: %w", err)
	}
	g.logger.Info("Choice added",
		zap.Stringer("choiceID", choice.ID),
		zap.Stringer("sceneID", choice.SceneID),
		zap.Stringer("nextSceneID", choice.NextSceneID),
		zap.Bool("implicit", choice.IsImplicit))
	return choice, story, nil
}

// OutgoingChoices возвращает ребра, выходящие из сцены, упорядоченные по id.
// Для linear истории это не больше одного неявного ребра; если оно не сохранено,
// оно выводится на лету ("следующая сцена по index") и имеет нулевой ID.
func (g *Graph) OutgoingChoices(ctx context.Context, userID, sceneID uuid.UUID) ([]*models.Choice, error) {
	if sceneID == uuid.Nil {
		return nil, models.NewMissingField("sceneId")
	}
	story, err := g.resolver.Resolve(ctx, models.NewRef(models.KindScene, sceneID), userID)
	if err != nil {
		return nil, err
	}
	edges, err := g.choices.FindByParent(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("list choices of scene %s: %w", sceneID, err)
	}
	sortChoices(edges)
	if story.Type == models.StoryTypeBranching {
		return edges, nil
	}

	for _, e := range edges {
		if e.IsImplicit {
			return []*models.Choice{e}, nil
		}
	}
	next, err := g.nextSceneByIndex(ctx, story.ID, sceneID)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return []*models.Choice{}, nil
	}
	return []*models.Choice{{SceneID: sceneID, NextSceneID: next.ID, IsImplicit: true}}, nil
}

// GetChoice возвращает ребро после проверки владения.
func (g *Graph) GetChoice(ctx context.Context, userID, choiceID uuid.UUID) (*models.Choice, error) {
	choice, err := g.findChoice(ctx, choiceID)
	if err != nil {
		return nil, err
	}
	if _, err := g.resolver.Resolve(ctx, models.NewRef(models.KindScene, choice.SceneID), userID); err != nil {
		return nil, err
	}
	return choice, nil
}

// UpdateChoice меняет текст и/или цель ребра. Новая цель проверяется на принадлежность той же истории.
func (g *Graph) UpdateChoice(ctx context.Context, userID uuid.UUID, in models.UpdateChoiceInput) (*models.Choice, *models.Story, error) {
	choice, err := g.findChoice(ctx, in.ID)
	if err != nil {
		return nil, nil, err
	}
	story, err := g.resolver.Resolve(ctx, models.NewRef(models.KindScene, choice.SceneID), userID)
	if err != nil {
		return nil, nil, err
	}

	if in.NextSceneID != nil && *in.NextSceneID != choice.NextSceneID {
		if *in.NextSceneID == uuid.Nil {
			return nil, nil, models.NewMissingField("nextSceneId")
		}
		if _, err := g.checker.RequireSameStory(ctx,
			models.NewRef(models.KindScene, choice.SceneID),
			models.NewRef(models.KindScene, *in.NextSceneID),
			userID); err != nil {
			return nil, nil, err
		}
		choice.NextSceneID = *in.NextSceneID
	}
	if in.Text != nil {
		choice.Text = *in.Text
	}
	choice.Touch(g.now())

	if err := g.choices.Update(ctx, choice); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.NewNotFound(models.KindChoice)
		}
		return nil, nil, fmt.Errorf("update choice %s: %w", choice.ID, err)
	}
	return choice, story, nil
}

// DeleteChoice удаляет ребро после проверки владения.
func (g *Graph) DeleteChoice(ctx context.Context, userID, choiceID uuid.UUID) (*models.Choice, *models.Story, error) {
	choice, err := g.findChoice(ctx, choiceID)
	if err != nil {
		return nil, nil, err
	}
	story, err := g.resolver.Resolve(ctx, models.NewRef(models.KindScene, choice.SceneID), userID)
	if err != nil {
		return nil, nil, err
	}
	if err := g.choices.Delete(ctx, choice.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.NewNotFound(models.KindChoice)
		}
		return nil, nil, fmt.Errorf("delete choice %s: %w", choice.ID, err)
	}
	g.logger.Info("Choice deleted", zap.Stringer("choiceID", choice.ID), zap.Stringer("sceneID", choice.SceneID))
	return choice, story, nil
}

// RebuildImplicitChoices пересчитывает линейный порядок сцен истории и атомарно
// заменяет все ее неявные ребра цепочкой "сцена -> следующая сцена".
func (g *Graph) RebuildImplicitChoices(ctx context.Context, userID, storyID uuid.UUID) ([]*models.Choice, *models.Story, error) {
	story, err := g.resolver.ResolveStory(ctx, storyID, userID)
	if err != nil {
		return nil, nil, err
	}
	order, err := g.linearOrder(ctx, storyID)
	if err != nil {
		return nil, nil, err
	}

	now := g.now()
	sources := make([]uuid.UUID, 0, len(order))
	edges := make([]*models.Choice, 0, len(order))
	for i, scene := range order {
		sources = append(sources, scene.ID)
		if i+1 == len(order) {
			break
		}
		edge := &models.Choice{
			ID:          models.NewID(),
			SceneID:     scene.ID,
			NextSceneID: order[i+1].ID,
			IsImplicit:  true,
		}
		edge.Touch(now)
		edges = append(edges, edge)
	}
	if err := g.choices.ReplaceImplicit(ctx, sources, edges); err != nil {
		g.logger.Error("Failed to replace implicit choices", zap.Stringer("storyID", storyID), zap.Error(err))
		return nil, nil, fmt.Errorf("replace implicit choices of story %s: %w", storyID, err)
	}
	g.logger.Info("Implicit choices rebuilt", zap.Stringer("storyID", storyID), zap.Int("edges", len(edges)))
	return edges, story, nil
}

func (g *Graph) findChoice(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	if id == uuid.Nil {
		return nil, models.NewMissingField("id")
	}
	choice, err := g.choices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFound(models.KindChoice)
		}
		return nil, fmt.Errorf("load choice %s: %w", id, err)
	}
	return choice, nil
}

func (g *Graph) ensureNoImplicit(ctx context.Context, sceneID uuid.UUID) error {
	edges, err := g.choices.FindByParent(ctx, sceneID)
	if err != nil {
		return fmt.Errorf("list choices of scene %s: %w", sceneID, err)
	}
	for _, e := range edges {
		if e.IsImplicit {
			return models.ErrImplicitChoiceConflict
		}
	}
	return nil
}

// linearOrder сцены истории в порядке чтения: главы по index, внутри главы сцены по index.
func (g *Graph) linearOrder(ctx context.Context, storyID uuid.UUID) ([]*models.Scene, error) {
	chapters, err := g.chapters.FindByParent(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("list chapters of story %s: %w", storyID, err)
	}
	models.SortByIndex(chapters)

	order := make([]*models.Scene, 0)
	for _, ch := range chapters {
		scenes, err := g.scenes.FindByParent(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("list scenes of chapter %s: %w", ch.ID, err)
		}
		models.SortByIndex(scenes)
		order = append(order, scenes...)
	}
	return order, nil
}

// nextSceneByIndex следующая сцена в порядке чтения или nil для последней.
func (g *Graph) nextSceneByIndex(ctx context.Context, storyID, sceneID uuid.UUID) (*models.Scene, error) {
	order, err := g.linearOrder(ctx, storyID)
	if err != nil {
		return nil, err
	}
	for i, s := range order {
		if s.ID == sceneID && i+1 < len(order) {
			return order[i+1], nil
		}
	}
	return nil, nil
}
