package interfaces

import (
	"context"

	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// Finder минимальный контракт чтения, нужный для проверки цепочки владения.
// FindByID возвращает models.ErrNotFound, если записи нет.
type Finder[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
}

// EntityStore контракт хранилища для одного типа сущностей.
// SaveMany и UpdateMany обязаны быть атомарными: либо записаны все элементы, либо ни одного.
//
//go:generate mockery --name EntityStore --output ./mocks --outpkg mocks --case=underscore
type EntityStore[T any] interface {
	Finder[T]
	FindByParent(ctx context.Context, parentID uuid.UUID) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveMany(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	UpdateMany(ctx context.Context, entities []*T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StoryStore хранилище историй; родитель истории - пользователь.
type StoryStore interface {
	EntityStore[models.Story]
}

type ChapterStore interface {
	EntityStore[models.Chapter]
}

type SceneStore interface {
	EntityStore[models.Scene]
}

type MomentStore interface {
	EntityStore[models.Moment]
}

type CharacterStore interface {
	EntityStore[models.Character]
}

type LocationStore interface {
	EntityStore[models.Location]
}

// ChoiceStore хранилище ребер графа; FindByParent возвращает исходящие ребра сцены.
type ChoiceStore interface {
	EntityStore[models.Choice]
	// ReplaceImplicit атомарно удаляет неявные ребра, исходящие из sourceSceneIDs, и сохраняет edges.
	ReplaceImplicit(ctx context.Context, sourceSceneIDs []uuid.UUID, edges []*models.Choice) error
}

// CharacterRelationStore: FindByParent возвращает отношения, где персонаж стоит на любой из сторон.
type CharacterRelationStore interface {
	EntityStore[models.CharacterRelation]
}

type TagStore interface {
	EntityStore[models.Tag]
}

type NoteStore interface {
	EntityStore[models.Note]
}

type WorldRuleStore interface {
	EntityStore[models.WorldRule]
}

type GalleryItemStore interface {
	EntityStore[models.GalleryItem]
}

type SuggestionStore interface {
	EntityStore[models.Suggestion]
}

// CharacterMomentStore хранилище связей персонаж-момент с составным ключом.
//
//go:generate mockery --name CharacterMomentStore --output ./mocks --outpkg mocks --case=underscore
type CharacterMomentStore interface {
	Find(ctx context.Context, characterID, momentID uuid.UUID) (*models.CharacterMoment, error)
	FindByCharacter(ctx context.Context, characterID uuid.UUID) ([]*models.CharacterMoment, error)
	FindByMoment(ctx context.Context, momentID uuid.UUID) ([]*models.CharacterMoment, error)
	Save(ctx context.Context, link *models.CharacterMoment) error
	SaveMany(ctx context.Context, links []*models.CharacterMoment) error
	Delete(ctx context.Context, characterID, momentID uuid.UUID) error
}

// Stores набор хранилищ всех типов сущностей.
type Stores struct {
	Stories            StoryStore
	Chapters           ChapterStore
	Scenes             SceneStore
	Moments            MomentStore
	Characters         CharacterStore
	Locations          LocationStore
	Choices            ChoiceStore
	CharacterMoments   CharacterMomentStore
	CharacterRelations CharacterRelationStore
	Tags               TagStore
	Notes              NoteStore
	WorldRules         WorldRuleStore
	GalleryItems       GalleryItemStore
	Suggestions        SuggestionStore
}
