package memory

import (
	"context"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// ChoiceStore добавляет к Store[models.Choice] атомарную замену неявных ребер.
type ChoiceStore struct {
	*Store[models.Choice]
}

var _ interfaces.ChoiceStore = (*ChoiceStore)(nil)

func (s *ChoiceStore) ReplaceImplicit(ctx context.Context, sourceSceneIDs []uuid.UUID, edges []*models.Choice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sources := make(map[uuid.UUID]struct{}, len(sourceSceneIDs))
	for _, id := range sourceSceneIDs {
		sources[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.rows {
		if _, ok := sources[c.SceneID]; ok && c.IsImplicit {
			delete(s.rows, id)
		}
	}
	for _, e := range edges {
		s.rows[e.ID] = *e
	}
	return nil
}

// Stores набор in-memory хранилищ с доступом к конкретным типам (удобно в тестах).
type Stores struct {
	Stories            *Store[models.Story]
	Chapters           *Store[models.Chapter]
	Scenes             *Store[models.Scene]
	Moments            *Store[models.Moment]
	Characters         *Store[models.Character]
	Locations          *Store[models.Location]
	Choices            *ChoiceStore
	CharacterMoments   *CharacterMomentStore
	CharacterRelations *Store[models.CharacterRelation]
	Tags               *Store[models.Tag]
	Notes              *Store[models.Note]
	WorldRules         *Store[models.WorldRule]
	GalleryItems       *Store[models.GalleryItem]
	Suggestions        *Store[models.Suggestion]
}

func one(id uuid.UUID) []uuid.UUID { return []uuid.UUID{id} }

// NewStores создает пустые хранилища для всех типов сущностей.
func NewStores() *Stores {
	return &Stores{
		Stories: NewStore(models.KindStory,
			func(e *models.Story) uuid.UUID { return e.ID },
			func(e *models.Story) []uuid.UUID { return one(e.UserID) }),
		Chapters: NewStore(models.KindChapter,
			func(e *models.Chapter) uuid.UUID { return e.ID },
			func(e *models.Chapter) []uuid.UUID { return one(e.StoryID) }),
		Scenes: NewStore(models.KindScene,
			func(e *models.Scene) uuid.UUID { return e.ID },
			func(e *models.Scene) []uuid.UUID { return one(e.ChapterID) }),
		Moments: NewStore(models.KindMoment,
			func(e *models.Moment) uuid.UUID { return e.ID },
			func(e *models.Moment) []uuid.UUID { return one(e.SceneID) }),
		Characters: NewStore(models.KindCharacter,
			func(e *models.Character) uuid.UUID { return e.ID },
			func(e *models.Character) []uuid.UUID { return one(e.StoryID) }),
		Locations: NewStore(models.KindLocation,
			func(e *models.Location) uuid.UUID { return e.ID },
			func(e *models.Location) []uuid.UUID { return one(e.StoryID) }),
		Choices: &ChoiceStore{NewStore(models.KindChoice,
			func(e *models.Choice) uuid.UUID { return e.ID },
			func(e *models.Choice) []uuid.UUID { return one(e.SceneID) })},
		CharacterMoments: NewCharacterMomentStore(),
		CharacterRelations: NewStore(models.KindCharacterRelation,
			func(e *models.CharacterRelation) uuid.UUID { return e.ID },
			func(e *models.CharacterRelation) []uuid.UUID { return []uuid.UUID{e.CharID1, e.CharID2} }),
		Tags: NewStore(models.KindTag,
			func(e *models.Tag) uuid.UUID { return e.ID },
			func(e *models.Tag) []uuid.UUID { return one(e.StoryID) }),
		Notes: NewStore(models.KindNote,
			func(e *models.Note) uuid.UUID { return e.ID },
			func(e *models.Note) []uuid.UUID { return one(e.StoryID) }),
		WorldRules: NewStore(models.KindWorldRule,
			func(e *models.WorldRule) uuid.UUID { return e.ID },
			func(e *models.WorldRule) []uuid.UUID { return one(e.StoryID) }),
		GalleryItems: NewStore(models.KindGalleryItem,
			func(e *models.GalleryItem) uuid.UUID { return e.ID },
			func(e *models.GalleryItem) []uuid.UUID { return one(e.StoryID) }),
		Suggestions: NewStore(models.KindSuggestion,
			func(e *models.Suggestion) uuid.UUID { return e.ID },
			func(e *models.Suggestion) []uuid.UUID { return one(e.StoryID) }),
	}
}

// Interfaces возвращает хранилища в виде набора интерфейсов для сервисного слоя.
func (s *Stores) Interfaces() interfaces.Stores {
	return interfaces.Stores{
		Stories:            s.Stories,
		Chapters:           s.Chapters,
		Scenes:             s.Scenes,
		Moments:            s.Moments,
		Characters:         s.Characters,
		Locations:          s.Locations,
		Choices:            s.Choices,
		CharacterMoments:   s.CharacterMoments,
		CharacterRelations: s.CharacterRelations,
		Tags:               s.Tags,
		Notes:              s.Notes,
		WorldRules:         s.WorldRules,
		GalleryItems:       s.GalleryItems,
		Suggestions:        s.Suggestions,
	}
}
