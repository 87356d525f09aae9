package ownership

import (
	"context"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
)

// Link один шаг цепочки владения: загружает сущность своего типа и возвращает ссылку на родителя.
// Отсутствие сущности сообщается через models.ErrNotFound.
type Link struct {
	Parent models.EntityKind
	lookup func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Via описывает шаг "найти T по id и перейти по полю field к родителю типа parent".
func Via[T any](finder interfaces.Finder[T], parent models.EntityKind, field func(*T) uuid.UUID) Link {
	return Link{
		Parent: parent,
		lookup: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			entity, err := finder.FindByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return field(entity), nil
		},
	}
}

// Chains таблица форм цепочек: тип сущности -> шаг к родителю.
// Story в таблицу не входит, это конец любой цепочки.
type Chains map[models.EntityKind]Link

// DefaultChains строит таблицу цепочек для всех типов сущностей поверх хранилищ.
func DefaultChains(stores interfaces.Stores) Chains {
	return Chains{
		models.KindChapter: Via[models.Chapter](stores.Chapters, models.KindStory,
			func(c *models.Chapter) uuid.UUID { return c.StoryID }),
		models.KindScene: Via[models.Scene](stores.Scenes, models.KindChapter,
			func(s *models.Scene) uuid.UUID { return s.ChapterID }),
		models.KindMoment: Via[models.Moment](stores.Moments, models.KindScene,
			func(m *models.Moment) uuid.UUID { return m.SceneID }),
		models.KindCharacter: Via[models.Character](stores.Characters, models.KindStory,
			func(c *models.Character) uuid.UUID { return c.StoryID }),
		models.KindLocation: Via[models.Location](stores.Locations, models.KindStory,
			func(l *models.Location) uuid.UUID { return l.StoryID }),
		models.KindChoice: Via[models.Choice](stores.Choices, models.KindScene,
			func(c *models.Choice) uuid.UUID { return c.SceneID }),
		// Оба персонажа отношения всегда из одной истории, достаточно первого.
		models.KindCharacterRelation: Via[models.CharacterRelation](stores.CharacterRelations, models.KindCharacter,
			func(r *models.CharacterRelation) uuid.UUID { return r.CharID1 }),
		models.KindTag: Via[models.Tag](stores.Tags, models.KindStory,
			func(t *models.Tag) uuid.UUID { return t.StoryID }),
		models.KindNote: Via[models.Note](stores.Notes, models.KindStory,
			func(n *models.Note) uuid.UUID { return n.StoryID }),
		models.KindWorldRule: Via[models.WorldRule](stores.WorldRules, models.KindStory,
			func(w *models.WorldRule) uuid.UUID { return w.StoryID }),
		models.KindGalleryItem: Via[models.GalleryItem](stores.GalleryItems, models.KindStory,
			func(g *models.GalleryItem) uuid.UUID { return g.StoryID }),
		models.KindSuggestion: Via[models.Suggestion](stores.Suggestions, models.KindStory,
			func(s *models.Suggestion) uuid.UUID { return s.StoryID }),
	}
}

// Path возвращает последовательность типов, которые загружаются при разрешении kind,
// например [moment scene chapter story]. ok == false для типа без цепочки.
func (c Chains) Path(kind models.EntityKind) (path []models.EntityKind, ok bool) {
	for current := kind; ; {
		path = append(path, current)
		if current == models.KindStory {
			return path, true
		}
		link, found := c[current]
		if !found || len(path) > len(c)+1 {
			return nil, false
		}
		current = link.Parent
	}
}
