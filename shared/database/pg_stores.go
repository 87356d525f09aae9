package database

import (
	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile time checks
var (
	_ interfaces.StoryStore             = (*pgEntityStore[models.Story])(nil)
	_ interfaces.ChapterStore           = (*pgEntityStore[models.Chapter])(nil)
	_ interfaces.SceneStore             = (*pgEntityStore[models.Scene])(nil)
	_ interfaces.MomentStore            = (*pgEntityStore[models.Moment])(nil)
	_ interfaces.CharacterStore         = (*pgEntityStore[models.Character])(nil)
	_ interfaces.LocationStore          = (*pgEntityStore[models.Location])(nil)
	_ interfaces.CharacterRelationStore = (*pgEntityStore[models.CharacterRelation])(nil)
	_ interfaces.TagStore               = (*pgEntityStore[models.Tag])(nil)
	_ interfaces.NoteStore              = (*pgEntityStore[models.Note])(nil)
	_ interfaces.WorldRuleStore         = (*pgEntityStore[models.WorldRule])(nil)
	_ interfaces.GalleryItemStore       = (*pgEntityStore[models.GalleryItem])(nil)
	_ interfaces.SuggestionStore        = (*pgEntityStore[models.Suggestion])(nil)
)

var storySpec = tableSpec[models.Story]{
	kind:          models.KindStory,
	table:         "stories",
	columns:       []string{"id", "user_id", "title", "description", "story_type", "created_at", "updated_at"},
	parentColumns: []string{"user_id"},
	orderBy:       "created_at, id",
	values: func(s *models.Story) []any {
		return []any{s.ID, s.UserID, s.Title, s.Description, s.Type, s.CreatedAt, s.UpdatedAt}
	},
	id: func(s *models.Story) uuid.UUID { return s.ID },
}

var chapterSpec = tableSpec[models.Chapter]{
	kind:          models.KindChapter,
	table:         "chapters",
	columns:       []string{"id", "story_id", "title", "idx", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	orderBy:       "idx, id",
	values: func(c *models.Chapter) []any {
		return []any{c.ID, c.StoryID, c.Title, c.Index, c.CreatedAt, c.UpdatedAt}
	},
	id: func(c *models.Chapter) uuid.UUID { return c.ID },
}

var sceneSpec = tableSpec[models.Scene]{
	kind:          models.KindScene,
	table:         "scenes",
	columns:       []string{"id", "chapter_id", "location_id", "title", "summary", "idx", "created_at", "updated_at"},
	parentColumns: []string{"chapter_id"},
	orderBy:       "idx, id",
	values: func(s *models.Scene) []any {
		return []any{s.ID, s.ChapterID, s.LocationID, s.Title, s.Summary, s.Index, s.CreatedAt, s.UpdatedAt}
	},
	id: func(s *models.Scene) uuid.UUID { return s.ID },
}

var momentSpec = tableSpec[models.Moment]{
	kind:          models.KindMoment,
	table:         "moments",
	columns:       []string{"id", "scene_id", "title", "content", "idx", "created_at", "updated_at"},
	parentColumns: []string{"scene_id"},
	orderBy:       "idx, id",
	values: func(m *models.Moment) []any {
		return []any{m.ID, m.SceneID, m.Title, m.Content, m.Index, m.CreatedAt, m.UpdatedAt}
	},
	id: func(m *models.Moment) uuid.UUID { return m.ID },
}

var characterSpec = tableSpec[models.Character]{
	kind:          models.KindCharacter,
	table:         "characters",
	columns:       []string{"id", "story_id", "name", "description", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(c *models.Character) []any {
		return []any{c.ID, c.StoryID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt}
	},
	id: func(c *models.Character) uuid.UUID { return c.ID },
}

var locationSpec = tableSpec[models.Location]{
	kind:          models.KindLocation,
	table:         "locations",
	columns:       []string{"id", "story_id", "name", "description", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(l *models.Location) []any {
		return []any{l.ID, l.StoryID, l.Name, l.Description, l.CreatedAt, l.UpdatedAt}
	},
	id: func(l *models.Location) uuid.UUID { return l.ID },
}

var choiceSpec = tableSpec[models.Choice]{
	kind:          models.KindChoice,
	table:         "choices",
	columns:       []string{"id", "scene_id", "next_scene_id", "text", "is_implicit", "created_at", "updated_at"},
	parentColumns: []string{"scene_id"},
	values: func(c *models.Choice) []any {
		return []any{c.ID, c.SceneID, c.NextSceneID, c.Text, c.IsImplicit, c.CreatedAt, c.UpdatedAt}
	},
	id: func(c *models.Choice) uuid.UUID { return c.ID },
}

// Отношение находится по любому из двух персонажей.
var relationSpec = tableSpec[models.CharacterRelation]{
	kind:          models.KindCharacterRelation,
	table:         "character_relations",
	columns:       []string{"id", "char_id_1", "char_id_2", "relation_type", "created_at", "updated_at"},
	parentColumns: []string{"char_id_1", "char_id_2"},
	values: func(r *models.CharacterRelation) []any {
		return []any{r.ID, r.CharID1, r.CharID2, r.RelationType, r.CreatedAt, r.UpdatedAt}
	},
	id: func(r *models.CharacterRelation) uuid.UUID { return r.ID },
}

var tagSpec = tableSpec[models.Tag]{
	kind:          models.KindTag,
	table:         "tags",
	columns:       []string{"id", "story_id", "name", "color", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(t *models.Tag) []any {
		return []any{t.ID, t.StoryID, t.Name, t.Color, t.CreatedAt, t.UpdatedAt}
	},
	id: func(t *models.Tag) uuid.UUID { return t.ID },
}

var noteSpec = tableSpec[models.Note]{
	kind:          models.KindNote,
	table:         "notes",
	columns:       []string{"id", "story_id", "title", "content", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(n *models.Note) []any {
		return []any{n.ID, n.StoryID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt}
	},
	id: func(n *models.Note) uuid.UUID { return n.ID },
}

var worldRuleSpec = tableSpec[models.WorldRule]{
	kind:          models.KindWorldRule,
	table:         "world_rules",
	columns:       []string{"id", "story_id", "title", "description", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(w *models.WorldRule) []any {
		return []any{w.ID, w.StoryID, w.Title, w.Description, w.CreatedAt, w.UpdatedAt}
	},
	id: func(w *models.WorldRule) uuid.UUID { return w.ID },
}

var galleryItemSpec = tableSpec[models.GalleryItem]{
	kind:          models.KindGalleryItem,
	table:         "gallery_items",
	columns:       []string{"id", "story_id", "owner_type", "owner_id", "image_url", "caption", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(g *models.GalleryItem) []any {
		return []any{g.ID, g.StoryID, kindToText(g.OwnerType), g.OwnerID, g.ImageURL, g.Caption, g.CreatedAt, g.UpdatedAt}
	},
	id: func(g *models.GalleryItem) uuid.UUID { return g.ID },
}

var suggestionSpec = tableSpec[models.Suggestion]{
	kind:          models.KindSuggestion,
	table:         "suggestions",
	columns:       []string{"id", "story_id", "owner_type", "owner_id", "content", "status", "created_at", "updated_at"},
	parentColumns: []string{"story_id"},
	values: func(s *models.Suggestion) []any {
		return []any{s.ID, s.StoryID, kindToText(s.OwnerType), s.OwnerID, s.Content, string(s.Status), s.CreatedAt, s.UpdatedAt}
	},
	id: func(s *models.Suggestion) uuid.UUID { return s.ID },
}

func kindToText(k *models.EntityKind) *string {
	if k == nil {
		return nil
	}
	s := string(*k)
	return &s
}

// NewPgStores создает Postgres-реализации всех хранилищ поверх одного пула (или транзакции).
func NewPgStores(db interfaces.DBTX, logger *zap.Logger) interfaces.Stores {
	return interfaces.Stores{
		Stories:            newPgEntityStore(db, logger, storySpec),
		Chapters:           newPgEntityStore(db, logger, chapterSpec),
		Scenes:             newPgEntityStore(db, logger, sceneSpec),
		Moments:            newPgEntityStore(db, logger, momentSpec),
		Characters:         newPgEntityStore(db, logger, characterSpec),
		Locations:          newPgEntityStore(db, logger, locationSpec),
		Choices:            NewPgChoiceStore(db, logger),
		CharacterMoments:   NewPgCharacterMomentStore(db, logger),
		CharacterRelations: newPgEntityStore(db, logger, relationSpec),
		Tags:               newPgEntityStore(db, logger, tagSpec),
		Notes:              newPgEntityStore(db, logger, noteSpec),
		WorldRules:         newPgEntityStore(db, logger, worldRuleSpec),
		GalleryItems:       newPgEntityStore(db, logger, galleryItemSpec),
		Suggestions:        newPgEntityStore(db, logger, suggestionSpec),
	}
}
