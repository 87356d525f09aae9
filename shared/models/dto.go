package models

import (
	"github.com/google/uuid"
)

// --- Входные данные use case'ов ---
// Поля-указатели в Update*Input означают частичное обновление: nil - не менять.

type CreateStoryInput struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Type        StoryType `json:"type"`
}

type UpdateStoryInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Type        *StoryType `json:"type"`
}

type CreateChapterInput struct {
	StoryID uuid.UUID `json:"storyId"`
	Title   string    `json:"title"`
	Index   int       `json:"index"`
}

type UpdateChapterInput struct {
	ID    uuid.UUID `json:"id"`
	Title *string   `json:"title"`
	Index *int      `json:"index"`
}

type CreateSceneInput struct {
	ChapterID  uuid.UUID  `json:"chapterId"`
	LocationID *uuid.UUID `json:"locationId"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Index      int        `json:"index"`
}

type UpdateSceneInput struct {
	ID            uuid.UUID  `json:"id"`
	ChapterID     *uuid.UUID `json:"chapterId"`
	LocationID    *uuid.UUID `json:"locationId"`
	ClearLocation bool       `json:"clearLocation"`
	Title         *string    `json:"title"`
	Summary       *string    `json:"summary"`
	Index         *int       `json:"index"`
}

type CreateMomentInput struct {
	SceneID uuid.UUID `json:"sceneId"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Index   int       `json:"index"`
}

type UpdateMomentInput struct {
	ID      uuid.UUID  `json:"id"`
	SceneID *uuid.UUID `json:"sceneId"`
	Title   *string    `json:"title"`
	Content *string    `json:"content"`
	Index   *int       `json:"index"`
}

type CreateCharacterInput struct {
	StoryID     uuid.UUID `json:"storyId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type UpdateCharacterInput struct {
	ID          uuid.UUID `json:"id"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
}

type CreateLocationInput struct {
	StoryID     uuid.UUID `json:"storyId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type UpdateLocationInput struct {
	ID          uuid.UUID `json:"id"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
}

type CreateChoiceInput struct {
	SceneID     uuid.UUID `json:"sceneId"`
	NextSceneID uuid.UUID `json:"nextSceneId"`
	Text        string    `json:"text"`
	IsImplicit  bool      `json:"isImplicit"`
}

type UpdateChoiceInput struct {
	ID          uuid.UUID  `json:"id"`
	NextSceneID *uuid.UUID `json:"nextSceneId"`
	Text        *string    `json:"text"`
}

type CreateRelationInput struct {
	CharID1      uuid.UUID `json:"charId1"`
	CharID2      uuid.UUID `json:"charId2"`
	RelationType string    `json:"relationType"`
}

type UpdateRelationInput struct {
	ID           uuid.UUID `json:"id"`
	RelationType *string   `json:"relationType"`
}

type CreateTagInput struct {
	StoryID uuid.UUID `json:"storyId"`
	Name    string    `json:"name"`
	Color   string    `json:"color"`
}

type UpdateTagInput struct {
	ID    uuid.UUID `json:"id"`
	Name  *string   `json:"name"`
	Color *string   `json:"color"`
}

// CreateContentInput общие поля заметок и правил мира.
type CreateContentInput struct {
	StoryID uuid.UUID `json:"storyId"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
}

type UpdateContentInput struct {
	ID    uuid.UUID `json:"id"`
	Title *string   `json:"title"`
	Body  *string   `json:"body"`
}

type CreateGalleryItemInput struct {
	StoryID   uuid.UUID   `json:"storyId"`
	OwnerType *EntityKind `json:"ownerType"`
	OwnerID   *uuid.UUID  `json:"ownerId"`
	ImageURL  string      `json:"imageUrl"`
	Caption   string      `json:"caption"`
}

type UpdateGalleryItemInput struct {
	ID         uuid.UUID   `json:"id"`
	OwnerType  *EntityKind `json:"ownerType"`
	OwnerID    *uuid.UUID  `json:"ownerId"`
	ClearOwner bool        `json:"clearOwner"`
	Caption    *string     `json:"caption"`
}

type CreateSuggestionInput struct {
	StoryID   uuid.UUID   `json:"storyId"`
	OwnerType *EntityKind `json:"ownerType"`
	OwnerID   *uuid.UUID  `json:"ownerId"`
	Content   string      `json:"content"`
}

type UpdateSuggestionInput struct {
	ID      uuid.UUID         `json:"id"`
	Content *string           `json:"content"`
	Status  *SuggestionStatus `json:"status"`
}
