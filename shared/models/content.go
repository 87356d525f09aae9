package models

import (
	"github.com/google/uuid"
)

// Tag метка внутри истории.
type Tag struct {
	ID      uuid.UUID `db:"id" json:"id"`
	StoryID uuid.UUID `db:"story_id" json:"storyId"`
	Name    string    `db:"name" json:"name"`
	Color   string    `db:"color" json:"color,omitempty"`
	Timestamps
}

func (t *Tag) GetID() uuid.UUID { return t.ID }

// Note заметка автора.
type Note struct {
	ID      uuid.UUID `db:"id" json:"id"`
	StoryID uuid.UUID `db:"story_id" json:"storyId"`
	Title   string    `db:"title" json:"title"`
	Content string    `db:"content" json:"content"`
	Timestamps
}

func (n *Note) GetID() uuid.UUID { return n.ID }

// WorldRule правило мира истории.
type WorldRule struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StoryID     uuid.UUID `db:"story_id" json:"storyId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Timestamps
}

func (w *WorldRule) GetID() uuid.UUID { return w.ID }

// GalleryItem изображение галереи. Может быть привязано к сущности той же истории (OwnerType/OwnerID).
// Сами файлы хранятся вне сервиса, здесь только ссылка.
type GalleryItem struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	StoryID   uuid.UUID   `db:"story_id" json:"storyId"`
	OwnerType *EntityKind `db:"owner_type" json:"ownerType,omitempty"`
	OwnerID   *uuid.UUID  `db:"owner_id" json:"ownerId,omitempty"`
	ImageURL  string      `db:"image_url" json:"imageUrl"`
	Caption   string      `db:"caption" json:"caption"`
	Timestamps
}

func (g *GalleryItem) GetID() uuid.UUID { return g.ID }

// Owner возвращает ссылку на владельца, если он задан.
func (g *GalleryItem) Owner() (Ref, bool) {
	return ownerRef(g.OwnerType, g.OwnerID)
}

// SuggestionStatus статус предложения.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Suggestion предложение по контенту истории, опционально привязанное к сущности.
func (s SuggestionStatus) Valid() bool {
	return s == SuggestionPending || s == SuggestionAccepted || s == SuggestionRejected
}

type Suggestion struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	StoryID   uuid.UUID        `db:"story_id" json:"storyId"`
	OwnerType *EntityKind      `db:"owner_type" json:"ownerType,omitempty"`
	OwnerID   *uuid.UUID       `db:"owner_id" json:"ownerId,omitempty"`
	Content   string           `db:"content" json:"content"`
	Status    SuggestionStatus `db:"status" json:"status"`
	Timestamps
}

func (s *Suggestion) GetID() uuid.UUID { return s.ID }

// Owner возвращает ссылку на владельца, если он задан.
func (s *Suggestion) Owner() (Ref, bool) {
	return ownerRef(s.OwnerType, s.OwnerID)
}

func ownerRef(kind *EntityKind, id *uuid.UUID) (Ref, bool) {
	if kind == nil || id == nil {
		return Ref{}, false
	}
	return Ref{Kind: *kind, ID: *id}, true
}
