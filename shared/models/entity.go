package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind определяет тип сущности в дереве контента.
type EntityKind string

const (
	KindUser              EntityKind = "user"
	KindStory             EntityKind = "story"
	KindChapter           EntityKind = "chapter"
	KindScene             EntityKind = "scene"
	KindMoment            EntityKind = "moment"
	KindCharacter         EntityKind = "character"
	KindLocation          EntityKind = "location"
	KindChoice            EntityKind = "choice"
	KindCharacterMoment   EntityKind = "character_moment"
	KindCharacterRelation EntityKind = "character_relation"
	KindTag               EntityKind = "tag"
	KindGalleryItem       EntityKind = "gallery_item"
	KindNote              EntityKind = "note"
	KindWorldRule         EntityKind = "world_rule"
	KindSuggestion        EntityKind = "suggestion"
)

var kindDisplayNames = map[EntityKind]string{
	KindUser:              "User",
	KindStory:             "Story",
	KindChapter:           "Chapter",
	KindScene:             "Scene",
	KindMoment:            "Moment",
	KindCharacter:         "Character",
	KindLocation:          "Location",
	KindChoice:            "Choice",
	KindCharacterMoment:   "CharacterMoment",
	KindCharacterRelation: "CharacterRelation",
	KindTag:               "Tag",
	KindGalleryItem:       "Gallery item",
	KindNote:              "Note",
	KindWorldRule:         "World rule",
	KindSuggestion:        "Suggestion",
}

// DisplayName возвращает человекочитаемое имя типа для сообщений об ошибках.
func (k EntityKind) DisplayName() string {
	if name, ok := kindDisplayNames[k]; ok {
		return name
	}
	return string(k)
}

// Valid сообщает, известен ли тип.
func (k EntityKind) Valid() bool {
	_, ok := kindDisplayNames[k]
	return ok
}

// Ref ссылается на конкретную сущность определенного типа.
type Ref struct {
	Kind EntityKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// NewRef создает ссылку на сущность.
func NewRef(kind EntityKind, id uuid.UUID) Ref {
	return Ref{Kind: kind, ID: id}
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// NewID генерирует новый идентификатор (UUIDv7, сортируется лексикографически по времени создания).
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 падает только при отказе источника случайности
		return uuid.New()
	}
	return id
}

// Timestamps общие поля времени для всех сущностей.
type Timestamps struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Touch выставляет UpdatedAt (и CreatedAt для новых записей).
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// Entity реализуется всеми сущностями с собственным идентификатором.
type Entity interface {
	GetID() uuid.UUID
	Touch(now time.Time)
}
