package models

import (
	"github.com/google/uuid"
)

// Character персонаж истории.
type Character struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StoryID     uuid.UUID `db:"story_id" json:"storyId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Timestamps
}

func (c *Character) GetID() uuid.UUID { return c.ID }

// Location место действия истории.
type Location struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StoryID     uuid.UUID `db:"story_id" json:"storyId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Timestamps
}

func (l *Location) GetID() uuid.UUID { return l.ID }

// CharacterMoment связь персонажа с моментом. Собственного ID нет, ключ составной.
type CharacterMoment struct {
	CharacterID uuid.UUID `db:"character_id" json:"characterId"`
	MomentID    uuid.UUID `db:"moment_id" json:"momentId"`
	Timestamps
}

// Key возвращает составной ключ связи.
func (cm *CharacterMoment) Key() CharacterMomentKey {
	return CharacterMomentKey{CharacterID: cm.CharacterID.String(), MomentID: cm.MomentID.String()}
}

// CharacterMomentKey ключ связи в том виде, в каком он приходит от клиента.
// Идентификаторы остаются строками: битый или отсутствующий ID должен попасть в отчет пакета, а не уронить разбор запроса.
type CharacterMomentKey struct {
	CharacterID string `json:"characterId"`
	MomentID    string `json:"momentId"`
}

func (k CharacterMomentKey) String() string {
	return k.CharacterID + "/" + k.MomentID
}

// CharacterRelation направленная запись отношения между двумя персонажами одной истории.
type CharacterRelation struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CharID1      uuid.UUID `db:"char_id_1" json:"charId1"`
	CharID2      uuid.UUID `db:"char_id_2" json:"charId2"`
	RelationType string    `db:"relation_type" json:"relationType"`
	Timestamps
}

func (r *CharacterRelation) GetID() uuid.UUID { return r.ID }
